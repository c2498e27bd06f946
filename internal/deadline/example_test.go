package deadline_test

import (
	"fmt"

	"edefter/internal/deadline"
	"edefter/pkg/models"
)

func Example() {
	june := models.MustParsePeriod("202506")
	fmt.Println(deadline.For(june, models.CategoryKurumlar, false))
	fmt.Println(deadline.For(june, models.CategoryGelir, true).Turkish())

	december := models.MustParsePeriod("202512")
	fmt.Println(deadline.For(december, models.CategoryGelir, true))
	fmt.Println(deadline.For(december, models.CategoryKurumlar, true))
	// Output:
	// 2025-10-14
	// 10.09.2025
	// 2026-04-10
	// 2026-05-14
}
