package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"edefter/internal/logger"
	"edefter/internal/roster"
	"edefter/pkg/models"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Inspect the customer list",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the imported customer list",
	Long: `Load the customer list from CUSTOMER_EXCEL_PATH, or from the Google Sheet at
CUSTOMER_SHEET_URL (tab CUSTOMER_SHEET_NAME), and print it.`,
	Example: `  edefter customers list
  edefter customers list --category gelir --active`,
	RunE: runCustomersList,
}

var customersTemplateCmd = &cobra.Command{
	Use:     "template [xlsx-file]",
	Short:   "Write an example customer list workbook",
	Example: `  edefter customers template musteriler.xlsx`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCustomersTemplate,
}

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersListCmd, customersTemplateCmd)

	customersListCmd.Flags().Bool("active", false, "Only active customers")
	customersListCmd.Flags().String("category", "", "Only customers of this taxpayer type (gelir or kurumlar)")
	customersListCmd.Flags().Bool("json", false, "Print as JSON")
}

func runCustomersList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")

	activeOnly, _ := cmd.Flags().GetBool("active")
	category, _ := cmd.Flags().GetString("category")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx, cancel := signalContext()
	defer cancel()

	r, err := loadRoster(ctx, appConfig)
	if err != nil {
		return fmt.Errorf("failed to load customer list: %w", err)
	}

	var customers []models.Customer
	switch {
	case category != "":
		cat := models.TaxpayerCategory(category)
		if cat != models.CategoryGelir && cat != models.CategoryKurumlar {
			return fmt.Errorf("unknown category %q: use gelir or kurumlar", category)
		}
		customers = r.ByCategory(cat)
	case activeOnly:
		customers = r.Active()
	default:
		customers = r.Customers()
	}

	log.Info().Str("source", r.Source()).Int("customers", len(customers)).Msg("Customer list loaded")

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), customers, "", log)
	}

	w := cmd.OutOrStdout()
	for _, c := range customers {
		cadence := "aylık"
		if c.IsQuarterly() {
			cadence = "3 aylık"
		}
		active := ""
		if !c.IsActive {
			active = "pasif"
		}
		fmt.Fprintf(w, "%-12s %-30s %-18s %-8s %-30s %s\n",
			c.Identifier(), c.CompanyName, c.Category.Label(), cadence, c.Email, active)
	}
	fmt.Fprintf(w, "%d müşteri (%s)\n", len(customers), r.Source())
	return nil
}

func runCustomersTemplate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")

	path := args[0]
	if err := roster.WriteSample(path); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}

	log.Info().Str("file", path).Msg("Customer list template written")
	fmt.Fprintf(cmd.OutOrStdout(), "Şablon yazıldı: %s\n", path)
	return nil
}
