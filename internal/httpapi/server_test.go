package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edefter/internal/compliance"
	"edefter/pkg/models"
)

type watching bool

func (w watching) IsWatching() bool { return bool(w) }

type fakeStore struct {
	items []models.ProcessedItem
	err   error
}

func (s fakeStore) ProcessedItems() ([]models.ProcessedItem, error) { return s.items, s.err }

func testServer(store ProcessedLister) *Server {
	roster := models.NewRoster([]models.Customer{
		{CompanyName: "ABC Ticaret", TaxNo: "1234567890", Category: models.CategoryKurumlar,
			Cadence: models.CadenceMonthly, IsActive: true},
		{CompanyName: "Pasif", TaxNo: "1", IsActive: false},
	}, "musteriler.xlsx")

	return NewServer(Options{
		SourceFolder: "/e-defter",
		Watcher:      watching(true),
		Store:        store,
		Aggregator: compliance.NewAggregator(func() time.Time {
			return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		}),
		Roster:  func() *models.Roster { return roster },
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) }),
	})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, testServer(nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStatus(t *testing.T) {
	store := fakeStore{items: []models.ProcessedItem{{TaxNo: "1234567890", Period: "202504"}}}
	rec := get(t, testServer(store), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Watching)
	assert.Equal(t, "/e-defter", resp.SourceFolder)
	assert.Equal(t, "musteriler.xlsx", resp.RosterSource)
	assert.Equal(t, 2, resp.Customers)
	assert.Equal(t, 1, resp.ActiveCount)
	assert.Equal(t, 1, resp.ProcessedCount)
	// 202501 (2025-05-14) is overdue; 202502..202504 fall within 90 days.
	assert.Equal(t, 1, resp.Overdue)
	assert.Equal(t, 3, resp.Upcoming)
}

func TestDeadlines(t *testing.T) {
	rec := get(t, testServer(nil), "/deadlines")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []deadlineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 4)
	assert.Equal(t, "202501", resp[0].Period)
	assert.Equal(t, "2025-05-14", resp[0].Deadline)
	assert.Equal(t, "18 gün gecikmiş", resp[0].Info)
}

func TestProcessedError(t *testing.T) {
	rec := get(t, testServer(fakeStore{err: errors.New("db locked")}), "/processed")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "db locked")
}

func TestMetricsMounted(t *testing.T) {
	rec := get(t, testServer(nil), "/metrics")
	assert.Equal(t, "ok", rec.Body.String())
}
