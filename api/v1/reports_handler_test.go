package v1_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "civitrack/api/v1"
	"civitrack/internal/reports"
	"civitrack/internal/testsupport"
	"civitrack/internal/visits"
)

func setupReportsApp(t *testing.T) *fiber.App {
	t.Helper()

	db := testsupport.SetupTestDB(t)
	testsupport.CleanTables(t, db, "visits", "users", "modules")

	ana := testsupport.CreateTestUser(t, db, "Ana Torres", visits.GenderFemale,
		time.Date(1995, time.January, 10, 0, 0, 0, 0, time.UTC))
	biblioteca := testsupport.CreateTestModule(t, db, "Biblioteca")
	testsupport.CreateTestVisit(t, db,
		time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), ana.ID, biblioteca.ID)
	testsupport.CreateTestVisit(t, db,
		time.Date(2025, time.March, 2, 15, 0, 0, 0, time.UTC), ana.ID, biblioteca.ID)

	store := visits.NewStore(db)
	generator := reports.NewGenerator(store, store, testsupport.GetLogger())
	handler := v1.NewReportsHandler(generator, testsupport.GetLogger())

	app := fiber.New()
	app.Post("/api/v1/reports", handler.GenerateReport)
	return app
}

func postReport(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGenerateReportEndpoint(t *testing.T) {
	app := setupReportsApp(t)

	resp := postReport(t, app, `{"startDate":"2025-03-01","endDate":"2025-03-05"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats reports.Statistics
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &stats))

	assert.Equal(t, int64(2), stats.TotalVisits)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Len(t, stats.VisitsByDate, 5)
	require.Len(t, stats.TopUsers, 1)
	assert.Equal(t, "Ana Torres", stats.TopUsers[0].UserName)
	require.Len(t, stats.TopModules, 1)
	assert.Equal(t, "Biblioteca", stats.TopModules[0].Name)
}

func TestGenerateReportInvalidDateRange(t *testing.T) {
	app := setupReportsApp(t)

	resp := postReport(t, app, `{"startDate":"2025-03-10","endDate":"2025-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "INVALID_DATE_RANGE", payload["code"])
}

func TestGenerateReportMalformedDate(t *testing.T) {
	app := setupReportsApp(t)

	resp := postReport(t, app, `{"startDate":"01/03/2025","endDate":"2025-03-05"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "INVALID_DATE", payload["code"])
}
