// Package v1 exposes the civitrack JSON API.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"civitrack/internal/reports"
)

const (
	errInvalidRequest = "Invalid request"
	dateLayout        = "2006-01-02"
)

// ReportsHandler serves the report generation endpoints.
type ReportsHandler struct {
	generator *reports.Generator
	logger    *slog.Logger
}

// NewReportsHandler creates the handler over the shared report generator.
func NewReportsHandler(generator *reports.Generator, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{generator: generator, logger: logger}
}

// ReportParams is the report request body. Dates use the 2006-01-02 form
// and bound the range inclusively.
type ReportParams struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Gender    string `json:"gender"`
	MinAge    *int   `json:"minAge"`
	MaxAge    *int   `json:"maxAge"`
	AgeRange  string `json:"ageRange"`
	UserID    uint   `json:"userId"`
	ModuleID  uint   `json:"moduleId"`
	Status    string `json:"status"`
}

// GenerateReport handles POST /api/v1/reports.
func (h *ReportsHandler) GenerateReport(c *fiber.Ctx) error {
	var params ReportParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidRequest,
			"code":  "INVALID_BODY",
		})
	}

	start, err := time.Parse(dateLayout, params.StartDate)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "startDate must be formatted as " + dateLayout,
			"code":  "INVALID_DATE",
		})
	}
	end, err := time.Parse(dateLayout, params.EndDate)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "endDate must be formatted as " + dateLayout,
			"code":  "INVALID_DATE",
		})
	}

	query := reports.Query{
		StartDate: start,
		EndDate:   end,
		Gender:    params.Gender,
		MinAge:    params.MinAge,
		MaxAge:    params.MaxAge,
		AgeRange:  params.AgeRange,
		UserID:    params.UserID,
		ModuleID:  params.ModuleID,
		Status:    params.Status,
	}

	stats, err := h.generator.Generate(c.UserContext(), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(stats)
}

// TodayReport handles GET /api/v1/reports/today.
func (h *ReportsHandler) TodayReport(c *fiber.Ctx) error {
	stats, err := h.generator.GenerateToday(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(stats)
}

// MonthReport handles GET /api/v1/reports/month.
func (h *ReportsHandler) MonthReport(c *fiber.Ctx) error {
	stats, err := h.generator.GenerateThisMonth(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(stats)
}

// YearReport handles GET /api/v1/reports/year.
func (h *ReportsHandler) YearReport(c *fiber.Ctx) error {
	stats, err := h.generator.GenerateThisYear(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(stats)
}

func (h *ReportsHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, reports.ErrInvalidDateRange) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_DATE_RANGE",
		})
	}

	h.logger.Error("Failed to generate report", slog.Any("error", err))
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to generate report",
		"code":  "REPORT_ERROR",
	})
}
