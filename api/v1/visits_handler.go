package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"civitrack/internal/config"
	"civitrack/internal/reports"
	"civitrack/internal/visits"
)

// VisitsHandler serves the visit history endpoint.
type VisitsHandler struct {
	store  *visits.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewVisitsHandler creates the handler over the shared visit store.
func NewVisitsHandler(store *visits.Store, cfg *config.Config, logger *slog.Logger) *VisitsHandler {
	return &VisitsHandler{store: store, cfg: cfg, logger: logger}
}

// History handles GET /api/v1/visits/history. Dates default to the last
// 30 days; page size is clamped to the configured maximum.
func (h *VisitsHandler) History(c *fiber.Ctx) error {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if s := c.Query("startDate"); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "startDate must be formatted as " + dateLayout,
				"code":  "INVALID_DATE",
			})
		}
		start = parsed
	}
	if s := c.Query("endDate"); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": "endDate must be formatted as " + dateLayout,
				"code":  "INVALID_DATE",
			})
		}
		end = parsed
	}

	query := reports.Query{
		StartDate: start,
		EndDate:   end,
		Gender:    c.Query("gender"),
		UserID:    uint(c.QueryInt("userId")),
		ModuleID:  uint(c.QueryInt("moduleId")),
		Status:    c.Query("status"),
	}
	f, err := query.Normalize()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "INVALID_DATE_RANGE",
		})
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", h.cfg.HistoryPageSize)
	if pageSize < 1 {
		pageSize = h.cfg.HistoryPageSize
	}
	if pageSize > h.cfg.HistoryMaxPageSize {
		pageSize = h.cfg.HistoryMaxPageSize
	}

	history, err := h.store.History(c.UserContext(), f, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to fetch visit history", slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch visit history",
			"code":  "HISTORY_ERROR",
		})
	}
	return c.JSON(history)
}
