package internal

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	v1 "civitrack/api/v1"
)

// apiCORSConfig is shared by all JSON endpoints. The API is consumed by
// the center's internal dashboards, so cross-origin reads are allowed.
var apiCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization",
}

// MountRoutes registers all HTTP routes on the fiber app.
func (a *Application) MountRoutes(app *fiber.App) {
	app.Use(recover.New())
	app.Use(cors.New(apiCORSConfig))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	reportsHandler := v1.NewReportsHandler(a.Generator, a.Logger)
	visitsHandler := v1.NewVisitsHandler(a.Store, a.Config, a.Logger)

	api := app.Group("/api/v1")
	api.Post("/reports", reportsHandler.GenerateReport)
	api.Get("/reports/today", reportsHandler.TodayReport)
	api.Get("/reports/month", reportsHandler.MonthReport)
	api.Get("/reports/year", reportsHandler.YearReport)
	api.Get("/visits/history", visitsHandler.History)
}
