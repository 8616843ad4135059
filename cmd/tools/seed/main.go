package main

import (
	"flag"
	"log"

	"civitrack/internal/config"
	"civitrack/internal/database"
	"civitrack/internal/logging"
	"civitrack/internal/seeder"
)

func main() {
	users := flag.Int("users", 500, "number of users to create")
	visitCount := flag.Int("visits", 20000, "number of visits to create")
	spanDays := flag.Int("span", 365, "how many days back visits are spread over")
	flag.Parse()

	cfg := config.GetConfig()
	logger := logging.NewLogger(cfg)

	dbManager := database.NewManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer dbManager.Close()

	if err := dbManager.MigrateDatabase(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	s := seeder.NewSeeder(dbManager.GetConnection(), logger, *users, *visitCount, *spanDays)
	if err := s.Seed(); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
}
