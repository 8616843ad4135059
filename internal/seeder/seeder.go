// Package seeder fills the database with realistic demo data for local
// development: a module catalog, a user population with genders and
// birthdays, and a visit history spread over the recent past.
package seeder

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"civitrack/internal/visits"
)

// Seeder generates demo users, modules and visits.
type Seeder struct {
	db         *gorm.DB
	logger     *slog.Logger
	UserCount  int
	VisitCount int
	SpanDays   int
}

// NewSeeder creates a seeder writing through the given connection.
func NewSeeder(db *gorm.DB, logger *slog.Logger, userCount, visitCount, spanDays int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		db:         db,
		logger:     logger,
		UserCount:  userCount,
		VisitCount: visitCount,
		SpanDays:   spanDays,
	}
}

var moduleNames = []string{
	"atencion ciudadana",
	"biblioteca",
	"deportes",
	"cultura",
	"salud comunitaria",
	"capacitacion laboral",
	"asesoria juridica",
	"adulto mayor",
}

var firstNames = []string{
	"Maria", "Jose", "Carmen", "Juan", "Ana", "Luis", "Rosa", "Carlos",
	"Lucia", "Miguel", "Elena", "Pedro", "Sofia", "Diego", "Valentina",
}

var lastNames = []string{
	"Garcia", "Rodriguez", "Martinez", "Lopez", "Hernandez", "Gonzalez",
	"Perez", "Sanchez", "Ramirez", "Torres", "Flores", "Rivera",
}

// Seed populates the database. It is idempotent for modules (matched by
// name) and additive for users and visits.
func (s *Seeder) Seed() error {
	start := time.Now()
	s.logger.Info("Seeding database...",
		slog.Int("users", s.UserCount),
		slog.Int("visits", s.VisitCount),
		slog.Int("spanDays", s.SpanDays))

	modules, err := s.seedModules()
	if err != nil {
		return fmt.Errorf("seeding modules: %w", err)
	}

	users, err := s.seedUsers()
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	if err := s.seedVisits(users, modules); err != nil {
		return fmt.Errorf("seeding visits: %w", err)
	}

	s.logger.Info("Seeding completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) seedModules() ([]visits.Module, error) {
	title := cases.Title(language.Spanish)

	seeded := make([]visits.Module, 0, len(moduleNames))
	for _, name := range moduleNames {
		module := visits.Module{
			Name:        title.String(name),
			Description: "Modulo de " + name,
			Active:      true,
		}
		err := s.db.Where("name = ?", module.Name).FirstOrCreate(&module).Error
		if err != nil {
			return nil, err
		}
		seeded = append(seeded, module)
	}
	return seeded, nil
}

func (s *Seeder) seedUsers() ([]visits.User, error) {
	now := time.Now().UTC()
	genders := []string{visits.GenderFemale, visits.GenderMale, visits.GenderOther}

	users := make([]visits.User, 0, s.UserCount)
	for i := 0; i < s.UserCount; i++ {
		first := firstNames[rand.IntN(len(firstNames))]
		last := lastNames[rand.IntN(len(lastNames))]
		name := first + " " + last

		user := visits.User{
			Name:   name,
			Email:  fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			Gender: genders[rand.IntN(len(genders))],
		}

		// Roughly one in ten users has no birthday on file, matching the
		// registration form where it is optional.
		if rand.IntN(10) > 0 {
			age := 5 + rand.IntN(85)
			birthday := now.AddDate(-age, 0, -rand.IntN(364))
			user.Birthday = &birthday
		}

		users = append(users, user)
	}

	if err := s.db.CreateInBatches(users, 200).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) seedVisits(users []visits.User, modules []visits.Module) error {
	now := time.Now().UTC()
	statuses := []string{
		visits.StatusRegistrada, visits.StatusRegistrada,
		visits.StatusRegistrada, visits.StatusAnulada,
	}

	batch := make([]visits.Visit, 0, s.VisitCount)
	for i := 0; i < s.VisitCount; i++ {
		// Visits cluster in opening hours (8:00-19:59).
		at := now.AddDate(0, 0, -rand.IntN(s.SpanDays)).
			Truncate(24 * time.Hour).
			Add(time.Duration(8+rand.IntN(12)) * time.Hour).
			Add(time.Duration(rand.IntN(60)) * time.Minute)

		visit := visits.Visit{
			VisitedAt: at,
			Status:    statuses[rand.IntN(len(statuses))],
		}

		// A small share of visits are anonymous walk-ins.
		if rand.IntN(20) > 0 && len(users) > 0 {
			id := users[rand.IntN(len(users))].ID
			visit.UserID = &id
		}
		if rand.IntN(20) > 0 && len(modules) > 0 {
			id := modules[rand.IntN(len(modules))].ID
			visit.ModuleID = &id
		}

		batch = append(batch, visit)
	}

	return s.db.CreateInBatches(batch, 500).Error
}
