// Package visits holds the civic-center domain model (users, modules,
// visits) and the SQLite-backed queries the report engine and the visit
// history run on.
package visits

import "time"

// Visit statuses.
const (
	StatusRegistrada = "registrada"
	StatusAnulada    = "anulada"
)

// Genders as stored on users.
const (
	GenderFemale = "F"
	GenderMale   = "M"
	GenderOther  = "O"
)

// User is a registered visitor. Birthday is optional; without it no age
// can be computed for the user's visits.
type User struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Name      string     `gorm:"size:120;not null" json:"name"`
	Email     string     `gorm:"size:254;uniqueIndex" json:"email"`
	Gender    string     `gorm:"size:1" json:"gender"`
	Birthday  *time.Time `json:"birthday"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Module is a service area of the center that visits are attributed to.
type Module struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	Active      bool      `gorm:"default:true" json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Visit is one attendance record. UserID and ModuleID are nullable:
// walk-ins without registration and visits predating the module catalog
// both occur in practice.
type Visit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	VisitedAt time.Time `gorm:"index;not null" json:"visitedAt"`
	UserID    *uint     `gorm:"index" json:"userId"`
	ModuleID  *uint     `gorm:"index" json:"moduleId"`
	Notes     string    `gorm:"size:500" json:"notes"`
	Status    string    `gorm:"size:20;default:registrada;index" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
