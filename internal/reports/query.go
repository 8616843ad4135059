package reports

import (
	"fmt"
	"time"
)

// AgeBracket is a named age range of the fixed civic-center taxonomy.
type AgeBracket string

const (
	BracketInfancia     AgeBracket = "infancia"
	BracketJuventud     AgeBracket = "juventud"
	BracketAdultezJoven AgeBracket = "adultez_joven"
	BracketAdultezMedia AgeBracket = "adultez_media"
	BracketVejez        AgeBracket = "vejez"
)

// bracketBounds maps each bracket to its inclusive age bounds in years.
var bracketBounds = map[AgeBracket][2]int{
	BracketInfancia:     {0, 14},
	BracketJuventud:     {15, 24},
	BracketAdultezJoven: {25, 44},
	BracketAdultezMedia: {45, 64},
	BracketVejez:        {65, 120},
}

// ParseAgeBracket returns the bracket for s, or false when s names no
// known bracket.
func ParseAgeBracket(s string) (AgeBracket, bool) {
	b := AgeBracket(s)
	_, ok := bracketBounds[b]
	return b, ok
}

// Bounds returns the inclusive [min, max] age bounds of the bracket.
// Unknown brackets cover the full 0-120 range.
func (b AgeBracket) Bounds() (minAge, maxAge int) {
	if bounds, ok := bracketBounds[b]; ok {
		return bounds[0], bounds[1]
	}
	return 0, 120
}

// BracketFor returns the bracket containing the given age.
func BracketFor(age int) AgeBracket {
	switch {
	case age <= 14:
		return BracketInfancia
	case age <= 24:
		return BracketJuventud
	case age <= 44:
		return BracketAdultezJoven
	case age <= 64:
		return BracketAdultezMedia
	default:
		return BracketVejez
	}
}

// Query is the report request as received from callers. StartDate and
// EndDate are inclusive calendar-day bounds; every other field is an
// optional conjunctive filter. An unknown AgeRange value is ignored,
// matching the reference behavior.
type Query struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Gender    string    `json:"gender,omitempty"`
	MinAge    *int      `json:"minAge,omitempty"`
	MaxAge    *int      `json:"maxAge,omitempty"`
	AgeRange  string    `json:"ageRange,omitempty"`
	UserID    uint      `json:"userId,omitempty"`
	ModuleID  uint      `json:"moduleId,omitempty"`
	Status    string    `json:"status,omitempty"`
}

// Filter is the normalized, immutable filter specification consumed by the
// store. From and To are UTC midnights of the inclusive day bounds; the
// age bracket has already been folded into MinAge/MaxAge, so two queries
// with the same effective filters produce identical Filters (and therefore
// identical cache keys).
type Filter struct {
	From     time.Time
	To       time.Time
	Gender   string
	MinAge   *int
	MaxAge   *int
	UserID   uint
	ModuleID uint
	Status   string
}

// Normalize validates the query and folds it into a Filter. It returns
// ErrInvalidDateRange when the start date is after the end date.
func (q Query) Normalize() (Filter, error) {
	from := truncateToDayUTC(q.StartDate)
	to := truncateToDayUTC(q.EndDate)
	if from.After(to) {
		return Filter{}, ErrInvalidDateRange
	}

	f := Filter{
		From:     from,
		To:       to,
		Gender:   q.Gender,
		MinAge:   q.MinAge,
		MaxAge:   q.MaxAge,
		UserID:   q.UserID,
		ModuleID: q.ModuleID,
		Status:   q.Status,
	}

	if bracket, ok := ParseAgeBracket(q.AgeRange); ok {
		bMin, bMax := bracket.Bounds()
		f.MinAge = intersectLower(f.MinAge, bMin)
		f.MaxAge = intersectUpper(f.MaxAge, bMax)
	}

	return f, nil
}

// ToExclusive returns the first instant after the filtered range, for
// half-open timestamp comparisons.
func (f Filter) ToExclusive() time.Time {
	return f.To.AddDate(0, 0, 1)
}

// SingleDay reports whether the range spans exactly one calendar day,
// which switches the date series into hourly drill-down mode.
func (f Filter) SingleDay() bool {
	return f.From.Equal(f.To)
}

// SpanDays returns the number of calendar days between From and To,
// exclusive of the first day (0 for a single-day range).
func (f Filter) SpanDays() int {
	return int(f.To.Sub(f.From).Hours() / 24)
}

// HasAgeFilter reports whether any age bound applies. Stores use this to
// restrict matches to visits with a computable age.
func (f Filter) HasAgeFilter() bool {
	return f.MinAge != nil || f.MaxAge != nil
}

// CacheKey derives the deterministic cache key for the filter. Unset
// optional filters map to the "all" sentinel so logically-equal queries
// share a key regardless of how they were expressed.
func (f Filter) CacheKey() string {
	return fmt.Sprintf("report_%s_%s_%s_%s_%s_%s_%s_%s",
		f.From.Format("2006-01-02"),
		f.To.Format("2006-01-02"),
		orAll(f.Gender),
		orAllInt(f.MinAge),
		orAllInt(f.MaxAge),
		orAllID(f.UserID),
		orAllID(f.ModuleID),
		orAll(f.Status),
	)
}

func truncateToDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func intersectLower(explicit *int, bracketMin int) *int {
	if explicit != nil && *explicit > bracketMin {
		return explicit
	}
	return &bracketMin
}

func intersectUpper(explicit *int, bracketMax int) *int {
	if explicit != nil && *explicit < bracketMax {
		return explicit
	}
	return &bracketMax
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func orAllInt(n *int) string {
	if n == nil {
		return "all"
	}
	return fmt.Sprintf("%d", *n)
}

func orAllID(id uint) string {
	if id == 0 {
		return "all"
	}
	return fmt.Sprintf("%d", id)
}
