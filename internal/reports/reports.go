// Package reports implements the visit report engine: adaptive strategy
// selection by dataset size, filtered aggregation, gap-free date series,
// batched and partitioned processing for large ranges, and a bounded
// result cache.
//
// The package is organized into focused modules:
//   - reports.go: result/aggregate types and the store contracts
//   - query.go: report query input, age brackets, filter normalization
//   - strategy.go: dataset tiers, batch/partition sizing, advisory limits
//   - datefill.go: sparse-to-complete date/hour series filling
//   - partial.go: mergeable partial aggregates for partitioned runs
//   - batch.go: page-at-a-time accumulation for massive datasets
//   - partition.go: concurrent per-subrange aggregation for huge datasets
//   - cache.go: TTL + FIFO bounded report cache
//   - generator.go: the orchestrator tying it all together
package reports

import (
	"context"
	"errors"
	"time"
)

// UnknownUserName is the display name used when a user id cannot be resolved.
const UnknownUserName = "Usuario Desconocido"

// ErrInvalidDateRange is returned when a query's start date is after its end date.
var ErrInvalidDateRange = errors.New("start date cannot be after end date")

// GenderDistribution holds visit counts per gender. Visits without a
// resolvable gender (no linked user) are counted in none of the buckets.
type GenderDistribution struct {
	F int64 `json:"F"`
	M int64 `json:"M"`
	O int64 `json:"O"`
}

// Add returns the bucket-wise sum of two distributions.
func (g GenderDistribution) Add(o GenderDistribution) GenderDistribution {
	return GenderDistribution{F: g.F + o.F, M: g.M + o.M, O: g.O + o.O}
}

// Total returns the number of visits with a resolvable gender.
func (g GenderDistribution) Total() int64 {
	return g.F + g.M + g.O
}

// AgeRangeDistribution holds visit counts per age bracket. Only visits with
// a computable age (linked user with a birthday) are counted.
type AgeRangeDistribution struct {
	Infancia     int64 `json:"infancia"`
	Juventud     int64 `json:"juventud"`
	AdultezJoven int64 `json:"adultez_joven"`
	AdultezMedia int64 `json:"adultez_media"`
	Vejez        int64 `json:"vejez"`
}

// Total returns the number of visits with a computable age.
func (a AgeRangeDistribution) Total() int64 {
	return a.Infancia + a.Juventud + a.AdultezJoven + a.AdultezMedia + a.Vejez
}

// DatePoint is one entry of the visits-by-date series. Hour is set only in
// single-day drill-down mode.
type DatePoint struct {
	Date  string `json:"date"`
	Hour  *int   `json:"hour,omitempty"`
	Count int64  `json:"count"`
}

// TopUser is a top-N entry for the most frequent visitors.
type TopUser struct {
	UserID     uint   `json:"userId"`
	UserName   string `json:"userName"`
	VisitCount int64  `json:"visitCount"`
}

// TopModule is a top-N entry for the most visited modules.
type TopModule struct {
	Name       string `json:"name"`
	VisitCount int64  `json:"visitCount"`
}

// Statistics is the complete report returned to callers.
type Statistics struct {
	TotalVisits          int64                `json:"totalVisits"`
	TotalUsers           int64                `json:"totalUsers"`
	GenderDistribution   GenderDistribution   `json:"genderDistribution"`
	AgeRangeDistribution AgeRangeDistribution `json:"ageRangeDistribution"`
	AverageAge           int                  `json:"averageAge"`
	VisitsByDate         []DatePoint          `json:"visitsByDate"`
	TopUsers             []TopUser            `json:"topUsers"`
	TopModules           []TopModule          `json:"topModules"`
}

// AggregateTuple is the one-pass aggregate over a filtered set of visits.
// AverageAge is the unrounded mean over visits with a computable age, 0
// when there are none.
type AggregateTuple struct {
	TotalVisits int64
	TotalUsers  int64
	AverageAge  float64
	Genders     GenderDistribution
	AgeRanges   AgeRangeDistribution
}

// BucketCount is a sparse grouped count as returned by the store. Date is
// a calendar day in "2006-01-02" form; Hour is meaningful only for hourly
// groupings.
type BucketCount struct {
	Date  string
	Hour  int
	Count int64
}

// KeyCount is a grouped count keyed by user or module. Name is populated
// for module groupings, where the store projects it directly.
type KeyCount struct {
	ID    uint
	Name  string
	Count int64
}

// GroupKey selects the grouping dimension for top-N queries.
type GroupKey string

const (
	GroupByUser   GroupKey = "user"
	GroupByModule GroupKey = "module"
)

// VisitRow is one raw visit as consumed by the batch processor. Gender is
// empty and Age nil when the visit has no linked user (or no birthday).
type VisitRow struct {
	ID        uint
	VisitedAt time.Time
	UserID    *uint
	ModuleID  *uint
	Gender    string
	Age       *int
}

// Store is the read-only visit store the report engine queries. All
// methods apply the same conjunctive Filter semantics; failures propagate
// unmodified (the engine performs no retries).
type Store interface {
	// CountMatching returns the number of visits matching the filter.
	CountMatching(ctx context.Context, f Filter) (int64, error)

	// QueryAggregate computes the aggregate tuple in a single pass.
	QueryAggregate(ctx context.Context, f Filter) (AggregateTuple, error)

	// QueryGroupedByDate returns sparse per-day (or per-day-per-hour) counts.
	QueryGroupedByDate(ctx context.Context, f Filter, hourly bool) ([]BucketCount, error)

	// QueryTopBy returns grouped counts for the given dimension, ordered by
	// count descending, limited to limit entries.
	QueryTopBy(ctx context.Context, f Filter, key GroupKey, limit int) ([]KeyCount, error)

	// QueryPage returns matching visits ordered by id ascending, so that
	// consecutive pages neither duplicate nor skip rows.
	QueryPage(ctx context.Context, f Filter, offset, limit int) ([]VisitRow, error)
}

// NameResolver resolves user and module ids to display names for top-N
// enrichment.
type NameResolver interface {
	ResolveUserNames(ctx context.Context, ids []uint) (map[uint]string, error)
	ResolveModuleNames(ctx context.Context, ids []uint) (map[uint]string, error)
}
