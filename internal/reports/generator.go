package reports

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"civitrack/internal/pkg/async"
)

const topLimit = 10

// Generator is the report orchestrator. It owns a report request end to
// end: validation, cache lookup, tier selection, dispatch to the direct /
// batched / partitioned paths, date-series filling, top-N name enrichment
// and cache write-back.
type Generator struct {
	store Store
	names NameResolver
	cache *Cache
	log   *slog.Logger
}

// NewGenerator creates a report generator over the given store and name
// resolver.
func NewGenerator(store Store, names NameResolver, logger *slog.Logger) *Generator {
	return &Generator{
		store: store,
		names: names,
		cache: NewDefaultCache(),
		log:   logger,
	}
}

// Generate produces the full statistics for the query. It returns
// ErrInvalidDateRange without touching the store when the date bounds are
// inverted; store failures propagate unmodified and no partial report is
// ever returned.
func (g *Generator) Generate(ctx context.Context, q Query) (Statistics, error) {
	f, err := q.Normalize()
	if err != nil {
		return Statistics{}, err
	}

	key := f.CacheKey()
	if stats, ok := g.cache.Get(key); ok {
		g.log.Debug("Report cache hit", slog.String("key", key))
		return stats, nil
	}

	runID := uuid.NewString()
	log := g.log.With(slog.String("run", runID))

	size, err := g.store.CountMatching(ctx, f)
	if err != nil {
		return Statistics{}, fmt.Errorf("counting matching visits: %w", err)
	}

	tier := SelectTier(size)
	log.Info("Generating report",
		slog.String("from", f.From.Format(dateLayout)),
		slog.String("to", f.To.Format(dateLayout)),
		slog.Int64("datasetSize", size),
		slog.String("tier", tier.String()),
		slog.Duration("advisoryTimeout", RecommendedTimeout(tier)))

	var stats Statistics
	switch tier {
	case TierSmall, TierMedium, TierLarge:
		stats, err = g.generateDirect(ctx, f)
	case TierMassive:
		stats, err = g.generateBatched(ctx, f, AdaptiveBatchSize(tier))
	default:
		stats, err = g.generatePartitioned(ctx, f, OptimalPartitionSizeDays(f.From, f.To))
	}
	if err != nil {
		return Statistics{}, err
	}

	g.cache.Set(key, stats)
	return stats, nil
}

// GenerateToday reports on the current UTC day (hourly drill-down).
func (g *Generator) GenerateToday(ctx context.Context) (Statistics, error) {
	now := time.Now().UTC()
	return g.Generate(ctx, Query{StartDate: now, EndDate: now})
}

// GenerateThisMonth reports on the current UTC calendar month to date.
func (g *Generator) GenerateThisMonth(ctx context.Context) (Statistics, error) {
	now := time.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return g.Generate(ctx, Query{StartDate: first, EndDate: now})
}

// GenerateThisYear reports on the current UTC calendar year to date.
func (g *Generator) GenerateThisYear(ctx context.Context) (Statistics, error) {
	now := time.Now().UTC()
	first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return g.Generate(ctx, Query{StartDate: first, EndDate: now})
}

// generateDirect serves the SMALL/MEDIUM/LARGE tiers: the aggregate tuple,
// the date series and both top-N lists are independent reads issued side
// by side and joined before assembly.
func (g *Generator) generateDirect(ctx context.Context, f Filter) (Statistics, error) {
	hourly := f.SingleDay()

	tasks := []async.Task{
		{
			Name: "aggregate",
			Execute: func() (interface{}, error) {
				return g.store.QueryAggregate(ctx, f)
			},
		},
		{
			Name: "visitsByDate",
			Execute: func() (interface{}, error) {
				return g.store.QueryGroupedByDate(ctx, f, hourly)
			},
		},
		{
			Name: "topUsers",
			Execute: func() (interface{}, error) {
				return g.store.QueryTopBy(ctx, f, GroupByUser, topLimit)
			},
		},
		{
			Name: "topModules",
			Execute: func() (interface{}, error) {
				return g.store.QueryTopBy(ctx, f, GroupByModule, topLimit)
			},
		},
	}

	results := async.NewPool(len(tasks)).Execute(ctx, tasks)
	if err := async.FirstError(results); err != nil {
		return Statistics{}, err
	}
	if len(results) < len(tasks) {
		return Statistics{}, ctx.Err()
	}

	agg := results["aggregate"].Data.(AggregateTuple)
	buckets := results["visitsByDate"].Data.([]BucketCount)
	topUsers := results["topUsers"].Data.([]KeyCount)
	topModules := results["topModules"].Data.([]KeyCount)

	return g.assemble(ctx, f, agg, buckets, topUsers, topModules, true)
}

// generateBatched serves the MASSIVE tier with bounded memory: one pass of
// fixed-size pages accumulating every counter the report needs.
func (g *Generator) generateBatched(ctx context.Context, f Filter, batchSize int) (Statistics, error) {
	acc, err := g.processBatched(ctx, f, batchSize)
	if err != nil {
		return Statistics{}, err
	}

	return g.assemble(ctx, f,
		acc.aggregate(),
		acc.bucketCounts(),
		acc.topCounts(acc.userCounts, topLimit),
		acc.topCounts(acc.moduleCounts, topLimit),
		false)
}

// generatePartitioned serves the HUGE tier. The aggregate tuple comes from
// merged per-partition partials; the date series and top-N lists are
// grouped queries cheap enough to issue directly, joined with the
// partition work. Distinct users cannot be merged across partitions, so
// TotalUsers stays at the explicit zero placeholder (see PartialAggregate).
func (g *Generator) generatePartitioned(ctx context.Context, f Filter, sizeDays int) (Statistics, error) {
	hourly := f.SingleDay()

	tasks := []async.Task{
		{
			Name: "partials",
			Execute: func() (interface{}, error) {
				merged, err := g.processPartitioned(ctx, f, sizeDays)
				if err != nil {
					return nil, err
				}
				return merged, nil
			},
		},
		{
			Name: "visitsByDate",
			Execute: func() (interface{}, error) {
				return g.store.QueryGroupedByDate(ctx, f, hourly)
			},
		},
		{
			Name: "topUsers",
			Execute: func() (interface{}, error) {
				return g.store.QueryTopBy(ctx, f, GroupByUser, topLimit)
			},
		},
		{
			Name: "topModules",
			Execute: func() (interface{}, error) {
				return g.store.QueryTopBy(ctx, f, GroupByModule, topLimit)
			},
		},
	}

	results := async.NewPool(len(tasks)).Execute(ctx, tasks)
	if err := async.FirstError(results); err != nil {
		return Statistics{}, err
	}
	if len(results) < len(tasks) {
		return Statistics{}, ctx.Err()
	}

	merged := results["partials"].Data.(PartialAggregate)
	agg := AggregateTuple{
		TotalVisits: merged.Visits,
		TotalUsers:  0,
		AverageAge:  merged.AverageAge,
		Genders:     merged.Genders,
	}
	buckets := results["visitsByDate"].Data.([]BucketCount)
	topUsers := results["topUsers"].Data.([]KeyCount)
	topModules := results["topModules"].Data.([]KeyCount)

	return g.assemble(ctx, f, agg, buckets, topUsers, topModules, true)
}

// assemble turns the raw aggregates into the final statistics: date-bucket
// filling (hourly iff the range is a single day) and top-N name
// enrichment. modulesNamed indicates whether module names were already
// projected by the store's top query.
func (g *Generator) assemble(ctx context.Context, f Filter, agg AggregateTuple, buckets []BucketCount, topUsers, topModules []KeyCount, modulesNamed bool) (Statistics, error) {
	users, err := g.enrichTopUsers(ctx, topUsers)
	if err != nil {
		return Statistics{}, err
	}

	modules, err := g.enrichTopModules(ctx, topModules, modulesNamed)
	if err != nil {
		return Statistics{}, err
	}

	return Statistics{
		TotalVisits:          agg.TotalVisits,
		TotalUsers:           agg.TotalUsers,
		GenderDistribution:   agg.Genders,
		AgeRangeDistribution: agg.AgeRanges,
		AverageAge:           roundHalfUp(agg.AverageAge),
		VisitsByDate:         FillDateBuckets(buckets, f.From, f.To, f.SingleDay()),
		TopUsers:             users,
		TopModules:           modules,
	}, nil
}

func (g *Generator) enrichTopUsers(ctx context.Context, top []KeyCount) ([]TopUser, error) {
	if len(top) == 0 {
		return []TopUser{}, nil
	}

	ids := make([]uint, len(top))
	for i, kc := range top {
		ids[i] = kc.ID
	}

	names, err := g.names.ResolveUserNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving user names: %w", err)
	}

	users := make([]TopUser, len(top))
	for i, kc := range top {
		name, ok := names[kc.ID]
		if !ok || name == "" {
			name = UnknownUserName
		}
		users[i] = TopUser{UserID: kc.ID, UserName: name, VisitCount: kc.Count}
	}
	return users, nil
}

func (g *Generator) enrichTopModules(ctx context.Context, top []KeyCount, named bool) ([]TopModule, error) {
	if len(top) == 0 {
		return []TopModule{}, nil
	}

	var names map[uint]string
	if !named {
		ids := make([]uint, len(top))
		for i, kc := range top {
			ids[i] = kc.ID
		}
		var err error
		names, err = g.names.ResolveModuleNames(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolving module names: %w", err)
		}
	}

	modules := make([]TopModule, len(top))
	for i, kc := range top {
		name := kc.Name
		if !named {
			name = names[kc.ID]
		}
		modules[i] = TopModule{Name: name, VisitCount: kc.Count}
	}
	return modules, nil
}

// roundHalfUp rounds to the nearest integer with .5 rounding up. Ages are
// non-negative so math.Round's half-away-from-zero matches.
func roundHalfUp(v float64) int {
	return int(math.Round(v))
}
