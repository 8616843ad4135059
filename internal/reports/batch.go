package reports

import (
	"context"
	"fmt"
	"sort"
)

// bucket identifies one date (or date+hour) cell of the running series.
type bucket struct {
	date string
	hour int
}

// batchAccumulator holds the running counters for page-at-a-time
// processing. Memory stays bounded by one page plus these aggregates; the
// raw rows are never retained.
type batchAccumulator struct {
	hourly       bool
	visits       int64
	ageSum       float64
	ageCount     int64
	genders      GenderDistribution
	ageRanges    AgeRangeDistribution
	userCounts   map[uint]int64
	moduleCounts map[uint]int64
	buckets      map[bucket]int64
}

func newBatchAccumulator(hourly bool) *batchAccumulator {
	return &batchAccumulator{
		hourly:       hourly,
		userCounts:   make(map[uint]int64),
		moduleCounts: make(map[uint]int64),
		buckets:      make(map[bucket]int64),
	}
}

func (a *batchAccumulator) observe(row VisitRow) {
	a.visits++

	if row.UserID != nil {
		a.userCounts[*row.UserID]++
	}
	if row.ModuleID != nil {
		a.moduleCounts[*row.ModuleID]++
	}

	switch row.Gender {
	case "F":
		a.genders.F++
	case "M":
		a.genders.M++
	case "O":
		a.genders.O++
	}

	if row.Age != nil {
		a.ageSum += float64(*row.Age)
		a.ageCount++
		switch BracketFor(*row.Age) {
		case BracketInfancia:
			a.ageRanges.Infancia++
		case BracketJuventud:
			a.ageRanges.Juventud++
		case BracketAdultezJoven:
			a.ageRanges.AdultezJoven++
		case BracketAdultezMedia:
			a.ageRanges.AdultezMedia++
		case BracketVejez:
			a.ageRanges.Vejez++
		}
	}

	at := row.VisitedAt.UTC()
	key := bucket{date: at.Format(dateLayout)}
	if a.hourly {
		key.hour = at.Hour()
	}
	a.buckets[key]++
}

func (a *batchAccumulator) aggregate() AggregateTuple {
	agg := AggregateTuple{
		TotalVisits: a.visits,
		TotalUsers:  int64(len(a.userCounts)),
		Genders:     a.genders,
		AgeRanges:   a.ageRanges,
	}
	if a.ageCount > 0 {
		agg.AverageAge = a.ageSum / float64(a.ageCount)
	}
	return agg
}

func (a *batchAccumulator) bucketCounts() []BucketCount {
	counts := make([]BucketCount, 0, len(a.buckets))
	for b, n := range a.buckets {
		counts = append(counts, BucketCount{Date: b.date, Hour: b.hour, Count: n})
	}
	return counts
}

func (a *batchAccumulator) topCounts(counts map[uint]int64, limit int) []KeyCount {
	top := make([]KeyCount, 0, len(counts))
	for id, n := range counts {
		top = append(top, KeyCount{ID: id, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}

// processBatched pages through the filtered visits in stable id order,
// feeding the accumulator until a short or empty page signals exhaustion.
func (g *Generator) processBatched(ctx context.Context, f Filter, batchSize int) (*batchAccumulator, error) {
	acc := newBatchAccumulator(f.SingleDay())

	offset := 0
	for {
		page, err := g.store.QueryPage(ctx, f, offset, batchSize)
		if err != nil {
			return nil, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}
		for _, row := range page {
			acc.observe(row)
		}
		if len(page) < batchSize {
			return acc, nil
		}
		offset += batchSize
	}
}
