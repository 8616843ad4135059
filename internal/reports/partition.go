package reports

import (
	"context"
	"fmt"

	"civitrack/internal/pkg/async"
)

// partitionWorkers bounds how many partition queries run at once.
const partitionWorkers = 4

// splitRange cuts [f.From, f.To] into contiguous, non-overlapping
// sub-filters of at most sizeDays days each, the last one truncated to the
// range end. Every other filter field is inherited unchanged.
func splitRange(f Filter, sizeDays int) []Filter {
	var parts []Filter
	for start := f.From; !start.After(f.To); start = start.AddDate(0, 0, sizeDays) {
		end := start.AddDate(0, 0, sizeDays-1)
		if end.After(f.To) {
			end = f.To
		}
		part := f
		part.From = start
		part.To = end
		parts = append(parts, part)
	}
	return parts
}

// processPartitioned computes one partial aggregate per sub-range,
// concurrently, and merges them. Partitions are independent read-only
// queries, so ordering between them is irrelevant; the pool joins all of
// them before the merge.
func (g *Generator) processPartitioned(ctx context.Context, f Filter, sizeDays int) (PartialAggregate, error) {
	parts := splitRange(f, sizeDays)

	tasks := make([]async.Task, len(parts))
	for i, part := range parts {
		part := part
		tasks[i] = async.Task{
			Name: fmt.Sprintf("partition_%d", i),
			Execute: func() (interface{}, error) {
				agg, err := g.store.QueryAggregate(ctx, part)
				if err != nil {
					return nil, fmt.Errorf("aggregating partition %s..%s: %w",
						part.From.Format(dateLayout), part.To.Format(dateLayout), err)
				}
				return partialFromAggregate(agg), nil
			},
		}
	}

	results := async.NewPool(partitionWorkers).Execute(ctx, tasks)
	if err := async.FirstError(results); err != nil {
		return PartialAggregate{}, err
	}
	if len(results) < len(tasks) {
		return PartialAggregate{}, ctx.Err()
	}

	partials := make([]PartialAggregate, 0, len(results))
	for _, r := range results {
		partials = append(partials, r.Data.(PartialAggregate))
	}
	return MergePartials(partials), nil
}
