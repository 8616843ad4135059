package reports

// PartialAggregate is the per-partition aggregate computed by the
// partitioned processor. It is deliberately narrower than AggregateTuple:
// a distinct-user count cannot be reconstructed from two partial counts
// (a user visiting in both partitions would be double-counted), and age
// brackets are not carried by the partition query, so neither field exists
// here. The merged report carries TotalUsers = 0 for this path.
type PartialAggregate struct {
	Visits     int64
	AverageAge float64
	Genders    GenderDistribution
}

// Merge combines two partial aggregates. The merged average age is the
// count-weighted mean; gender counts sum directly. Merge is associative
// and commutative (up to float rounding), so partitions may be combined
// in any order.
func (p PartialAggregate) Merge(o PartialAggregate) PartialAggregate {
	total := p.Visits + o.Visits
	merged := PartialAggregate{
		Visits:  total,
		Genders: p.Genders.Add(o.Genders),
	}
	if total > 0 {
		merged.AverageAge = (p.AverageAge*float64(p.Visits) + o.AverageAge*float64(o.Visits)) / float64(total)
	}
	return merged
}

// partialFromAggregate projects a full aggregate tuple down to the
// mergeable subset.
func partialFromAggregate(agg AggregateTuple) PartialAggregate {
	return PartialAggregate{
		Visits:     agg.TotalVisits,
		AverageAge: agg.AverageAge,
		Genders:    agg.Genders,
	}
}

// MergePartials folds a slice of partials into one. The zero
// PartialAggregate is the identity.
func MergePartials(partials []PartialAggregate) PartialAggregate {
	var merged PartialAggregate
	for _, p := range partials {
		merged = merged.Merge(p)
	}
	return merged
}
