package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialMergeWeightedAverage(t *testing.T) {
	a := PartialAggregate{Visits: 100, AverageAge: 30, Genders: GenderDistribution{F: 60, M: 40}}
	b := PartialAggregate{Visits: 300, AverageAge: 50, Genders: GenderDistribution{F: 100, M: 150, O: 50}}

	merged := a.Merge(b)

	assert.Equal(t, int64(400), merged.Visits)
	// (30*100 + 50*300) / 400 = 45
	assert.InDelta(t, 45.0, merged.AverageAge, 1e-9)
	assert.Equal(t, GenderDistribution{F: 160, M: 190, O: 50}, merged.Genders)
}

func TestPartialMergeZeroIdentity(t *testing.T) {
	p := PartialAggregate{Visits: 10, AverageAge: 42, Genders: GenderDistribution{F: 10}}

	assert.Equal(t, p, PartialAggregate{}.Merge(p))
	assert.Equal(t, p, p.Merge(PartialAggregate{}))

	empty := PartialAggregate{}.Merge(PartialAggregate{})
	assert.Equal(t, int64(0), empty.Visits)
	assert.Equal(t, 0.0, empty.AverageAge)
}

func TestMergePartialsOrderIndependent(t *testing.T) {
	parts := []PartialAggregate{
		{Visits: 50, AverageAge: 20, Genders: GenderDistribution{F: 50}},
		{Visits: 150, AverageAge: 40, Genders: GenderDistribution{M: 150}},
		{Visits: 200, AverageAge: 60, Genders: GenderDistribution{O: 200}},
	}
	reversed := []PartialAggregate{parts[2], parts[1], parts[0]}

	forward := MergePartials(parts)
	backward := MergePartials(reversed)

	assert.Equal(t, forward.Visits, backward.Visits)
	assert.Equal(t, forward.Genders, backward.Genders)
	assert.InDelta(t, forward.AverageAge, backward.AverageAge, 1e-9)
}
