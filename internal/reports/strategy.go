package reports

import "time"

// Tier classifies a query's matching dataset size and selects the
// processing strategy.
type Tier int

const (
	TierSmall Tier = iota
	TierMedium
	TierLarge
	TierMassive
	TierHuge
)

// Dataset size thresholds, inclusive upper bounds of each tier.
const (
	smallDatasetMax   = 1_000
	mediumDatasetMax  = 5_000
	largeDatasetMax   = 25_000
	massiveDatasetMax = 100_000
)

func (t Tier) String() string {
	switch t {
	case TierSmall:
		return "SMALL"
	case TierMedium:
		return "MEDIUM"
	case TierLarge:
		return "LARGE"
	case TierMassive:
		return "MASSIVE"
	case TierHuge:
		return "HUGE"
	default:
		return "UNKNOWN"
	}
}

// SelectTier classifies a dataset size into its processing tier.
func SelectTier(datasetSize int64) Tier {
	switch {
	case datasetSize <= smallDatasetMax:
		return TierSmall
	case datasetSize <= mediumDatasetMax:
		return TierMedium
	case datasetSize <= largeDatasetMax:
		return TierLarge
	case datasetSize <= massiveDatasetMax:
		return TierMassive
	default:
		return TierHuge
	}
}

// AdaptiveBatchSize returns the page size used by batched processing for
// the tier.
func AdaptiveBatchSize(t Tier) int {
	switch t {
	case TierSmall, TierMedium:
		return 500
	case TierLarge:
		return 1000
	case TierMassive:
		return 2500
	default:
		return 5000
	}
}

// OptimalPartitionSizeDays returns the partition length in days for the
// given range. Larger ranges amortize partition overhead with coarser
// buckets.
func OptimalPartitionSizeDays(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	switch {
	case days <= 30:
		return 7
	case days <= 90:
		return 15
	case days <= 365:
		return 30
	default:
		return 60
	}
}

// RecommendedTimeout returns the advisory processing timeout for the tier.
// The engine does not enforce it; it is surfaced for an outer layer (e.g.
// HTTP) to apply.
func RecommendedTimeout(t Tier) time.Duration {
	switch t {
	case TierSmall, TierMedium:
		return 10 * time.Second
	case TierLarge:
		return 30 * time.Second
	case TierMassive:
		return 60 * time.Second
	default:
		return 120 * time.Second
	}
}

// RecommendedMemoryLimit returns the advisory memory budget in bytes for
// the tier. Advisory only, like RecommendedTimeout.
func RecommendedMemoryLimit(t Tier) int64 {
	switch t {
	case TierSmall:
		return 10 << 20
	case TierMedium:
		return 25 << 20
	case TierLarge:
		return 50 << 20
	case TierMassive:
		return 100 << 20
	default:
		return 200 << 20
	}
}
