package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNormalizeRejectsInvertedRange(t *testing.T) {
	q := Query{
		StartDate: day("2025-03-10"),
		EndDate:   day("2025-03-01"),
	}

	_, err := q.Normalize()
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestNormalizeTruncatesToUTCDays(t *testing.T) {
	q := Query{
		StartDate: time.Date(2025, time.March, 1, 18, 30, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 3, 2, 15, 0, 0, time.UTC),
	}

	f, err := q.Normalize()
	require.NoError(t, err)
	assert.Equal(t, day("2025-03-01"), f.From)
	assert.Equal(t, day("2025-03-03"), f.To)
	assert.Equal(t, day("2025-03-04"), f.ToExclusive())
	assert.False(t, f.SingleDay())
	assert.Equal(t, 2, f.SpanDays())
}

func TestNormalizeAgeBracket(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		wantMin  *int
		wantMax  *int
		wantAged bool
	}{
		{
			name:     "bracket alone",
			query:    Query{AgeRange: "juventud"},
			wantMin:  intPtr(15),
			wantMax:  intPtr(24),
			wantAged: true,
		},
		{
			name:     "explicit bounds narrow the bracket",
			query:    Query{AgeRange: "adultez_joven", MinAge: intPtr(30), MaxAge: intPtr(40)},
			wantMin:  intPtr(30),
			wantMax:  intPtr(40),
			wantAged: true,
		},
		{
			name:     "bracket narrows loose explicit bounds",
			query:    Query{AgeRange: "vejez", MinAge: intPtr(10), MaxAge: intPtr(200)},
			wantMin:  intPtr(65),
			wantMax:  intPtr(120),
			wantAged: true,
		},
		{
			name:     "unknown bracket is ignored",
			query:    Query{AgeRange: "tercera_edad"},
			wantMin:  nil,
			wantMax:  nil,
			wantAged: false,
		},
		{
			name:     "no age filters at all",
			query:    Query{},
			wantMin:  nil,
			wantMax:  nil,
			wantAged: false,
		},
	}

	base := day("2025-01-01")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.StartDate = base
			tt.query.EndDate = base

			f, err := tt.query.Normalize()
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, f.MinAge)
			assert.Equal(t, tt.wantMax, f.MaxAge)
			assert.Equal(t, tt.wantAged, f.HasAgeFilter())
		})
	}
}

func TestCacheKeyDefaults(t *testing.T) {
	f, err := Query{StartDate: day("2025-03-01"), EndDate: day("2025-03-31")}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, "report_2025-03-01_2025-03-31_all_all_all_all_all_all", f.CacheKey())
}

func TestCacheKeyCarriesFilters(t *testing.T) {
	f, err := Query{
		StartDate: day("2025-03-01"),
		EndDate:   day("2025-03-31"),
		Gender:    "F",
		MinAge:    intPtr(18),
		MaxAge:    intPtr(65),
		UserID:    7,
		ModuleID:  3,
		Status:    "registrada",
	}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, "report_2025-03-01_2025-03-31_F_18_65_7_3_registrada", f.CacheKey())
}

func TestCacheKeyFoldsBracketIntoBounds(t *testing.T) {
	explicit, err := Query{
		StartDate: day("2025-03-01"),
		EndDate:   day("2025-03-31"),
		MinAge:    intPtr(15),
		MaxAge:    intPtr(24),
	}.Normalize()
	require.NoError(t, err)

	byBracket, err := Query{
		StartDate: day("2025-03-01"),
		EndDate:   day("2025-03-31"),
		AgeRange:  "juventud",
	}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, explicit.CacheKey(), byBracket.CacheKey(),
		"equivalent age filters share a cache key")
}

func TestBracketFor(t *testing.T) {
	tests := []struct {
		age  int
		want AgeBracket
	}{
		{0, BracketInfancia},
		{14, BracketInfancia},
		{15, BracketJuventud},
		{24, BracketJuventud},
		{25, BracketAdultezJoven},
		{44, BracketAdultezJoven},
		{45, BracketAdultezMedia},
		{64, BracketAdultezMedia},
		{65, BracketVejez},
		{120, BracketVejez},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BracketFor(tt.age), "age %d", tt.age)
	}
}

func TestParseAgeBracket(t *testing.T) {
	b, ok := ParseAgeBracket("adultez_media")
	assert.True(t, ok)
	minAge, maxAge := b.Bounds()
	assert.Equal(t, 45, minAge)
	assert.Equal(t, 64, maxAge)

	_, ok = ParseAgeBracket("")
	assert.False(t, ok)
	_, ok = ParseAgeBracket("ADULTEZ_MEDIA")
	assert.False(t, ok, "bracket names are case sensitive")
}
