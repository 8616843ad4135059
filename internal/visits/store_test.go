package visits_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitrack/internal/reports"
	"civitrack/internal/testsupport"
	"civitrack/internal/visits"
)

// seedStore creates a small fixed dataset:
//
//	ana  (F, 30y at visit time): 2 visits to Biblioteca on Mar 1
//	luis (M, 70y at visit time): 1 visit to Deportes on Mar 2
//	one anonymous visit (no user) on Mar 2
//	one anulada visit by ana on Mar 3
func seedStore(t *testing.T) (*visits.Store, context.Context) {
	t.Helper()
	db := testsupport.SetupTestDB(t)
	testsupport.CleanTables(t, db, "visits", "users", "modules")

	ana := testsupport.CreateTestUser(t, db, "Ana Torres", visits.GenderFemale,
		time.Date(1995, time.January, 10, 0, 0, 0, 0, time.UTC))
	luis := testsupport.CreateTestUser(t, db, "Luis Perez", visits.GenderMale,
		time.Date(1955, time.January, 10, 0, 0, 0, 0, time.UTC))

	biblioteca := testsupport.CreateTestModule(t, db, "Biblioteca")
	deportes := testsupport.CreateTestModule(t, db, "Deportes")

	mar := func(dayOfMonth, hour int) time.Time {
		return time.Date(2025, time.March, dayOfMonth, hour, 0, 0, 0, time.UTC)
	}

	testsupport.CreateTestVisit(t, db, mar(1, 9), ana.ID, biblioteca.ID)
	testsupport.CreateTestVisit(t, db, mar(1, 16), ana.ID, biblioteca.ID)
	testsupport.CreateTestVisit(t, db, mar(2, 10), luis.ID, deportes.ID)
	testsupport.CreateTestVisit(t, db, mar(2, 11), 0, 0)

	anulada := testsupport.CreateTestVisit(t, db, mar(3, 12), ana.ID, biblioteca.ID)
	require.NoError(t, db.Model(&anulada).Update("status", visits.StatusAnulada).Error)

	return visits.NewStore(db), context.Background()
}

func marchFilter(t *testing.T, q reports.Query) reports.Filter {
	t.Helper()
	if q.StartDate.IsZero() {
		q.StartDate = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	if q.EndDate.IsZero() {
		q.EndDate = time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	}
	f, err := q.Normalize()
	require.NoError(t, err)
	return f
}

func TestCountMatching(t *testing.T) {
	store, ctx := seedStore(t)

	tests := []struct {
		name  string
		query reports.Query
		want  int64
	}{
		{"whole month", reports.Query{}, 5},
		{"single day", reports.Query{
			StartDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		}, 2},
		{"by gender", reports.Query{Gender: visits.GenderMale}, 1},
		{"by status", reports.Query{Status: visits.StatusRegistrada}, 4},
		{"by age bracket", reports.Query{AgeRange: "vejez"}, 1},
		{"bracket excludes anonymous", reports.Query{AgeRange: "adultez_joven"}, 3},
		{"no matches", reports.Query{Gender: visits.GenderOther}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.CountMatching(ctx, marchFilter(t, tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryAggregate(t *testing.T) {
	store, ctx := seedStore(t)

	agg, err := store.QueryAggregate(ctx, marchFilter(t, reports.Query{Status: visits.StatusRegistrada}))
	require.NoError(t, err)

	assert.Equal(t, int64(4), agg.TotalVisits)
	assert.Equal(t, int64(2), agg.TotalUsers)
	assert.Equal(t, reports.GenderDistribution{F: 2, M: 1}, agg.Genders)
	assert.Equal(t, int64(2), agg.AgeRanges.AdultezJoven)
	assert.Equal(t, int64(1), agg.AgeRanges.Vejez)
	// Ages at visit time: 30, 30, 70; the anonymous visit has no age.
	assert.InDelta(t, (30.0+30+70)/3, agg.AverageAge, 1e-9)
}

func TestQueryAggregateEmptyRange(t *testing.T) {
	store, ctx := seedStore(t)

	agg, err := store.QueryAggregate(ctx, marchFilter(t, reports.Query{
		StartDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, err)

	assert.Equal(t, int64(0), agg.TotalVisits)
	assert.Equal(t, 0.0, agg.AverageAge)
	assert.Equal(t, reports.GenderDistribution{}, agg.Genders)
}

func TestQueryGroupedByDate(t *testing.T) {
	store, ctx := seedStore(t)

	buckets, err := store.QueryGroupedByDate(ctx, marchFilter(t, reports.Query{}), false)
	require.NoError(t, err)

	require.Len(t, buckets, 3, "only days with visits appear")
	assert.Equal(t, reports.BucketCount{Date: "2025-03-01", Count: 2}, buckets[0])
	assert.Equal(t, reports.BucketCount{Date: "2025-03-02", Count: 2}, buckets[1])
	assert.Equal(t, reports.BucketCount{Date: "2025-03-03", Count: 1}, buckets[2])
}

func TestQueryGroupedByDateHourly(t *testing.T) {
	store, ctx := seedStore(t)

	f := marchFilter(t, reports.Query{
		StartDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	buckets, err := store.QueryGroupedByDate(ctx, f, true)
	require.NoError(t, err)

	require.Len(t, buckets, 2)
	assert.Equal(t, reports.BucketCount{Date: "2025-03-01", Hour: 9, Count: 1}, buckets[0])
	assert.Equal(t, reports.BucketCount{Date: "2025-03-01", Hour: 16, Count: 1}, buckets[1])
}

func TestQueryTopBy(t *testing.T) {
	store, ctx := seedStore(t)
	f := marchFilter(t, reports.Query{})

	topUsers, err := store.QueryTopBy(ctx, f, reports.GroupByUser, 10)
	require.NoError(t, err)
	require.Len(t, topUsers, 2, "anonymous visits are excluded")
	assert.Equal(t, int64(3), topUsers[0].Count)
	assert.Equal(t, int64(1), topUsers[1].Count)

	topModules, err := store.QueryTopBy(ctx, f, reports.GroupByModule, 10)
	require.NoError(t, err)
	require.Len(t, topModules, 2)
	assert.Equal(t, "Biblioteca", topModules[0].Name)
	assert.Equal(t, int64(3), topModules[0].Count)
	assert.Equal(t, "Deportes", topModules[1].Name)

	limited, err := store.QueryTopBy(ctx, f, reports.GroupByUser, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQueryPage(t *testing.T) {
	store, ctx := seedStore(t)
	f := marchFilter(t, reports.Query{})

	first, err := store.QueryPage(ctx, f, 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := store.QueryPage(ctx, f, 3, 3)
	require.NoError(t, err)
	require.Len(t, second, 2, "short page at the end")

	// Stable id order across pages, no duplicates.
	var lastID uint
	for _, row := range append(first, second...) {
		assert.Greater(t, row.ID, lastID)
		lastID = row.ID
	}

	// The joined columns are populated.
	assert.Equal(t, visits.GenderFemale, first[0].Gender)
	require.NotNil(t, first[0].Age)
	assert.Equal(t, 30, *first[0].Age)

	// Anonymous visit carries no gender or age.
	anon := second[0]
	assert.Nil(t, anon.UserID)
	assert.Empty(t, anon.Gender)
	assert.Nil(t, anon.Age)
}

func TestResolveNames(t *testing.T) {
	store, ctx := seedStore(t)

	users, err := store.ResolveUserNames(ctx, []uint{1, 2, 999})
	require.NoError(t, err)
	assert.Equal(t, "Ana Torres", users[1])
	assert.Equal(t, "Luis Perez", users[2])
	_, ok := users[999]
	assert.False(t, ok, "unknown ids are absent, not empty")

	modules, err := store.ResolveModuleNames(ctx, []uint{1})
	require.NoError(t, err)
	assert.Equal(t, "Biblioteca", modules[1])

	empty, err := store.ResolveUserNames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHistory(t *testing.T) {
	store, ctx := seedStore(t)
	f := marchFilter(t, reports.Query{})

	page, err := store.History(ctx, f, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 3)

	// Newest first.
	assert.True(t, page.Items[0].VisitedAt.After(page.Items[2].VisitedAt))
	assert.Equal(t, visits.StatusAnulada, page.Items[0].Status)

	second, err := store.History(ctx, f, 2, 3)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)

	// The anonymous visit shows the placeholder name.
	var foundAnon bool
	for _, item := range append(page.Items, second.Items...) {
		if item.UserName == reports.UnknownUserName {
			foundAnon = true
			assert.Empty(t, item.ModuleName)
		}
	}
	assert.True(t, foundAnon)
}
