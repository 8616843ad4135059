package visits

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"civitrack/internal/reports"
)

// Store runs the report engine's read queries against SQLite. It
// implements reports.Store and reports.NameResolver.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the shared GORM handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// fromClause joins visits to their users so that gender and age are
// available to every query. The left join keeps visits without a linked
// user in the result set.
const fromClause = "visits v LEFT JOIN users u ON u.id = v.user_id"

// compileFilter renders the filter as a conjunctive WHERE clause. Clauses
// are emitted in a fixed order so the generated SQL is deterministic for a
// given filter. The date range is half-open on the stored timestamp.
func compileFilter(f reports.Filter) (string, []interface{}) {
	clauses := []string{"v.visited_at >= ? AND v.visited_at < ?"}
	args := []interface{}{f.From, f.ToExclusive()}

	if f.Gender != "" {
		clauses = append(clauses, "u.gender = ?")
		args = append(args, f.Gender)
	}
	if f.HasAgeFilter() {
		clauses = append(clauses, "u.birthday IS NOT NULL")
		if f.MinAge != nil {
			clauses = append(clauses, ageExpr+" >= ?")
			args = append(args, *f.MinAge)
		}
		if f.MaxAge != nil {
			clauses = append(clauses, ageExpr+" <= ?")
			args = append(args, *f.MaxAge)
		}
	}
	if f.UserID != 0 {
		clauses = append(clauses, "v.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.ModuleID != 0 {
		clauses = append(clauses, "v.module_id = ?")
		args = append(args, f.ModuleID)
	}
	if f.Status != "" {
		clauses = append(clauses, "v.status = ?")
		args = append(args, f.Status)
	}

	return strings.Join(clauses, " AND "), args
}

// CountMatching returns the number of visits matching the filter.
func (s *Store) CountMatching(ctx context.Context, f reports.Filter) (int64, error) {
	where, args := compileFilter(f)

	var count int64
	err := s.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM "+fromClause+" WHERE "+where, args...).
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return count, nil
}

// QueryAggregate computes the whole aggregate tuple in one pass over the
// filtered visits. Gender and age projections count only rows where the
// value is resolvable, so the distribution totals may be lower than the
// visit count.
func (s *Store) QueryAggregate(ctx context.Context, f reports.Filter) (reports.AggregateTuple, error) {
	where, args := compileFilter(f)

	query := `SELECT
		COUNT(*) AS total_visits,
		COUNT(DISTINCT v.user_id) AS total_users,
		AVG(` + ageExpr + `) AS average_age,
		SUM(CASE WHEN u.gender = 'F' THEN 1 ELSE 0 END) AS gender_f,
		SUM(CASE WHEN u.gender = 'M' THEN 1 ELSE 0 END) AS gender_m,
		SUM(CASE WHEN u.gender = 'O' THEN 1 ELSE 0 END) AS gender_o,
		SUM(CASE WHEN ` + ageExpr + ` BETWEEN 0 AND 14 THEN 1 ELSE 0 END) AS age_infancia,
		SUM(CASE WHEN ` + ageExpr + ` BETWEEN 15 AND 24 THEN 1 ELSE 0 END) AS age_juventud,
		SUM(CASE WHEN ` + ageExpr + ` BETWEEN 25 AND 44 THEN 1 ELSE 0 END) AS age_adultez_joven,
		SUM(CASE WHEN ` + ageExpr + ` BETWEEN 45 AND 64 THEN 1 ELSE 0 END) AS age_adultez_media,
		SUM(CASE WHEN ` + ageExpr + ` >= 65 THEN 1 ELSE 0 END) AS age_vejez
	FROM ` + fromClause + ` WHERE ` + where

	var row struct {
		TotalVisits     int64
		TotalUsers      int64
		AverageAge      *float64
		GenderF         *int64
		GenderM         *int64
		GenderO         *int64
		AgeInfancia     *int64
		AgeJuventud     *int64
		AgeAdultezJoven *int64
		AgeAdultezMedia *int64
		AgeVejez        *int64
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return reports.AggregateTuple{}, fmt.Errorf("aggregating visits: %w", err)
	}

	agg := reports.AggregateTuple{
		TotalVisits: row.TotalVisits,
		TotalUsers:  row.TotalUsers,
		Genders: reports.GenderDistribution{
			F: orZero(row.GenderF),
			M: orZero(row.GenderM),
			O: orZero(row.GenderO),
		},
		AgeRanges: reports.AgeRangeDistribution{
			Infancia:     orZero(row.AgeInfancia),
			Juventud:     orZero(row.AgeJuventud),
			AdultezJoven: orZero(row.AgeAdultezJoven),
			AdultezMedia: orZero(row.AgeAdultezMedia),
			Vejez:        orZero(row.AgeVejez),
		},
	}
	if row.AverageAge != nil {
		agg.AverageAge = *row.AverageAge
	}
	return agg, nil
}

// QueryGroupedByDate returns sparse per-day counts, or per-day-per-hour
// counts in hourly mode. Days (and hours) with no visits are absent; the
// report engine fills the gaps.
func (s *Store) QueryGroupedByDate(ctx context.Context, f reports.Filter, hourly bool) ([]reports.BucketCount, error) {
	where, args := compileFilter(f)

	var query string
	if hourly {
		query = `SELECT strftime('%Y-%m-%d', v.visited_at) AS date,
			CAST(strftime('%H', v.visited_at) AS INTEGER) AS hour,
			COUNT(*) AS count
		FROM ` + fromClause + ` WHERE ` + where + `
		GROUP BY date, hour ORDER BY date, hour`
	} else {
		query = `SELECT strftime('%Y-%m-%d', v.visited_at) AS date,
			COUNT(*) AS count
		FROM ` + fromClause + ` WHERE ` + where + `
		GROUP BY date ORDER BY date`
	}

	var buckets []reports.BucketCount
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("grouping visits by date: %w", err)
	}
	return buckets, nil
}

// QueryTopBy returns the most frequent users or modules within the filter,
// ordered by count descending with ascending id as tiebreak. Module rows
// carry the module name; user names are resolved separately.
func (s *Store) QueryTopBy(ctx context.Context, f reports.Filter, key reports.GroupKey, limit int) ([]reports.KeyCount, error) {
	where, args := compileFilter(f)

	var query string
	switch key {
	case reports.GroupByUser:
		query = `SELECT v.user_id AS id, COUNT(*) AS count
		FROM ` + fromClause + ` WHERE ` + where + ` AND v.user_id IS NOT NULL
		GROUP BY v.user_id ORDER BY count DESC, id ASC LIMIT ?`
	case reports.GroupByModule:
		query = `SELECT v.module_id AS id, m.name AS name, COUNT(*) AS count
		FROM ` + fromClause + `
		JOIN modules m ON m.id = v.module_id
		WHERE ` + where + `
		GROUP BY v.module_id, m.name ORDER BY count DESC, id ASC LIMIT ?`
	default:
		return nil, fmt.Errorf("unknown group key: %s", key)
	}
	args = append(args, limit)

	var top []reports.KeyCount
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&top).Error; err != nil {
		return nil, fmt.Errorf("grouping visits by %s: %w", key, err)
	}
	return top, nil
}

// QueryPage returns one page of matching visits in stable id order, with
// gender and age already joined in for the batch accumulator.
func (s *Store) QueryPage(ctx context.Context, f reports.Filter, offset, limit int) ([]reports.VisitRow, error) {
	where, args := compileFilter(f)

	query := `SELECT v.id, v.visited_at, v.user_id, v.module_id,
		COALESCE(u.gender, '') AS gender,
		` + ageExpr + ` AS age
	FROM ` + fromClause + ` WHERE ` + where + `
	ORDER BY v.id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var rows []reports.VisitRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("paging visits at offset %d: %w", offset, err)
	}
	return rows, nil
}

// ResolveUserNames maps user ids to names. Ids with no matching user are
// simply absent from the result.
func (s *Store) ResolveUserNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	return s.resolveNames(ctx, "users", ids)
}

// ResolveModuleNames maps module ids to names.
func (s *Store) ResolveModuleNames(ctx context.Context, ids []uint) (map[uint]string, error) {
	return s.resolveNames(ctx, "modules", ids)
}

func (s *Store) resolveNames(ctx context.Context, table string, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID   uint
		Name string
	}
	err := s.db.WithContext(ctx).
		Table(table).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("resolving %s names: %w", table, err)
	}

	for _, r := range rows {
		names[r.ID] = r.Name
	}
	return names, nil
}

func orZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
