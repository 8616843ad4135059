package visits

import (
	"context"
	"fmt"
	"time"

	"civitrack/internal/reports"
)

// HistoryEntry is one row of the visit history, with user and module
// names already resolved for display.
type HistoryEntry struct {
	ID         uint      `json:"id"`
	VisitedAt  time.Time `json:"visitedAt"`
	UserName   string    `json:"userName"`
	ModuleName string    `json:"moduleName"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
}

// HistoryPage is one page of history entries plus pagination metadata.
type HistoryPage struct {
	Items      []HistoryEntry `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
}

// History returns the visits matching the filter, newest first, paginated.
// Page is 1-based; visits without a linked user show the unknown-user
// placeholder and visits without a module show an empty module name.
func (s *Store) History(ctx context.Context, f reports.Filter, page, pageSize int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.CountMatching(ctx, f)
	if err != nil {
		return HistoryPage{}, err
	}

	where, args := compileFilter(f)
	query := `SELECT v.id, v.visited_at,
		COALESCE(u.name, ?) AS user_name,
		COALESCE(m.name, '') AS module_name,
		v.status, v.notes
	FROM ` + fromClause + `
	LEFT JOIN modules m ON m.id = v.module_id
	WHERE ` + where + `
	ORDER BY v.visited_at DESC, v.id DESC LIMIT ? OFFSET ?`

	queryArgs := append([]interface{}{reports.UnknownUserName}, args...)
	queryArgs = append(queryArgs, pageSize, (page-1)*pageSize)

	var items []HistoryEntry
	if err := s.db.WithContext(ctx).Raw(query, queryArgs...).Scan(&items).Error; err != nil {
		return HistoryPage{}, fmt.Errorf("fetching visit history: %w", err)
	}
	if items == nil {
		items = []HistoryEntry{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return HistoryPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}
