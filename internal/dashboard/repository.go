// AngelaMos | 2026
// repository.go

package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/core"
)

type Summary struct {
	TotalTenders  int     `db:"total_tenders" json:"total_tenders"`
	TotalValueGBP float64 `db:"total_value_gbp" json:"total_value_gbp"`
	AvgValueGBP   float64 `db:"avg_value_gbp" json:"avg_value_gbp"`
}

type GroupTotal struct {
	Label         string  `db:"label" json:"label"`
	Count         int     `db:"tender_count" json:"count"`
	TotalValueGBP float64 `db:"total_value_gbp" json:"total_value_gbp"`
}

type UpcomingDeadline struct {
	ID       string     `db:"tender_id" json:"id"`
	Title    string     `db:"title" json:"title"`
	Region   *string    `db:"region" json:"region,omitempty"`
	Sector   *string    `db:"sector" json:"sector,omitempty"`
	ValueGBP *float64   `db:"value_gbp" json:"value_gbp,omitempty"`
	Deadline *time.Time `db:"deadline" json:"deadline,omitempty"`
}

type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	TotalsByRegion(ctx context.Context) ([]GroupTotal, error)
	TotalsBySector(ctx context.Context) ([]GroupTotal, error)
	UpcomingDeadlines(
		ctx context.Context,
		now time.Time,
		window time.Duration,
		limit int,
	) ([]UpcomingDeadline, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	query := `
		SELECT
			COUNT(*)                          AS total_tenders,
			COALESCE(SUM(value_gbp), 0)      AS total_value_gbp,
			COALESCE(AVG(value_gbp), 0)      AS avg_value_gbp
		FROM tenders`

	var s Summary
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	return &s, nil
}

func (r *repository) TotalsByRegion(ctx context.Context) ([]GroupTotal, error) {
	return r.groupTotals(ctx, "region")
}

func (r *repository) TotalsBySector(ctx context.Context) ([]GroupTotal, error) {
	return r.groupTotals(ctx, "sector")
}

// groupTotals aggregates tender counts and value sums by a known
// grouping column. The column name is compile-time fixed by the two
// callers above, never user input.
func (r *repository) groupTotals(
	ctx context.Context,
	column string,
) ([]GroupTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			%s                               AS label,
			COUNT(*)                          AS tender_count,
			COALESCE(SUM(value_gbp), 0)      AS total_value_gbp
		FROM tenders
		WHERE %s IS NOT NULL AND %s <> ''
		GROUP BY %s
		ORDER BY total_value_gbp DESC`,
		column, column, column, column)

	totals := []GroupTotal{}
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("dashboard totals by %s: %w", column, err)
	}

	return totals, nil
}

func (r *repository) UpcomingDeadlines(
	ctx context.Context,
	now time.Time,
	window time.Duration,
	limit int,
) ([]UpcomingDeadline, error) {
	query := `
		SELECT tender_id, title, region, sector, value_gbp, deadline
		FROM tenders
		WHERE deadline IS NOT NULL
		  AND deadline >= $1
		  AND deadline <= $2
		ORDER BY deadline ASC
		LIMIT $3`

	rows := []UpcomingDeadline{}
	err := r.db.SelectContext(ctx, &rows, query, now, now.Add(window), limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard upcoming deadlines: %w", err)
	}

	return rows, nil
}
