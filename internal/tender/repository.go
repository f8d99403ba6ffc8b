// AngelaMos | 2026
// repository.go

package tender

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/anujtyagi85/cleanintel-loader/internal/core"
)

type Repository interface {
	SearchCandidates(
		ctx context.Context,
		query string,
		limit int,
	) ([]Tender, error)
	GetByID(ctx context.Context, tenderID string) (*Tender, error)
	List(ctx context.Context, params ListParams) ([]Tender, int, error)
	Upsert(ctx context.Context, t *Tender) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const tenderColumns = `tender_id, title, description, buyer, value_gbp,
		       currency, region, sector, tender_status, notice_url,
		       published_date, deadline, created_at, updated_at`

// SearchCandidates does the broad keyword pass across title, description
// and buyer. Scoring and ordering happen in Rank; this only bounds the
// candidate set, newest first.
func (r *repository) SearchCandidates(
	ctx context.Context,
	query string,
	limit int,
) ([]Tender, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	q := fmt.Sprintf(`
		SELECT %s
		FROM tenders
		WHERE title ILIKE $1
		   OR description ILIKE $1
		   OR buyer::text ILIKE $1
		ORDER BY published_date DESC NULLS LAST
		LIMIT $2`, tenderColumns)

	var tenders []Tender
	if err := r.db.SelectContext(ctx, &tenders, q, pattern, limit); err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}

	return tenders, nil
}

func (r *repository) GetByID(
	ctx context.Context,
	tenderID string,
) (*Tender, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM tenders
		WHERE tender_id = $1`, tenderColumns)

	var t Tender
	err := r.db.GetContext(ctx, &t, q, tenderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get tender: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tender: %w", err)
	}

	return &t, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Tender, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Region != "" {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argIdx))
		args = append(args, params.Region)
		argIdx++
	}

	if params.Sector != "" {
		conditions = append(conditions, fmt.Sprintf("sector = $%d", argIdx))
		args = append(args, params.Sector)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(
			conditions,
			fmt.Sprintf("tender_status = $%d", argIdx),
		)
		args = append(args, params.Status)
		argIdx++
	}

	if params.MinValue != nil {
		conditions = append(conditions, fmt.Sprintf(
			"COALESCE(value_gbp, 0) >= $%d", argIdx))
		args = append(args, *params.MinValue)
		argIdx++
	}

	if params.MaxValue != nil {
		conditions = append(conditions, fmt.Sprintf(
			"COALESCE(value_gbp, 0) <= $%d", argIdx))
		args = append(args, *params.MaxValue)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM tenders WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tenders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tenders
		WHERE %s
		ORDER BY published_date DESC NULLS LAST
		LIMIT $%d OFFSET $%d`,
		tenderColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var tenders []Tender
	if err := r.db.SelectContext(ctx, &tenders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tenders: %w", err)
	}

	return tenders, total, nil
}

// Upsert inserts or refreshes a tender keyed on tender_id so repeated feed
// runs update in place instead of duplicating.
func (r *repository) Upsert(ctx context.Context, t *Tender) error {
	query := `
		INSERT INTO tenders (tender_id, title, description, buyer, value_gbp,
		                     currency, region, sector, tender_status,
		                     notice_url, published_date, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (tender_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			buyer = EXCLUDED.buyer,
			value_gbp = EXCLUDED.value_gbp,
			currency = EXCLUDED.currency,
			region = EXCLUDED.region,
			sector = EXCLUDED.sector,
			tender_status = EXCLUDED.tender_status,
			notice_url = EXCLUDED.notice_url,
			published_date = EXCLUDED.published_date,
			deadline = EXCLUDED.deadline,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Buyer,
		t.Value,
		t.Currency,
		t.Region,
		t.Sector,
		t.Status,
		t.NoticeURL,
		t.PublishedAt,
		t.Deadline,
	)
	if err != nil {
		return fmt.Errorf("upsert tender %s: %w", t.ID, err)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
