// AngelaMos | 2026
// repository.go

package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/anujtyagi85/cleanintel-loader/internal/core"
)

type Repository interface {
	GetByUserKey(ctx context.Context, userKey string) (*UsageRecord, error)
	Create(ctx context.Context, rec *UsageRecord) error
	ResetMonth(
		ctx context.Context,
		userKey string,
		monthStart time.Time,
	) error
	SetSearchesUsed(ctx context.Context, userKey string, used int) error
	SetPlan(ctx context.Context, userKey, plan string, quota *int) error
	SetQuota(ctx context.Context, userKey string, quota int) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserKey(
	ctx context.Context,
	userKey string,
) (*UsageRecord, error) {
	query := `
		SELECT user_key, plan, searches_used, monthly_quota, last_reset,
		       created_at, updated_at
		FROM user_usage
		WHERE user_key = $1`

	var rec UsageRecord
	err := r.db.GetContext(ctx, &rec, query, userKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get usage: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}

	return &rec, nil
}

func (r *repository) Create(ctx context.Context, rec *UsageRecord) error {
	query := `
		INSERT INTO user_usage (user_key, plan, searches_used, monthly_quota, last_reset)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, rec, query,
		rec.UserKey,
		rec.Plan,
		rec.SearchesUsed,
		rec.Quota,
		rec.LastReset,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create usage: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create usage: %w", err)
	}

	return nil
}

func (r *repository) ResetMonth(
	ctx context.Context,
	userKey string,
	monthStart time.Time,
) error {
	query := `
		UPDATE user_usage
		SET searches_used = 0, last_reset = $2, updated_at = NOW()
		WHERE user_key = $1`

	result, err := r.db.ExecContext(ctx, query, userKey, monthStart)
	if err != nil {
		return fmt.Errorf("reset month: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset month: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("reset month: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetSearchesUsed(
	ctx context.Context,
	userKey string,
	used int,
) error {
	query := `
		UPDATE user_usage
		SET searches_used = $2, updated_at = NOW()
		WHERE user_key = $1`

	result, err := r.db.ExecContext(ctx, query, userKey, used)
	if err != nil {
		return fmt.Errorf("set searches used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set searches used: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set searches used: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetPlan(
	ctx context.Context,
	userKey, plan string,
	quota *int,
) error {
	query := `
		UPDATE user_usage
		SET plan = $2, monthly_quota = $3, updated_at = NOW()
		WHERE user_key = $1`

	result, err := r.db.ExecContext(ctx, query, userKey, plan, quota)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set plan: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetQuota(
	ctx context.Context,
	userKey string,
	quota int,
) error {
	query := `
		UPDATE user_usage
		SET monthly_quota = $2, updated_at = NOW()
		WHERE user_key = $1`

	result, err := r.db.ExecContext(ctx, query, userKey, quota)
	if err != nil {
		return fmt.Errorf("set quota: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set quota: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set quota: %w", core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
