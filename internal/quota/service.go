// AngelaMos | 2026
// service.go

package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/core"
)

type Service struct {
	repo     Repository
	defaults config.QuotaConfig
	now      func() time.Time
}

func NewService(repo Repository, defaults config.QuotaConfig) *Service {
	return &Service{
		repo:     repo,
		defaults: defaults,
		now:      time.Now,
	}
}

// CheckAndReserve loads (creating lazily if needed) the subscriber's usage
// record, applies the month rollover, and reports whether another search is
// allowed. It never increments the counter; callers invoke RecordUsage only
// after a search actually succeeded, so failed searches cost nothing.
//
// Any store failure surfaces as core.ErrQuotaUnknown rather than an implicit
// allow or deny.
func (s *Service) CheckAndReserve(
	ctx context.Context,
	userKey string,
) (*Status, error) {
	rec, err := s.loadOrCreate(ctx, userKey)
	if err != nil {
		return nil, err
	}

	currentMonth := MonthStart(s.now())
	if !MonthStart(rec.LastReset).Equal(currentMonth) {
		// Persist the reset before deciding, so a crash between the reset
		// and the decision never leaves a stale counter in place.
		if resetErr := s.repo.ResetMonth(ctx, userKey, currentMonth); resetErr != nil {
			return nil, fmt.Errorf(
				"check quota for %s: %w: %w",
				userKey,
				core.ErrQuotaUnknown,
				resetErr,
			)
		}
		rec.SearchesUsed = 0
		rec.LastReset = currentMonth
	}

	limit := s.effectiveQuota(rec)

	return &Status{
		Allowed: limit > 0 && rec.SearchesUsed < limit,
		Used:    rec.SearchesUsed,
		Quota:   limit,
		Plan:    rec.Plan,
	}, nil
}

// RecordUsage adds one accepted search to the counter. It re-reads the
// current value immediately before writing; concurrent callers race with
// last-writer-wins semantics, which is acceptable for an advisory quota.
func (s *Service) RecordUsage(ctx context.Context, userKey string) error {
	rec, err := s.repo.GetByUserKey(ctx, normalizeKey(userKey))
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	if err := s.repo.SetSearchesUsed(ctx, rec.UserKey, rec.SearchesUsed+1); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	return nil
}

// Get reports current usage without reserving anything. The lazy month
// rollover still applies so a stale record reads as fresh.
func (s *Service) Get(ctx context.Context, userKey string) (*Status, error) {
	return s.CheckAndReserve(ctx, userKey)
}

func (s *Service) SetPlan(
	ctx context.Context,
	userKey, plan string,
) (*Status, error) {
	if !ValidPlan(plan) {
		return nil, fmt.Errorf(
			"set plan: invalid plan %q: %w",
			plan,
			core.ErrInvalidInput,
		)
	}

	// Plan grants may arrive before the subscriber's first search.
	if _, err := s.loadOrCreate(ctx, userKey); err != nil {
		return nil, err
	}

	// Changing plan clears any explicit ceiling; the new plan's default
	// takes over.
	if err := s.repo.SetPlan(ctx, normalizeKey(userKey), plan, nil); err != nil {
		return nil, err
	}

	return s.Get(ctx, userKey)
}

func (s *Service) SetQuota(
	ctx context.Context,
	userKey string,
	quota int,
) (*Status, error) {
	if quota < 0 {
		return nil, fmt.Errorf(
			"set quota: must not be negative: %w",
			core.ErrInvalidInput,
		)
	}

	if _, err := s.loadOrCreate(ctx, userKey); err != nil {
		return nil, err
	}

	if err := s.repo.SetQuota(ctx, normalizeKey(userKey), quota); err != nil {
		return nil, err
	}

	return s.Get(ctx, userKey)
}

func (s *Service) loadOrCreate(
	ctx context.Context,
	userKey string,
) (*UsageRecord, error) {
	key := normalizeKey(userKey)

	rec, err := s.repo.GetByUserKey(ctx, key)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf(
			"check quota for %s: %w: %w",
			key,
			core.ErrQuotaUnknown,
			err,
		)
	}

	rec = &UsageRecord{
		UserKey:      key,
		Plan:         PlanFree,
		SearchesUsed: 0,
		LastReset:    MonthStart(s.now()),
	}

	if createErr := s.repo.Create(ctx, rec); createErr != nil {
		// A concurrent request may have created the row first.
		if errors.Is(createErr, core.ErrDuplicateKey) {
			existing, getErr := s.repo.GetByUserKey(ctx, key)
			if getErr != nil {
				return nil, fmt.Errorf(
					"check quota for %s: %w: %w",
					key,
					core.ErrQuotaUnknown,
					getErr,
				)
			}
			return existing, nil
		}
		return nil, fmt.Errorf(
			"check quota for %s: %w: %w",
			key,
			core.ErrQuotaUnknown,
			createErr,
		)
	}

	return rec, nil
}

func (s *Service) effectiveQuota(rec *UsageRecord) int {
	if rec.Quota != nil {
		return *rec.Quota
	}

	if rec.Plan == PlanPro {
		return s.defaults.ProMonthly
	}
	return s.defaults.FreeMonthly
}

func normalizeKey(userKey string) string {
	return strings.ToLower(strings.TrimSpace(userKey))
}
