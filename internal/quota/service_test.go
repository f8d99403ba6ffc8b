// AngelaMos | 2026
// service_test.go

package quota

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/core"
)

type fakeRepo struct {
	records map[string]*UsageRecord
	failAll bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*UsageRecord)}
}

func (f *fakeRepo) GetByUserKey(
	_ context.Context,
	userKey string,
) (*UsageRecord, error) {
	if f.failAll {
		return nil, fmt.Errorf("store down")
	}
	rec, ok := f.records[userKey]
	if !ok {
		return nil, fmt.Errorf("get usage: %w", core.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, rec *UsageRecord) error {
	if f.failAll {
		return fmt.Errorf("store down")
	}
	if _, ok := f.records[rec.UserKey]; ok {
		return fmt.Errorf("create usage: %w", core.ErrDuplicateKey)
	}
	cp := *rec
	f.records[rec.UserKey] = &cp
	return nil
}

func (f *fakeRepo) ResetMonth(
	_ context.Context,
	userKey string,
	monthStart time.Time,
) error {
	if f.failAll {
		return fmt.Errorf("store down")
	}
	rec, ok := f.records[userKey]
	if !ok {
		return fmt.Errorf("reset month: %w", core.ErrNotFound)
	}
	rec.SearchesUsed = 0
	rec.LastReset = monthStart
	return nil
}

func (f *fakeRepo) SetSearchesUsed(
	_ context.Context,
	userKey string,
	used int,
) error {
	rec, ok := f.records[userKey]
	if !ok {
		return fmt.Errorf("set searches used: %w", core.ErrNotFound)
	}
	rec.SearchesUsed = used
	return nil
}

func (f *fakeRepo) SetPlan(
	_ context.Context,
	userKey, plan string,
	quota *int,
) error {
	rec, ok := f.records[userKey]
	if !ok {
		return fmt.Errorf("set plan: %w", core.ErrNotFound)
	}
	rec.Plan = plan
	rec.Quota = quota
	return nil
}

func (f *fakeRepo) SetQuota(
	_ context.Context,
	userKey string,
	quota int,
) error {
	rec, ok := f.records[userKey]
	if !ok {
		return fmt.Errorf("set quota: %w", core.ErrNotFound)
	}
	rec.Quota = &quota
	return nil
}

func newTestService(repo Repository, now time.Time) *Service {
	svc := NewService(repo, config.QuotaConfig{FreeMonthly: 5, ProMonthly: 500})
	svc.now = func() time.Time { return now }
	return svc
}

func TestCheckAndReserveCreatesFreeRecord(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.CheckAndReserve(context.Background(), "Ann@Example.com")
	if err != nil {
		t.Fatalf("CheckAndReserve error = %v", err)
	}

	if !status.Allowed || status.Used != 0 || status.Quota != 5 ||
		status.Plan != PlanFree {
		t.Fatalf("fresh record status = %+v, want allowed 0/5 free", status)
	}

	rec, ok := repo.records["ann@example.com"]
	if !ok {
		t.Fatalf("record not created under normalized key")
	}
	if !rec.LastReset.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("last_reset = %v, want first of month", rec.LastReset)
	}
}

func TestQuotaExhaustionAfterFiveSearches(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := context.Background()

	if _, err := svc.CheckAndReserve(ctx, "ann@example.com"); err != nil {
		t.Fatalf("CheckAndReserve error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := svc.RecordUsage(ctx, "ann@example.com"); err != nil {
			t.Fatalf("RecordUsage #%d error = %v", i+1, err)
		}
	}

	status, err := svc.CheckAndReserve(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("CheckAndReserve error = %v", err)
	}
	if status.Allowed {
		t.Fatalf("status.Allowed = true after %d/%d searches", status.Used, status.Quota)
	}
	if status.Used != 5 {
		t.Fatalf("status.Used = %d, want 5", status.Used)
	}
}

func TestMonthRolloverResetsBeforeDecision(t *testing.T) {
	repo := newFakeRepo()
	repo.records["ann@example.com"] = &UsageRecord{
		UserKey:      "ann@example.com",
		Plan:         PlanFree,
		SearchesUsed: 5,
		LastReset:    time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	}

	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.CheckAndReserve(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("CheckAndReserve error = %v", err)
	}

	if !status.Allowed {
		t.Fatalf("expected rollover to allow the search, got %+v", status)
	}
	if status.Used != 0 {
		t.Fatalf("status.Used = %d after rollover, want 0", status.Used)
	}

	rec := repo.records["ann@example.com"]
	if rec.SearchesUsed != 0 {
		t.Fatalf("persisted searches_used = %d, want 0", rec.SearchesUsed)
	}
	if !rec.LastReset.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("persisted last_reset = %v, want 2026-03-01", rec.LastReset)
	}
}

func TestZeroQuotaBlocksAllSearches(t *testing.T) {
	repo := newFakeRepo()
	zero := 0
	repo.records["ann@example.com"] = &UsageRecord{
		UserKey:   "ann@example.com",
		Plan:      PlanPro,
		Quota:     &zero,
		LastReset: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.CheckAndReserve(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("CheckAndReserve error = %v", err)
	}
	if status.Allowed {
		t.Fatalf("quota of zero must deny, got %+v", status)
	}
}

func TestStoreFailureSurfacesQuotaUnknown(t *testing.T) {
	repo := newFakeRepo()
	repo.failAll = true
	svc := newTestService(repo, time.Now())

	_, err := svc.CheckAndReserve(context.Background(), "ann@example.com")
	if !errors.Is(err, core.ErrQuotaUnknown) {
		t.Fatalf("error = %v, want ErrQuotaUnknown", err)
	}
}

func TestProPlanDefaultQuota(t *testing.T) {
	repo := newFakeRepo()
	repo.records["ann@example.com"] = &UsageRecord{
		UserKey:   "ann@example.com",
		Plan:      PlanPro,
		LastReset: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.Get(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if status.Quota != 500 || status.Plan != PlanPro {
		t.Fatalf("pro defaults = %+v, want quota 500", status)
	}
}

func TestSetPlanClearsExplicitQuota(t *testing.T) {
	repo := newFakeRepo()
	ten := 10
	repo.records["ann@example.com"] = &UsageRecord{
		UserKey:   "ann@example.com",
		Plan:      PlanFree,
		Quota:     &ten,
		LastReset: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.SetPlan(context.Background(), "ann@example.com", PlanPro)
	if err != nil {
		t.Fatalf("SetPlan error = %v", err)
	}
	if status.Quota != 500 {
		t.Fatalf("quota after plan change = %d, want pro default 500", status.Quota)
	}

	if _, err := svc.SetPlan(context.Background(), "ann@example.com", "enterprise"); err == nil {
		t.Fatalf("SetPlan should reject unknown plan")
	}
}

func TestPlanGrantBeforeFirstSearch(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.SetPlan(context.Background(), "Ghost@Example.com", PlanPro)
	if err != nil {
		t.Fatalf("SetPlan for unseen user error = %v", err)
	}
	if status.Plan != PlanPro || status.Quota != 500 {
		t.Fatalf("granted status = %+v, want pro 500", status)
	}

	rec, ok := repo.records["ghost@example.com"]
	if !ok {
		t.Fatalf("plan grant must create the usage record")
	}
	if rec.SearchesUsed != 0 {
		t.Fatalf("fresh grant used = %d, want 0", rec.SearchesUsed)
	}
}

func TestQuotaOverrideBeforeFirstSearch(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	status, err := svc.SetQuota(context.Background(), "ghost@example.com", 9)
	if err != nil {
		t.Fatalf("SetQuota for unseen user error = %v", err)
	}
	if status.Quota != 9 {
		t.Fatalf("quota = %d, want explicit 9", status.Quota)
	}

	if _, ok := repo.records["ghost@example.com"]; !ok {
		t.Fatalf("quota override must create the usage record")
	}
}
