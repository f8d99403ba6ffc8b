// AngelaMos | 2026
// handler_test.go

package quota

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newAdminRouter(repo Repository) chi.Router {
	svc := newTestService(repo, time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC))
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/usage", h.RegisterAdminRoutes)
	return r
}

func TestAdminPlanGrantForUnseenUser(t *testing.T) {
	router := newAdminRouter(newFakeRepo())

	req := httptest.NewRequest(
		"PUT",
		"/usage/ghost@example.com/plan",
		strings.NewReader(`{"plan":"pro"}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d body = %s, want 200", rec.Code, rec.Body)
	}

	var body struct {
		Success bool   `json:"success"`
		Data    Status `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data.Plan != PlanPro || body.Data.Quota != 500 {
		t.Fatalf("body = %+v, want pro plan with default quota", body)
	}
}

func TestAdminQuotaOverrideForUnseenUser(t *testing.T) {
	router := newAdminRouter(newFakeRepo())

	req := httptest.NewRequest(
		"PUT",
		"/usage/ghost@example.com/quota",
		strings.NewReader(`{"quota":9}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d body = %s, want 200", rec.Code, rec.Body)
	}
}

func TestAdminPlanRejectsUnknownPlan(t *testing.T) {
	router := newAdminRouter(newFakeRepo())

	req := httptest.NewRequest(
		"PUT",
		"/usage/ghost@example.com/plan",
		strings.NewReader(`{"plan":"enterprise"}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400 for unknown plan", rec.Code)
	}
}

func TestAdminUpdatesFailClosedWhenStoreDown(t *testing.T) {
	repo := newFakeRepo()
	repo.failAll = true
	router := newAdminRouter(repo)

	req := httptest.NewRequest(
		"PUT",
		"/usage/ghost@example.com/plan",
		strings.NewReader(`{"plan":"pro"}`),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503 when the store is unreachable", rec.Code)
	}
}
