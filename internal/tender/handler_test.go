// AngelaMos | 2026
// handler_test.go

package tender

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestListMetaReflectsServedPage(t *testing.T) {
	repo := &fakeTenderRepo{}
	q := &fakeQuota{}
	h := NewHandler(newSearchService(repo, q))

	r := chi.NewRouter()
	r.Get("/tenders", h.ListTenders)

	req := httptest.NewRequest("GET", "/tenders?page=-5&page_size=0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d body = %s, want 200", rec.Code, rec.Body)
	}

	var body struct {
		Meta struct {
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	// Out-of-range paging serves the first page and the meta must say so.
	if body.Meta.Page != 1 || body.Meta.PageSize != 20 {
		t.Fatalf("meta = %+v, want page 1 size 20", body.Meta)
	}
}
