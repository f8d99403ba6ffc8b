// AngelaMos | 2026
// ingest_test.go

package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/tender"
)

type recordingStore struct {
	upserts []string
	failIDs map[string]bool
}

func (s *recordingStore) Upsert(_ context.Context, t *tender.Tender) error {
	if s.failIDs[t.ID] {
		return fmt.Errorf("store rejected %s", t.ID)
	}
	s.upserts = append(s.upserts, t.ID)
	return nil
}

func feedServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, ok := pages[r.URL.Query().Get("page")]
			if !ok {
				body = `{"records": []}`
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		},
	))
}

func newTestIngestor(url string, store Upserter, maxPages int) *Ingestor {
	client := NewClient(config.FeedConfig{
		BaseURL:    url,
		PageSize:   50,
		MaxRetries: 1,
		Timeout:    5 * time.Second,
	})
	return NewIngestor(client, store, maxPages, slog.Default())
}

func TestIngestWalksPagesAndCountsOutcomes(t *testing.T) {
	srv := feedServer(t, map[string]string{
		"1": `{"totalPages": 2, "records": [
			{"id": "t-1", "title": "Office Cleaning"},
			{"id": "t-2", "title": "IT Support"},
			{"title": "no identifier, skipped"}
		]}`,
		"2": `{"totalPages": 2, "records": [
			{"id": "t-3", "title": "Road Works"}
		]}`,
	})
	defer srv.Close()

	store := &recordingStore{failIDs: map[string]bool{"t-2": true}}
	ing := newTestIngestor(srv.URL, store, 10)

	result, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}

	if result.Pages != 2 || result.Fetched != 4 {
		t.Errorf("pages/fetched = %d/%d, want 2/4", result.Pages, result.Fetched)
	}
	if result.Upserted != 2 || result.Skipped != 1 || result.Failed != 1 {
		t.Errorf("upserted/skipped/failed = %d/%d/%d, want 2/1/1",
			result.Upserted, result.Skipped, result.Failed)
	}
	if len(store.upserts) != 2 ||
		store.upserts[0] != "t-1" ||
		store.upserts[1] != "t-3" {
		t.Errorf("upserts = %v", store.upserts)
	}
}

func TestIngestHonorsPageCap(t *testing.T) {
	srv := feedServer(t, map[string]string{
		"1": `{"totalPages": 99, "records": [{"id": "t-1", "title": "A"}]}`,
		"2": `{"totalPages": 99, "records": [{"id": "t-2", "title": "B"}]}`,
		"3": `{"totalPages": 99, "records": [{"id": "t-3", "title": "C"}]}`,
	})
	defer srv.Close()

	store := &recordingStore{}
	ing := newTestIngestor(srv.URL, store, 2)

	result, err := ing.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}

	if result.Pages != 2 {
		t.Errorf("pages = %d, want capped at 2", result.Pages)
	}
}

func TestIngestFailsWhenFirstPageUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadRequest)
		},
	))
	defer srv.Close()

	ing := newTestIngestor(srv.URL, &recordingStore{}, 2)

	if _, err := ing.Run(context.Background()); err == nil {
		t.Fatalf("expected error when nothing could be fetched")
	}
}
