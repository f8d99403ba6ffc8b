// AngelaMos | 2026
// ingest.go

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/tender"
)

// Upserter is the slice of the tender repository the ingest loop needs.
type Upserter interface {
	Upsert(ctx context.Context, t *tender.Tender) error
}

// Result summarizes one ingest run.
type Result struct {
	Pages    int `json:"pages"`
	Fetched  int `json:"fetched"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type Ingestor struct {
	client   *Client
	store    Upserter
	maxPages int
	logger   *slog.Logger
	now      func() time.Time
}

func NewIngestor(
	client *Client,
	store Upserter,
	maxPages int,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		client:   client,
		store:    store,
		maxPages: maxPages,
		logger:   logger,
		now:      time.Now,
	}
}

// Run walks the feed newest-first until the feed is exhausted or the
// page cap is hit. A notice that fails to normalize is skipped, and a
// notice that fails to store is counted but never aborts the run.
func (ing *Ingestor) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	for page := 1; ing.maxPages <= 0 || page <= ing.maxPages; page++ {
		fetched, err := ing.client.FetchPage(ctx, page)
		if err != nil {
			if result.Pages == 0 {
				return nil, fmt.Errorf("ingest: %w", err)
			}
			// Partial runs still land what they fetched.
			ing.logger.Warn("feed page fetch failed, stopping early",
				"page", page,
				"error", err,
			)
			break
		}

		notices := fetched.Notices()
		if len(notices) == 0 {
			break
		}

		result.Pages++
		result.Fetched += len(notices)

		ing.ingestPage(ctx, notices, result)

		if fetched.TotalPages > 0 && page >= fetched.TotalPages {
			break
		}
	}

	ing.logger.Info("ingest run finished",
		"pages", result.Pages,
		"fetched", result.Fetched,
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}

func (ing *Ingestor) ingestPage(
	ctx context.Context,
	notices []json.RawMessage,
	result *Result,
) {
	now := ing.now().UTC()

	for _, raw := range notices {
		t, err := Normalize(raw, now)
		if err != nil {
			result.Skipped++
			ing.logger.Debug("skipping notice", "error", err)
			continue
		}

		if err := ing.store.Upsert(ctx, t); err != nil {
			result.Failed++
			ing.logger.Warn("upsert failed",
				"tender_id", t.ID,
				"error", err,
			)
			continue
		}

		result.Upserted++
	}
}
