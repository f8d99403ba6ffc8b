// AngelaMos | 2026
// service.go

package tender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/core"
	"github.com/anujtyagi85/cleanintel-loader/internal/quota"
)

// QuotaTracker is the slice of the quota service the search path needs.
type QuotaTracker interface {
	CheckAndReserve(ctx context.Context, userKey string) (*quota.Status, error)
	RecordUsage(ctx context.Context, userKey string) error
}

// QuotaExceededError reports a denied search. It is an expected outcome,
// carried as a typed error so handlers can render the usage snapshot.
type QuotaExceededError struct {
	Usage quota.Status
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf(
		"monthly search quota exhausted (%d/%d)",
		e.Usage.Used,
		e.Usage.Quota,
	)
}

type Service struct {
	repo    Repository
	quota   QuotaTracker
	matcher Matcher
	ranking config.RankingConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(
	repo Repository,
	quotaSvc QuotaTracker,
	ranking config.RankingConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		quota:   quotaSvc,
		matcher: matcherFromConfig(ranking),
		ranking: ranking,
		logger:  logger,
		now:     time.Now,
	}
}

// matcherFromConfig picks the text-match strategy. Fuzzy matching is a
// capability switch, not a hard requirement; with it off the substring
// strategy serves identically shaped results.
func matcherFromConfig(cfg config.RankingConfig) Matcher {
	if cfg.FuzzyEnabled {
		return FuzzyMatcher{Threshold: cfg.FuzzyThreshold}
	}
	return SubstringMatcher{}
}

// Search runs one quota-gated search: reserve, fetch candidates, rank,
// then record the spend. The counter moves only after the candidate fetch
// succeeded, so upstream failures never cost the subscriber a search.
func (s *Service) Search(
	ctx context.Context,
	userKey, query string,
	limit int,
) (*SearchResponse, error) {
	status, err := s.quota.CheckAndReserve(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if !status.Allowed {
		return nil, &QuotaExceededError{Usage: *status}
	}

	if limit <= 0 || limit > s.ranking.CandidateLimit {
		limit = s.ranking.CandidateLimit
	}

	candidates, err := s.repo.SearchCandidates(ctx, query, limit)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("search: %w", err)
	}

	results := Rank(query, candidates, Options{
		Now:               s.now(),
		Matcher:           s.matcher,
		ValueUpliftGBP:    s.ranking.ValueUpliftGBP,
		RecencyCutoffDays: s.ranking.RecencyCutoffDays,
	})

	if recordErr := s.quota.RecordUsage(ctx, userKey); recordErr != nil {
		// The search already succeeded; a lost increment is an advisory
		// counter drifting by one, not a reason to fail the request.
		s.logger.Warn("record usage failed",
			"user_key", userKey,
			"error", recordErr,
		)
	} else {
		status.Used++
		status.Allowed = status.Used < status.Quota
	}

	return &SearchResponse{
		Query:   query,
		Results: results,
		Usage:   *status,
	}, nil
}

func (s *Service) GetTender(
	ctx context.Context,
	tenderID string,
) (*Tender, error) {
	if tenderID == "" {
		return nil, fmt.Errorf("get tender: %w", core.ErrInvalidInput)
	}
	return s.repo.GetByID(ctx, tenderID)
}

func (s *Service) ListTenders(
	ctx context.Context,
	params ListParams,
) ([]Tender, int, error) {
	return s.repo.List(ctx, params)
}
