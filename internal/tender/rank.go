// AngelaMos | 2026
// rank.go

package tender

import (
	"sort"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Tier is the discrete priority bucket assigned to a tender.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierF Tier = "F"
)

func (t Tier) Weight() int {
	switch t {
	case TierS:
		return 100
	case TierA:
		return 75
	case TierB:
		return 50
	case TierC:
		return 30
	default:
		return 0
	}
}

// Ranked is a tender annotated with its match and priority scoring.
type Ranked struct {
	Tender
	Tier        Tier     `json:"tier"`
	Score       int      `json:"score"`
	MatchScore  int      `json:"match_score"`
	DaysLeft    *float64 `json:"days_left,omitempty"`
	RecencyDays *float64 `json:"recency_days,omitempty"`
}

// Matcher decides whether a tender is a hit for a query and how strong the
// hit is on a 0-100 scale.
type Matcher interface {
	Match(query string, t *Tender) (score int, ok bool)
}

// SubstringMatcher accepts a tender when the trimmed, case-folded query
// appears inside the title or the normalized buyer name.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(query string, t *Tender) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0, false
	}

	if strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Buyer.DisplayName()), q) {
		return 100, true
	}

	return 0, false
}

// FuzzyMatcher scores the query against the title with a token-set ratio
// and accepts everything at or above Threshold. The similarity value is
// retained as the match score.
type FuzzyMatcher struct {
	Threshold int
}

func (m FuzzyMatcher) Match(query string, t *Tender) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0, false
	}

	score := fuzzy.TokenSetRatio(q, strings.ToLower(t.Title))
	return score, score >= m.Threshold
}

const (
	defaultValueUpliftGBP    = 250000
	defaultRecencyCutoffDays = 40
)

// Options controls one ranking pass. Now is captured once per call so every
// row in a single pass sees the same clock.
type Options struct {
	Now               time.Time
	Matcher           Matcher
	ValueUpliftGBP    float64
	RecencyCutoffDays int
}

func (o *Options) normalize() {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Matcher == nil {
		o.Matcher = SubstringMatcher{}
	}
	if o.ValueUpliftGBP <= 0 {
		o.ValueUpliftGBP = defaultValueUpliftGBP
	}
	if o.RecencyCutoffDays <= 0 {
		o.RecencyCutoffDays = defaultRecencyCutoffDays
	}
}

// Rank filters candidates by text match, assigns each survivor a priority
// tier, and returns them sorted. It is a pure function of its inputs: two
// calls with identical candidates and the same Options.Now produce
// identical output. Candidates with missing or unparseable value or dates
// are scored with conservative defaults, never dropped.
func Rank(query string, candidates []Tender, opts Options) []Ranked {
	opts.normalize()

	ranked := make([]Ranked, 0, len(candidates))
	for i := range candidates {
		matchScore, ok := opts.Matcher.Match(query, &candidates[i])
		if !ok {
			continue
		}

		r := Ranked{
			Tender:     candidates[i],
			MatchScore: matchScore,
		}
		r.DaysLeft = daysBetween(opts.Now, candidates[i].Deadline)
		r.RecencyDays = daysSince(opts.Now, candidates[i].PublishedAt)
		r.Tier = assignTier(&candidates[i], r.DaysLeft, r.RecencyDays, opts)
		r.Score = r.Tier.Weight()

		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]

		if a.Score != b.Score {
			return a.Score > b.Score
		}

		av, bv := a.ValueGBP(), b.ValueGBP()
		if av != bv {
			return av > bv
		}

		return lessDaysLeftDesc(a.DaysLeft, b.DaysLeft)
	})

	return ranked
}

func assignTier(
	t *Tender,
	daysLeft, recencyDays *float64,
	opts Options,
) Tier {
	tier := baseTier(daysLeft)

	if t.ValueGBP() >= opts.ValueUpliftGBP {
		tier = promote(tier)
	}

	if recencyDays != nil && *recencyDays > float64(opts.RecencyCutoffDays) {
		tier = demoteStale(tier)
	}

	return tier
}

// baseTier buckets by days until deadline. An unknown deadline is treated
// as a short window rather than excluding the tender.
func baseTier(daysLeft *float64) Tier {
	if daysLeft == nil {
		return TierC
	}

	d := *daysLeft
	switch {
	case d > 21:
		return TierA
	case d >= 7:
		return TierB
	case d >= 2:
		return TierC
	default:
		return TierF
	}
}

// promote lifts high-value tenders one tier. F stays F: a closed window is
// a closed window regardless of contract size.
func promote(t Tier) Tier {
	switch t {
	case TierA:
		return TierS
	case TierB:
		return TierA
	case TierC:
		return TierB
	default:
		return t
	}
}

// demoteStale knocks stale listings out of the top tiers only.
func demoteStale(t Tier) Tier {
	switch t {
	case TierS:
		return TierA
	case TierA:
		return TierB
	default:
		return t
	}
}

func daysBetween(now time.Time, deadline *time.Time) *float64 {
	if deadline == nil {
		return nil
	}
	d := deadline.Sub(now).Hours() / 24
	return &d
}

func daysSince(now time.Time, published *time.Time) *float64 {
	if published == nil {
		return nil
	}
	d := now.Sub(*published).Hours() / 24
	return &d
}

// lessDaysLeftDesc orders known days-left descending with unknowns last.
func lessDaysLeftDesc(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a > *b
	}
}
