// AngelaMos | 2026
// rank_test.go

package tender

import (
	"reflect"
	"testing"
	"time"
)

var rankNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func tenderAt(id, title string, value float64, daysLeft, recencyDays int) Tender {
	t := Tender{
		ID:    id,
		Title: title,
	}
	if value > 0 {
		t.Value = &value
	}
	deadline := rankNow.Add(time.Duration(daysLeft) * 24 * time.Hour)
	t.Deadline = &deadline
	published := rankNow.Add(-time.Duration(recencyDays) * 24 * time.Hour)
	t.PublishedAt = &published
	return t
}

func rankOne(t *testing.T, candidate Tender) Ranked {
	t.Helper()

	got := Rank(candidate.Title, []Tender{candidate}, Options{Now: rankNow})
	if len(got) != 1 {
		t.Fatalf("Rank returned %d results, want 1", len(got))
	}
	return got[0]
}

func TestTierAssignment(t *testing.T) {
	tests := []struct {
		name      string
		candidate Tender
		wantTier  Tier
		wantScore int
	}{
		{
			name:      "expired low value is F",
			candidate: tenderAt("t1", "office cleaning", 1000, -3, 5),
			wantTier:  TierF,
			wantScore: 0,
		},
		{
			name:      "long window high value is S",
			candidate: tenderAt("t2", "hospital cleaning", 300000, 30, 10),
			wantTier:  TierS,
			wantScore: 100,
		},
		{
			name:      "stale listing degrades S to A",
			candidate: tenderAt("t3", "school cleaning", 300000, 30, 45),
			wantTier:  TierA,
			wantScore: 75,
		},
		{
			name:      "mid window is B",
			candidate: tenderAt("t4", "window cleaning", 1000, 10, 5),
			wantTier:  TierB,
			wantScore: 50,
		},
		{
			name:      "mid window high value promotes B to A",
			candidate: tenderAt("t5", "deep cleaning", 250000, 10, 5),
			wantTier:  TierA,
			wantScore: 75,
		},
		{
			name:      "short window is C",
			candidate: tenderAt("t6", "carpet cleaning", 1000, 3, 5),
			wantTier:  TierC,
			wantScore: 30,
		},
		{
			name:      "expired is never promoted by value",
			candidate: tenderAt("t7", "street cleaning", 900000, -5, 5),
			wantTier:  TierF,
			wantScore: 0,
		},
		{
			name:      "recency never demotes below B",
			candidate: tenderAt("t8", "tank cleaning", 1000, 10, 90),
			wantTier:  TierB,
			wantScore: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rankOne(t, tt.candidate)
			if got.Tier != tt.wantTier || got.Score != tt.wantScore {
				t.Fatalf("tier = %s score = %d, want %s %d",
					got.Tier, got.Score, tt.wantTier, tt.wantScore)
			}
		})
	}
}

func TestUnknownDeadlineScoresConservatively(t *testing.T) {
	candidate := Tender{ID: "t1", Title: "NHS Cleaning Contract"}

	got := rankOne(t, candidate)
	if got.Tier != TierC {
		t.Fatalf("unknown deadline tier = %s, want C", got.Tier)
	}
	if got.DaysLeft != nil {
		t.Fatalf("unknown deadline should have nil days left")
	}
}

func TestMissingValueNeverDropsCandidate(t *testing.T) {
	deadline := rankNow.Add(30 * 24 * time.Hour)
	candidate := Tender{
		ID:       "t1",
		Title:    "Cleaning Services Framework",
		Deadline: &deadline,
	}

	got := rankOne(t, candidate)
	if got.Tier != TierA {
		t.Fatalf("missing value tier = %s, want A (no uplift)", got.Tier)
	}
	if got.ValueGBP() != 0 {
		t.Fatalf("missing value should read as 0, got %f", got.ValueGBP())
	}
}

func TestRankEndToEndOrdering(t *testing.T) {
	candidates := []Tender{
		tenderAt("supplies", "Cleaning Supplies", 1000, 3, 5),
		tenderAt("nhs", "NHS Cleaning Contract", 300000, 30, 10),
	}

	got := Rank("cleaning", candidates, Options{Now: rankNow})
	if len(got) != 2 {
		t.Fatalf("Rank returned %d results, want 2", len(got))
	}

	if got[0].ID != "nhs" || got[0].Tier != TierS {
		t.Fatalf("first = %s tier %s, want nhs tier S", got[0].ID, got[0].Tier)
	}
	if got[1].ID != "supplies" || got[1].Tier != TierC {
		t.Fatalf("second = %s tier %s, want supplies tier C", got[1].ID, got[1].Tier)
	}
}

func TestRankIsIdempotentForFixedNow(t *testing.T) {
	candidates := []Tender{
		tenderAt("a", "cleaning one", 5000, 25, 2),
		tenderAt("b", "cleaning two", 300000, 30, 10),
		tenderAt("c", "cleaning three", 0, 10, 50),
		{ID: "d", Title: "cleaning four"},
	}

	opts := Options{Now: rankNow}
	first := Rank("cleaning", candidates, opts)
	second := Rank("cleaning", candidates, opts)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs ranked differently:\n%+v\n%+v", first, second)
	}
}

func TestSortTieBreakers(t *testing.T) {
	// All land in tier B; value then days-left decide the order, with the
	// unknown-deadline candidate (tier C) last.
	candidates := []Tender{
		tenderAt("low-value", "cleaning alpha", 100, 10, 5),
		tenderAt("high-value", "cleaning beta", 50000, 8, 5),
		tenderAt("far-deadline", "cleaning gamma", 100, 20, 5),
		{ID: "no-deadline", Title: "cleaning delta"},
	}

	got := Rank("cleaning", candidates, Options{Now: rankNow})
	wantOrder := []string{"high-value", "far-deadline", "low-value", "no-deadline"}

	for i, want := range wantOrder {
		if got[i].ID != want {
			ids := make([]string, len(got))
			for j := range got {
				ids[j] = got[j].ID
			}
			t.Fatalf("order = %v, want %v", ids, wantOrder)
		}
	}
}

func TestSubstringMatcherAgainstBuyer(t *testing.T) {
	candidate := Tender{
		ID:    "t1",
		Title: "Facilities Framework",
		Buyer: NewBuyerObject(map[string]any{"name": "Croydon Council"}),
	}

	got := Rank("croydon", []Tender{candidate}, Options{Now: rankNow})
	if len(got) != 1 {
		t.Fatalf("buyer-name match returned %d results, want 1", len(got))
	}
	if got[0].MatchScore != 100 {
		t.Fatalf("substring match score = %d, want 100", got[0].MatchScore)
	}
}

func TestSubstringMatcherRejectsNonMatches(t *testing.T) {
	candidates := []Tender{
		tenderAt("t1", "road resurfacing", 1000, 10, 5),
	}

	if got := Rank("cleaning", candidates, Options{Now: rankNow}); len(got) != 0 {
		t.Fatalf("non-matching candidate survived: %+v", got)
	}

	if got := Rank("   ", candidates, Options{Now: rankNow}); len(got) != 0 {
		t.Fatalf("blank query should match nothing, got %+v", got)
	}
}

func TestFuzzyMatcherThreshold(t *testing.T) {
	candidate := Tender{ID: "t1", Title: "NHS Hospital Cleaning Services"}

	strict := FuzzyMatcher{Threshold: 101}
	if _, ok := strict.Match("cleaning services hospital", &candidate); ok {
		t.Fatalf("threshold above 100 should never accept")
	}

	loose := FuzzyMatcher{Threshold: 60}
	score, ok := loose.Match("hospital cleaning services nhs", &candidate)
	if !ok {
		t.Fatalf("token-set match should accept reordered tokens")
	}
	if score < 60 || score > 100 {
		t.Fatalf("match score = %d, want within [60,100]", score)
	}
}

func TestBuyerDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		buyer BuyerField
		want  string
	}{
		{"plain string", NewBuyerName("NHS Trust"), "NHS Trust"},
		{
			"object with name",
			NewBuyerObject(map[string]any{"name": "Leeds City Council"}),
			"Leeds City Council",
		},
		{
			"nested contact name",
			NewBuyerObject(map[string]any{
				"contactPoint": map[string]any{"name": "Procurement Team"},
			}),
			"Procurement Team",
		},
		{"empty", BuyerField{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.buyer.DisplayName(); got != tt.want {
				t.Fatalf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}
