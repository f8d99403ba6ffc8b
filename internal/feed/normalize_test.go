// AngelaMos | 2026
// normalize_test.go

package feed

import (
	"encoding/json"
	"testing"
	"time"
)

var normalizeNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func TestNormalizeFlatNotice(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "ocds-b5fd17-1",
		"title": "  School Cleaning Services  ",
		"description": "Daily cleaning across Croydon sites",
		"publishedDate": "2026-03-10T09:30:00Z",
		"buyer": {"name": "Croydon Council", "id": "GB-LAC-CRY"},
		"value": {"amount": 120000, "currency": "GBP"},
		"mainProcurementCategory": "services",
		"uri": "https://example.gov.uk/notice/1"
	}`)

	tdr, err := Normalize(raw, normalizeNow)
	if err != nil {
		t.Fatalf("Normalize error = %v", err)
	}

	if tdr.ID != "ocds-b5fd17-1" {
		t.Errorf("ID = %q", tdr.ID)
	}
	if tdr.Title != "School Cleaning Services" {
		t.Errorf("Title = %q, want trimmed", tdr.Title)
	}
	if tdr.Buyer.DisplayName() != "Croydon Council" {
		t.Errorf("buyer = %q", tdr.Buyer.DisplayName())
	}
	if tdr.ValueGBP() != 120000 {
		t.Errorf("value = %v", tdr.ValueGBP())
	}
	if tdr.Sector != "services" {
		t.Errorf("sector = %q, want category passthrough", tdr.Sector)
	}
	if tdr.Region != "London" {
		t.Errorf("region = %q, want London from croydon keyword", tdr.Region)
	}
	if tdr.PublishedAt == nil ||
		!tdr.PublishedAt.Equal(time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("published = %v", tdr.PublishedAt)
	}
	if tdr.NoticeURL != "https://example.gov.uk/notice/1" {
		t.Errorf("notice url = %q", tdr.NoticeURL)
	}
}

func TestNormalizeWrappedRelease(t *testing.T) {
	raw := json.RawMessage(`{
		"releases": [{
			"ocid": "ocds-b5fd17-2",
			"date": "2026-03-01T00:00:00Z",
			"tender": {
				"title": "Hospital Maintenance Framework",
				"description": "NHS estates maintenance in Glasgow",
				"status": "active",
				"tenderPeriod": {"endDate": "2026-04-20T12:00:00Z"},
				"value": {"amount": "310,000", "currency": "GBP"}
			}
		}]
	}`)

	tdr, err := Normalize(raw, normalizeNow)
	if err != nil {
		t.Fatalf("Normalize error = %v", err)
	}

	if tdr.ID != "ocds-b5fd17-2" {
		t.Errorf("ID = %q", tdr.ID)
	}
	if tdr.Title != "Hospital Maintenance Framework" {
		t.Errorf("Title = %q", tdr.Title)
	}
	if tdr.Status != "active" {
		t.Errorf("status = %q", tdr.Status)
	}
	if tdr.ValueGBP() != 310000 {
		t.Errorf("value = %v, want separators stripped", tdr.ValueGBP())
	}
	if tdr.Deadline == nil ||
		!tdr.Deadline.Equal(time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("deadline = %v", tdr.Deadline)
	}
	if tdr.Region != "Scotland" {
		t.Errorf("region = %q", tdr.Region)
	}
	// "maintenance" is checked before any healthcare keyword.
	if tdr.Sector != "Facilities & Cleaning" {
		t.Errorf("sector = %q, want keyword fallback", tdr.Sector)
	}
}

func TestNormalizeDegradesGarbageFields(t *testing.T) {
	raw := json.RawMessage(`{
		"ocid": "ocds-b5fd17-3",
		"title": "Bridge Works",
		"publishedDate": "not-a-date",
		"value": {"amount": "TBC"},
		"buyer": 42
	}`)

	tdr, err := Normalize(raw, normalizeNow)
	if err != nil {
		t.Fatalf("garbage fields must degrade, not fail: %v", err)
	}

	if tdr.Value != nil {
		t.Errorf("unparseable amount should be absent, got %v", *tdr.Value)
	}
	if tdr.PublishedAt != nil {
		t.Errorf("unparseable date should be nil, got %v", tdr.PublishedAt)
	}
	if tdr.Buyer.DisplayName() != "" {
		t.Errorf("unusable buyer should be empty, got %q", tdr.Buyer.DisplayName())
	}
	if tdr.Status != "Open" {
		t.Errorf("missing status defaults to Open, got %q", tdr.Status)
	}
	if tdr.Currency != "GBP" {
		t.Errorf("missing currency defaults to GBP, got %q", tdr.Currency)
	}
}

func TestNormalizeRejectsUnusableNotices(t *testing.T) {
	cases := map[string]string{
		"no identifier": `{"title": "Something"}`,
		"no title":      `{"id": "ocds-b5fd17-4"}`,
		"blank title":   `{"id": "ocds-b5fd17-5", "title": "   "}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Normalize(json.RawMessage(raw), normalizeNow); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestDetectRegion(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Framework for Westminster schools", "London"},
		{"Road resurfacing near Edinburgh", "Scotland"},
		{"Leeds city centre regeneration", "Midlands & North"},
		{"Laboratory services in Cambridge", "South England"},
		{"Social care in Wales", "Wales"},
		{"Belfast harbour dredging", "Northern Ireland"},
		{"National procurement framework", "UK (General)"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := DetectRegion(tc.text); got != tc.want {
			t.Errorf("DetectRegion(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestDetectSector(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Digital transformation programme", "Information Technology"},
		{"Janitorial supplies contract", "Facilities & Cleaning"},
		{"Civil engineering works", "Construction & Engineering"},
		{"NHS patient transport", "Healthcare"},
		{"University estates framework", "Education"},
		{"Airport perimeter fencing", "Transport & Infrastructure"},
		{"Legal advisory panel", "General Public Sector"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := DetectSector(tc.text); got != tc.want {
			t.Errorf("DetectSector(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
