// AngelaMos | 2026
// normalize.go

package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anujtyagi85/cleanintel-loader/internal/tender"
)

// notice is the loose shape of one Contracts Finder result. The API
// serves both flat rows and wrapped OCDS releases; every field is
// optional and decoded tolerantly.
type notice struct {
	ID            string            `json:"id"`
	OCID          string            `json:"ocid"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Date          string            `json:"date"`
	PublishedDate string            `json:"publishedDate"`
	Status        string            `json:"status"`
	Category      string            `json:"mainProcurementCategory"`
	Buyer         json.RawMessage   `json:"buyer"`
	Value         *noticeValue      `json:"value"`
	Tender        *noticeTender     `json:"tender"`
	Releases      []json.RawMessage `json:"releases"`
	URI           string            `json:"uri"`
}

type noticeTender struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       string       `json:"status"`
	Category     string       `json:"mainProcurementCategory"`
	Value        *noticeValue `json:"value"`
	TenderPeriod struct {
		EndDate string `json:"endDate"`
	} `json:"tenderPeriod"`
}

type noticeValue struct {
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
}

// Normalize flattens one raw notice into a tender row. It returns an
// error only when no usable identifier or title can be found; every
// other field degrades to its zero value.
func Normalize(raw json.RawMessage, now time.Time) (*tender.Tender, error) {
	var n notice
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("decode notice: %w", err)
	}

	// Wrapped release packages carry the real notice one level down.
	if n.Tender == nil && len(n.Releases) > 0 {
		return Normalize(n.Releases[0], now)
	}

	id := n.ID
	if id == "" {
		id = n.OCID
	}
	if id == "" {
		return nil, fmt.Errorf("notice has no id or ocid")
	}

	title := strings.TrimSpace(n.Title)
	description := n.Description
	status := n.Status
	category := n.Category
	value := n.Value
	deadline := ""

	if n.Tender != nil {
		if title == "" {
			title = strings.TrimSpace(n.Tender.Title)
		}
		if description == "" {
			description = n.Tender.Description
		}
		if status == "" {
			status = n.Tender.Status
		}
		if category == "" {
			category = n.Tender.Category
		}
		if value == nil {
			value = n.Tender.Value
		}
		deadline = n.Tender.TenderPeriod.EndDate
	}

	if title == "" {
		return nil, fmt.Errorf("notice %s has no title", id)
	}

	if status == "" {
		status = "Open"
	}

	currency := "GBP"
	var amount *float64
	if value != nil {
		if value.Currency != "" {
			currency = value.Currency
		}
		amount = parseAmount(value.Amount)
	}

	sector := category
	if sector == "" {
		sector = DetectSector(title + " " + description)
	}

	t := &tender.Tender{
		ID:          id,
		Title:       title,
		Description: description,
		Buyer:       buyerField(n.Buyer),
		Value:       amount,
		Currency:    currency,
		Region:      DetectRegion(title + " " + description),
		Sector:      sector,
		Status:      status,
		NoticeURL:   n.URI,
		PublishedAt: parseTime(firstNonEmpty(n.PublishedDate, n.Date)),
		Deadline:    parseTime(deadline),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return t, nil
}

var regionKeywords = []struct {
	region   string
	keywords []string
}{
	{"London", []string{"london", "westminster", "croydon"}},
	{"Scotland", []string{"scotland", "edinburgh", "glasgow"}},
	{"Midlands & North", []string{
		"birmingham", "manchester", "leeds", "liverpool", "yorkshire",
		"midlands",
	}},
	{"South England", []string{
		"bristol", "southampton", "oxford", "cambridge", "kent", "sussex",
	}},
	{"Wales", []string{"wales"}},
	{"Northern Ireland", []string{"northern ireland", "belfast"}},
}

var sectorKeywords = []struct {
	sector   string
	keywords []string
}{
	{"Information Technology", []string{
		"software", "it", "technology", "digital",
	}},
	{"Facilities & Cleaning", []string{
		"cleaning", "janitorial", "maintenance", "facilities",
	}},
	{"Construction & Engineering", []string{
		"construction", "building", "engineering", "civil",
	}},
	{"Healthcare", []string{"health", "hospital", "nhs", "medical"}},
	{"Education", []string{"education", "school", "university", "college"}},
	{"Transport & Infrastructure", []string{
		"transport", "rail", "bus", "airport", "road",
	}},
}

// DetectRegion classifies free text into a coarse UK region by keyword.
func DetectRegion(text string) string {
	if text == "" {
		return ""
	}

	padded := padWords(text)
	for _, entry := range regionKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return entry.region
			}
		}
	}

	return "UK (General)"
}

// DetectSector classifies free text into a broad sector by keyword.
func DetectSector(text string) string {
	if text == "" {
		return ""
	}

	padded := padWords(text)
	for _, entry := range sectorKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return entry.sector
			}
		}
	}

	return "General Public Sector"
}

// padWords lowercases text and normalizes word boundaries to single
// spaces so keywords match whole words only. Short keywords like "it"
// or "bus" must not fire inside longer words.
func padWords(text string) string {
	lower := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return ' '
	}, text)

	return " " + strings.Join(strings.Fields(lower), " ") + " "
}

// parseAmount accepts the amount as a JSON number or as a quoted
// string, with or without thousands separators. Anything else is
// treated as absent.
func parseAmount(raw json.RawMessage) *float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}

	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		s = quoted
	}

	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}

	return &f
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}

	return nil
}

func buyerField(raw json.RawMessage) tender.BuyerField {
	if len(raw) == 0 {
		return tender.BuyerField{}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return tender.NewBuyerObject(obj)
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return tender.NewBuyerName(name)
	}

	return tender.BuyerField{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
