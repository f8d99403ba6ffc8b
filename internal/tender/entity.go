// AngelaMos | 2026
// entity.go

package tender

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tender is one public procurement notice as stored from the feed. Value
// and both timestamps are optional; absent fields degrade to conservative
// defaults at scoring time instead of failing.
type Tender struct {
	ID          string     `db:"tender_id"      json:"tender_id"`
	Title       string     `db:"title"          json:"title"`
	Description string     `db:"description"    json:"description,omitempty"`
	Buyer       BuyerField `db:"buyer"          json:"buyer,omitempty"`
	Value       *float64   `db:"value_gbp"      json:"value_gbp,omitempty"`
	Currency    string     `db:"currency"       json:"currency,omitempty"`
	Region      string     `db:"region"         json:"region,omitempty"`
	Sector      string     `db:"sector"         json:"sector,omitempty"`
	Status      string     `db:"tender_status"  json:"tender_status,omitempty"`
	NoticeURL   string     `db:"notice_url"     json:"notice_url,omitempty"`
	PublishedAt *time.Time `db:"published_date" json:"published_date,omitempty"`
	Deadline    *time.Time `db:"deadline"       json:"deadline,omitempty"`
	CreatedAt   time.Time  `db:"created_at"     json:"-"`
	UpdatedAt   time.Time  `db:"updated_at"     json:"-"`
}

// ValueGBP returns the monetary amount with absent or unparseable values
// treated as zero.
func (t *Tender) ValueGBP() float64 {
	if t.Value == nil {
		return 0
	}
	return *t.Value
}

// BuyerField tolerates both shapes the feed produces: a plain string, or an
// object with a name (possibly nested under contactPoint or organization).
// The raw JSON is kept for passthrough display.
type BuyerField struct {
	raw json.RawMessage
}

func NewBuyerName(name string) BuyerField {
	if name == "" {
		return BuyerField{}
	}
	b, _ := json.Marshal(name) //nolint:errcheck // strings always marshal
	return BuyerField{raw: b}
}

func NewBuyerObject(obj map[string]any) BuyerField {
	b, err := json.Marshal(obj)
	if err != nil {
		return BuyerField{}
	}
	return BuyerField{raw: b}
}

func (b *BuyerField) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		b.raw = nil
		return nil
	case []byte:
		b.raw = append(json.RawMessage(nil), v...)
		return nil
	case string:
		b.raw = json.RawMessage(v)
		return nil
	default:
		return fmt.Errorf("scan buyer: unsupported type %T", src)
	}
}

func (b BuyerField) Value() (driver.Value, error) {
	if len(b.raw) == 0 {
		return nil, nil
	}
	return []byte(b.raw), nil
}

func (b BuyerField) MarshalJSON() ([]byte, error) {
	if len(b.raw) == 0 {
		return []byte("null"), nil
	}
	return b.raw, nil
}

func (b *BuyerField) UnmarshalJSON(data []byte) error {
	b.raw = append(json.RawMessage(nil), data...)
	return nil
}

// DisplayName flattens whatever shape the buyer arrived in down to a single
// display string. Unparseable content yields "" rather than an error.
func (b BuyerField) DisplayName() string {
	if len(b.raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(b.raw, &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	var asObject map[string]any
	if err := json.Unmarshal(b.raw, &asObject); err != nil {
		return ""
	}

	if name := stringField(asObject, "name"); name != "" {
		return name
	}

	for _, nested := range []string{"contactPoint", "organization", "organisation"} {
		if child, ok := asObject[nested].(map[string]any); ok {
			if name := stringField(child, "name"); name != "" {
				return name
			}
		}
	}

	return ""
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
