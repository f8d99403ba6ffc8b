// AngelaMos | 2026
// entity.go

package quota

import (
	"time"
)

// UsageRecord is one subscriber's monthly search allowance. Quota is nil
// when no explicit ceiling is stored; the plan default applies then. A
// stored ceiling of zero or less means no searches at all, not unlimited.
type UsageRecord struct {
	UserKey      string    `db:"user_key"`
	Plan         string    `db:"plan"`
	SearchesUsed int       `db:"searches_used"`
	Quota        *int      `db:"monthly_quota"`
	LastReset    time.Time `db:"last_reset"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

func ValidPlan(plan string) bool {
	return plan == PlanFree || plan == PlanPro
}

// MonthStart truncates a time to the first day of its calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

type Status struct {
	Allowed bool   `json:"allowed"`
	Used    int    `json:"used"`
	Quota   int    `json:"quota"`
	Plan    string `json:"plan"`
}
