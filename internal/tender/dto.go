// AngelaMos | 2026
// dto.go

package tender

import (
	"github.com/anujtyagi85/cleanintel-loader/internal/quota"
)

type SearchRequest struct {
	Query string `json:"query" validate:"required,min=2,max=200"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type SearchResponse struct {
	Query   string       `json:"query"`
	Results []Ranked     `json:"results"`
	Usage   quota.Status `json:"usage"`
}

type QuotaExceededResponse struct {
	Message string       `json:"message"`
	Usage   quota.Status `json:"usage"`
}

type ListParams struct {
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Region   string   `json:"region"`
	Sector   string   `json:"sector"`
	Status   string   `json:"status"`
	MinValue *float64 `json:"min_value"`
	MaxValue *float64 `json:"max_value"`
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
