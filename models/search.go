package models

import "strings"

const DefaultPageSize = 10

// RankingMode is the ranking the engine used to order a result page.
type RankingMode string

const (
	RankingSemantic RankingMode = "semantic"
	RankingLexical  RankingMode = "lexical"
)

// SearchQuery is a paginated query request. PageNumber is zero based.
type SearchQuery struct {
	Query      string `json:"query" form:"q"`
	PageSize   int    `json:"pageSize" form:"pageSize"`
	PageNumber int    `json:"pageNumber" form:"pageNumber"`
}

// Normalized trims the query text and applies the default page size.
func (q SearchQuery) Normalized() SearchQuery {
	q.Query = strings.TrimSpace(q.Query)
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Skip is the number of matches to pass over before the requested page.
func (q SearchQuery) Skip() int {
	return q.PageNumber * q.PageSize
}

// SearchResult is one ranked match. Caption is only set by semantic ranking.
type SearchResult struct {
	Document DocumentRecord `json:"document"`
	Score    float64        `json:"score"`
	Caption  *string        `json:"caption"`
}

// SearchOutcome is one page of results. TotalCount is as reported by the
// engine and may be an estimate.
type SearchOutcome struct {
	TotalCount int64          `json:"totalCount"`
	Results    []SearchResult `json:"results"`
	Ranking    RankingMode    `json:"ranking"`
}
