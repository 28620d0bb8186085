package executor

import (
	"context"

	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/parser"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
)

// SearchResponse is the answer to one parsed query.
type SearchResponse struct {
	Query     string               `json:"query"`
	Terms     []string             `json:"terms"`
	TotalHits int                  `json:"total_hits"`
	Results   []ranker.QueryResult `json:"results"`
}

// Execute runs plan against every file and keeps the best limit results.
// TotalHits counts all matches before the limit is applied.
func (p *Processor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResponse, error) {
	resp := &SearchResponse{
		Query:   plan.RawQuery,
		Terms:   plan.Terms,
		Results: []ranker.QueryResult{},
	}
	if plan.Empty() {
		return resp, nil
	}
	all, err := p.ProcessQuery(ctx, plan.Terms)
	if err != nil {
		return nil, err
	}
	resp.TotalHits = len(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if all != nil {
		resp.Results = all
	}
	return resp, nil
}
