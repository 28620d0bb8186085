package parser

import (
	"strings"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/tokenizer"
)

// QueryPlan is a conjunction of words: a document matches only if it
// contains every term.
type QueryPlan struct {
	Terms    []string
	RawQuery string
}

// Parse normalises query exactly like indexed text. An upper-case AND
// between words is accepted and ignored, since every query is a conjunction.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		RawQuery: query,
	}
	for _, word := range strings.Fields(query) {
		if word == "AND" {
			continue
		}
		plan.Terms = append(plan.Terms, tokenizer.Terms(word)...)
	}
	return plan
}

// Empty reports whether the plan has no terms to search for.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
