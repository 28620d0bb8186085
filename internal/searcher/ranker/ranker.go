// Package ranker defines search results and their orderings. Rank is the sum
// of a document's term frequencies over every query word; there is no
// length or rarity normalisation.
package ranker

import (
	"sort"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
)

// SearchResult is one matching document of a single index.
type SearchResult struct {
	DocID doctable.DocumentID `json:"doc_id"`
	Rank  uint32              `json:"rank"`
}

// QueryResult is one matching document resolved to its name.
type QueryResult struct {
	DocumentName string `json:"document_name"`
	Rank         uint32 `json:"rank"`
}

// SortAscending orders results by rank, lowest first. Equal ranks keep their
// relative order.
func SortAscending(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Rank < results[j].Rank
	})
}

// Less reports whether a sorts before b: higher rank first, then by name.
func Less(a, b QueryResult) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	return a.DocumentName < b.DocumentName
}

func SortQueryResults(results []QueryResult) {
	sort.Slice(results, func(i, j int) bool {
		return Less(results[i], results[j])
	})
}
