package executor

import (
	"context"
	"log/slog"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// Executor answers conjunctive queries against an in-memory index.
type Executor struct {
	index  *index.MemoryIndex
	logger *slog.Logger
}

func New(mi *index.MemoryIndex) *Executor {
	return &Executor{
		index:  mi,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute returns the documents containing every word, ranked by the sum of
// their term frequencies, lowest rank first. No match is a nil slice and a
// nil error.
func (e *Executor) Execute(ctx context.Context, words []string) ([]ranker.SearchResult, error) {
	if len(words) == 0 {
		return nil, apperrors.Invalid("executing query: no words")
	}
	out, err := intersect(ctx, words, func(word string) (postingSet, bool, error) {
		set, ok := e.index.Lookup(word)
		if !ok {
			return nil, false, nil
		}
		return memorySet{set}, true, nil
	})
	if err != nil {
		return nil, err
	}
	ranker.SortAscending(out)
	e.logger.Debug("query executed", "words", words, "results", len(out))
	return out, nil
}

// postingSet is the per-word view the intersection needs: the documents in
// bucket order and a term-frequency probe.
type postingSet interface {
	Docs() ([]ranker.SearchResult, error)
	TermFrequency(id doctable.DocumentID) (uint32, bool, error)
}

type memorySet struct {
	set *index.WordPostingSet
}

func (m memorySet) Docs() ([]ranker.SearchResult, error) {
	out := make([]ranker.SearchResult, 0, m.set.NumDocs())
	m.set.Docs.Range(func(id doctable.DocumentID, positions index.PostingList) bool {
		out = append(out, ranker.SearchResult{DocID: id, Rank: uint32(len(positions))})
		return true
	})
	return out, nil
}

func (m memorySet) TermFrequency(id doctable.DocumentID) (uint32, bool, error) {
	tf, ok := m.set.TermFrequency(id)
	return tf, ok, nil
}

// intersect evaluates words as a conjunction over lookup. The first word
// seeds the results, each later word filters them and adds its frequency.
func intersect(ctx context.Context, words []string, lookup func(string) (postingSet, bool, error)) ([]ranker.SearchResult, error) {
	first, ok, err := lookup(words[0])
	if err != nil || !ok {
		return nil, err
	}
	results, err := first.Docs()
	if err != nil || len(results) == 0 {
		return nil, err
	}
	for _, word := range words[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, ok, err := lookup(word)
		if err != nil || !ok {
			return nil, err
		}
		kept := results[:0]
		for _, r := range results {
			tf, present, err := set.TermFrequency(r.DocID)
			if err != nil {
				return nil, err
			}
			if present {
				r.Rank += tf
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return nil, nil
		}
		results = kept
	}
	return results, nil
}
