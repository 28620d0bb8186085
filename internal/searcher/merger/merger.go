package merger

import (
	"container/heap"

	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
)

// Merge combines per-file result lists into one list in ranker.Less order.
// With limit > 0 only the best limit results are kept.
func Merge(lists [][]ranker.QueryResult, limit int) []ranker.QueryResult {
	if limit <= 0 {
		var all []ranker.QueryResult
		for _, results := range lists {
			all = append(all, results...)
		}
		ranker.SortQueryResults(all)
		return all
	}
	h := &resultHeap{}
	heap.Init(h)
	for _, results := range lists {
		for _, r := range results {
			heap.Push(h, r)
			if h.Len() > limit {
				heap.Pop(h)
			}
		}
	}
	if h.Len() == 0 {
		return nil
	}
	merged := make([]ranker.QueryResult, h.Len())
	for i := len(merged) - 1; i >= 0; i-- {
		merged[i] = heap.Pop(h).(ranker.QueryResult)
	}
	return merged
}

// resultHeap keeps the worst retained result on top.
type resultHeap []ranker.QueryResult

func (h resultHeap) Len() int { return len(h) }

func (h resultHeap) Less(i, j int) bool {
	return ranker.Less(h[j], h[i])
}

func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x interface{}) {
	*h = append(*h, x.(ranker.QueryResult))
}

func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
