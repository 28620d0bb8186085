package index

import (
	"github.com/KhaiTheTran/SystemsProgramming/internal/hashtable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
)

// PostingList holds the zero-based word positions of one word in one
// document, in occurrence order.
type PostingList []uint32

// WordPostingSet maps every document containing Word to its PostingList.
type WordPostingSet struct {
	Word string
	Docs *hashtable.Table[doctable.DocumentID, PostingList]
}

// TermFrequency returns how often the word occurs in docID.
func (w *WordPostingSet) TermFrequency(docID doctable.DocumentID) (uint32, bool) {
	positions, ok := w.Docs.Lookup(docID)
	if !ok {
		return 0, false
	}
	return uint32(len(positions)), true
}

// NumDocs returns the number of documents containing the word.
func (w *WordPostingSet) NumDocs() int {
	return w.Docs.Len()
}
