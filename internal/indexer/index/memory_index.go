package index

import (
	"sync"

	"github.com/KhaiTheTran/SystemsProgramming/internal/hashtable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

const (
	DefaultBuckets    = 128
	defaultDocBuckets = 128
)

// MemoryIndex is the in-memory inverted index: word -> WordPostingSet.
type MemoryIndex struct {
	mu    sync.RWMutex
	words *hashtable.Table[string, *WordPostingSet]
}

func NewMemoryIndex(numBuckets int) *MemoryIndex {
	if numBuckets <= 0 {
		numBuckets = DefaultBuckets
	}
	return &MemoryIndex{
		words: hashtable.New[string, *WordPostingSet](numBuckets, hashtable.StringHash),
	}
}

// AddPosting records that word occurs in docID at positions. Each (word,
// docID) pair may be added once; the index keeps positions as given.
func (m *MemoryIndex) AddPosting(word string, docID doctable.DocumentID, positions PostingList) error {
	if word == "" {
		return apperrors.Invalid("adding posting: empty word")
	}
	if docID == 0 {
		return apperrors.Invalid("adding posting for %q: document id 0 is reserved", word)
	}
	if len(positions) == 0 {
		return apperrors.Invalid("adding posting for %q in doc %d: no positions", word, docID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set, exists := m.words.Lookup(word)
	if !exists {
		set = &WordPostingSet{
			Word: word,
			Docs: hashtable.New[doctable.DocumentID, PostingList](defaultDocBuckets, hashtable.IdentityHash),
		}
		m.words.Insert(word, set)
	}
	if _, dup := set.Docs.Lookup(docID); dup {
		return apperrors.Invalid("adding posting for %q: doc %d already present", word, docID)
	}
	set.Docs.Insert(docID, positions)
	return nil
}

// Lookup returns the posting set of word.
func (m *MemoryIndex) Lookup(word string) (*WordPostingSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.words.Lookup(word)
}

// Count returns the number of distinct words.
func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.words.Len()
}

// Table exposes the bucketed word table for serialisation. Callers must not
// mutate the index while using it.
func (m *MemoryIndex) Table() *hashtable.Table[string, *WordPostingSet] {
	return m.words
}

// Destroy releases every word, inner table and posting list.
func (m *MemoryIndex) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words = hashtable.New[string, *WordPostingSet](1, hashtable.StringHash)
}
