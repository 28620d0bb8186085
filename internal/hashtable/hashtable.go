// Package hashtable implements a bucket-chained hash table whose bucket
// layout is visible to callers. The on-disk index codec walks the buckets
// directly, so the bucket an entry lands in is part of the file format.
package hashtable

import "github.com/cespare/xxhash/v2"

const (
	maxLoadFactor = 3
	growthFactor  = 9
)

// Entry is a single key/value pair stored in a bucket chain.
type Entry[K comparable, V any] struct {
	Hash  uint64
	Key   K
	Value V
}

// Table is a hash table of fixed-order bucket chains. It is not safe for
// concurrent mutation.
type Table[K comparable, V any] struct {
	buckets [][]Entry[K, V]
	hash    func(K) uint64
	count   int
}

// New creates a Table with numBuckets buckets (at least one) that places
// keys using hash.
func New[K comparable, V any](numBuckets int, hash func(K) uint64) *Table[K, V] {
	if numBuckets < 1 {
		numBuckets = 1
	}
	return &Table[K, V]{
		buckets: make([][]Entry[K, V], numBuckets),
		hash:    hash,
	}
}

// IdentityHash is the hash used for DocumentID-keyed tables.
func IdentityHash(k uint64) uint64 {
	return k
}

// StringHash is the hash used for word-keyed tables.
func StringHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// BucketFor returns the bucket index a hash maps to in a table of n buckets.
func BucketFor(hash uint64, n int) int {
	return int(hash % uint64(n))
}

// Insert stores v under k. If k was already present its previous value is
// returned and replaced is true.
func (t *Table[K, V]) Insert(k K, v V) (old V, replaced bool) {
	h := t.hash(k)
	b := BucketFor(h, len(t.buckets))
	chain := t.buckets[b]
	for i := range chain {
		if chain[i].Hash == h && chain[i].Key == k {
			old = chain[i].Value
			chain[i].Value = v
			return old, true
		}
	}
	t.buckets[b] = append(chain, Entry[K, V]{Hash: h, Key: k, Value: v})
	t.count++
	t.maybeResize()
	return old, false
}

// Lookup returns the value stored under k.
func (t *Table[K, V]) Lookup(k K) (V, bool) {
	h := t.hash(k)
	for _, e := range t.buckets[BucketFor(h, len(t.buckets))] {
		if e.Hash == h && e.Key == k {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// Remove deletes k, returning its value.
func (t *Table[K, V]) Remove(k K) (V, bool) {
	h := t.hash(k)
	b := BucketFor(h, len(t.buckets))
	chain := t.buckets[b]
	for i := range chain {
		if chain[i].Hash == h && chain[i].Key == k {
			v := chain[i].Value
			t.buckets[b] = append(chain[:i:i], chain[i+1:]...)
			t.count--
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of stored entries.
func (t *Table[K, V]) Len() int {
	return t.count
}

// NumBuckets returns the current bucket count.
func (t *Table[K, V]) NumBuckets() int {
	return len(t.buckets)
}

// Bucket returns the chain of bucket i in insertion order. The slice must
// not be modified.
func (t *Table[K, V]) Bucket(i int) []Entry[K, V] {
	return t.buckets[i]
}

// Range calls fn for every entry, bucket by bucket in chain order, until fn
// returns false.
func (t *Table[K, V]) Range(fn func(k K, v V) bool) {
	for _, chain := range t.buckets {
		for _, e := range chain {
			if !fn(e.Key, e.Value) {
				return
			}
		}
	}
}

func (t *Table[K, V]) maybeResize() {
	if t.count/len(t.buckets) <= maxLoadFactor {
		return
	}
	grown := make([][]Entry[K, V], len(t.buckets)*growthFactor)
	for _, chain := range t.buckets {
		for _, e := range chain {
			b := BucketFor(e.Hash, len(grown))
			grown[b] = append(grown[b], e)
		}
	}
	t.buckets = grown
}
