package diskhash

import (
	"math"

	"github.com/KhaiTheTran/SystemsProgramming/internal/hashtable"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

const (
	RegionHeaderSize  = 4
	BucketRecordSize  = 8
	ElementHeaderSize = 4
)

// ElementCodec writes the payload of one table entry. Size must report
// exactly the number of bytes Write produces for the same entry.
type ElementCodec[K comparable, V any] interface {
	Size(k K, v V) int64
	Write(c *Cursor, k K, v V) error
}

// RegionSize returns the encoded size of t without writing anything.
func RegionSize[K comparable, V any](t *hashtable.Table[K, V], codec ElementCodec[K, V]) int64 {
	size := int64(RegionHeaderSize) + int64(BucketRecordSize)*int64(t.NumBuckets())
	t.Range(func(k K, v V) bool {
		size += ElementHeaderSize + codec.Size(k, v)
		return true
	})
	return size
}

// WriteRegion encodes t at the cursor's position and returns the number of
// bytes written.
func WriteRegion[K comparable, V any](c *Cursor, t *hashtable.Table[K, V], codec ElementCodec[K, V]) (int64, error) {
	numBuckets := t.NumBuckets()
	if uint64(numBuckets) > math.MaxUint32 {
		return 0, apperrors.Invalid("table has %d buckets", numBuckets)
	}
	start := c.Pos()

	// Size pass: payload sizes and the offset of each bucket's first element.
	sizes := make([][]int64, numBuckets)
	firsts := make([]int64, numBuckets)
	next := start + RegionHeaderSize + int64(BucketRecordSize)*int64(numBuckets)
	for i := 0; i < numBuckets; i++ {
		chain := t.Bucket(i)
		if len(chain) == 0 {
			continue
		}
		firsts[i] = next
		sizes[i] = make([]int64, len(chain))
		for j, e := range chain {
			sizes[i][j] = codec.Size(e.Key, e.Value)
			next += ElementHeaderSize + sizes[i][j]
		}
	}
	end := next

	// Place pass.
	if err := c.PutUint32(uint32(numBuckets)); err != nil {
		return 0, err
	}
	for i := 0; i < numBuckets; i++ {
		if err := c.PutUint32(uint32(len(t.Bucket(i)))); err != nil {
			return 0, err
		}
		if err := c.PutOffset(firsts[i]); err != nil {
			return 0, err
		}
	}
	for i := 0; i < numBuckets; i++ {
		chain := t.Bucket(i)
		for j, e := range chain {
			var nextElem int64
			if j < len(chain)-1 {
				nextElem = c.Pos() + ElementHeaderSize + sizes[i][j]
			}
			if err := c.PutOffset(nextElem); err != nil {
				return 0, err
			}
			payloadStart := c.Pos()
			if err := codec.Write(c, e.Key, e.Value); err != nil {
				return 0, err
			}
			if written := c.Pos() - payloadStart; written != sizes[i][j] {
				return 0, apperrors.Internal("element in bucket %d wrote %d bytes, sized %d", i, written, sizes[i][j])
			}
		}
	}
	if c.Pos() != end {
		return 0, apperrors.Internal("region wrote %d bytes, sized %d", c.Pos()-start, end-start)
	}
	return end - start, nil
}
