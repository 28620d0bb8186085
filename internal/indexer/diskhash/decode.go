package diskhash

import (
	"encoding/binary"
	"errors"
	"io"

	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// BucketRecord is the on-disk summary of one bucket.
type BucketRecord struct {
	ChainLen     uint32
	FirstElement uint32
}

// Region is a read-only view of an encoded table starting at base.
type Region struct {
	r          io.ReaderAt
	base       int64
	numBuckets uint32
}

// OpenRegion reads the bucket count of the region at base.
func OpenRegion(r io.ReaderAt, base int64) (*Region, error) {
	rg := &Region{r: r, base: base}
	n, err := rg.Uint32At(base)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.Corrupt("region at %d has no buckets", base)
	}
	rg.numBuckets = n
	return rg, nil
}

func (rg *Region) Base() int64 {
	return rg.base
}

func (rg *Region) NumBuckets() uint32 {
	return rg.numBuckets
}

// BucketAt reads the record of bucket i.
func (rg *Region) BucketAt(i uint32) (BucketRecord, error) {
	if i >= rg.numBuckets {
		return BucketRecord{}, apperrors.Invalid("bucket %d out of range [0,%d)", i, rg.numBuckets)
	}
	var buf [BucketRecordSize]byte
	if err := rg.readFull(buf[:], rg.base+RegionHeaderSize+int64(i)*BucketRecordSize); err != nil {
		return BucketRecord{}, err
	}
	rec := BucketRecord{
		ChainLen:     binary.BigEndian.Uint32(buf[0:4]),
		FirstElement: binary.BigEndian.Uint32(buf[4:8]),
	}
	if (rec.ChainLen == 0) != (rec.FirstElement == 0) {
		return BucketRecord{}, apperrors.Corrupt("bucket %d: chain length %d with first element %d",
			i, rec.ChainLen, rec.FirstElement)
	}
	return rec, nil
}

// Bucket reads the record of the bucket that hash selects.
func (rg *Region) Bucket(hash uint64) (BucketRecord, error) {
	return rg.BucketAt(uint32(hash % uint64(rg.numBuckets)))
}

// Lookup walks the chain of the bucket selected by hash and returns the
// payload offset of the first element for which match reports true.
func (rg *Region) Lookup(hash uint64, match func(payload int64) (bool, error)) (int64, bool, error) {
	rec, err := rg.Bucket(hash)
	if err != nil {
		return 0, false, err
	}
	var found int64
	err = rg.walkChain(rec, func(payload int64) (bool, error) {
		ok, err := match(payload)
		if err != nil || !ok {
			return true, err
		}
		found = payload
		return false, nil
	})
	if err != nil {
		return 0, false, err
	}
	return found, found != 0, nil
}

// Walk calls fn with the payload offset of every element, bucket by bucket
// in chain order.
func (rg *Region) Walk(fn func(payload int64) error) error {
	for i := uint32(0); i < rg.numBuckets; i++ {
		rec, err := rg.BucketAt(i)
		if err != nil {
			return err
		}
		err = rg.walkChain(rec, func(payload int64) (bool, error) {
			return true, fn(payload)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// walkChain visits the elements of one chain until fn returns false or an
// error. The chain must hold exactly rec.ChainLen elements at strictly
// increasing offsets.
func (rg *Region) walkChain(rec BucketRecord, fn func(payload int64) (bool, error)) error {
	elem := int64(rec.FirstElement)
	for n := uint32(0); n < rec.ChainLen; n++ {
		if elem == 0 {
			return apperrors.Corrupt("chain ends after %d of %d elements", n, rec.ChainLen)
		}
		if elem <= rg.base {
			return apperrors.Corrupt("element offset %d precedes region at %d", elem, rg.base)
		}
		next, err := rg.Uint32At(elem)
		if err != nil {
			return err
		}
		more, err := fn(elem + ElementHeaderSize)
		if err != nil || !more {
			return err
		}
		if next != 0 && int64(next) <= elem {
			return apperrors.Corrupt("element at %d links backwards to %d", elem, next)
		}
		elem = int64(next)
	}
	if elem != 0 {
		return apperrors.Corrupt("chain continues past its %d recorded elements", rec.ChainLen)
	}
	return nil
}

func (rg *Region) Uint16At(off int64) (uint16, error) {
	var buf [2]byte
	if err := rg.readFull(buf[:], off); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (rg *Region) Uint32At(off int64) (uint32, error) {
	var buf [4]byte
	if err := rg.readFull(buf[:], off); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (rg *Region) Uint64At(off int64) (uint64, error) {
	var buf [8]byte
	if err := rg.readFull(buf[:], off); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// BytesAt reads n bytes at off into a new slice.
func (rg *Region) BytesAt(off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := rg.readFull(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReaderAt returns the underlying reader, for opening nested regions.
func (rg *Region) ReaderAt() io.ReaderAt {
	return rg.r
}

func (rg *Region) readFull(buf []byte, off int64) error {
	n, err := rg.r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperrors.Corrupt("short read of %d bytes at offset %d", len(buf), off)
	}
	return apperrors.IOFailure("reading index data", err)
}
