package fileindex

import (
	"encoding/binary"
	"os"

	"github.com/KhaiTheTran/SystemsProgramming/internal/hashtable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/diskhash"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// IndexTableReader looks words up in the index region of a file.
type IndexTableReader struct {
	file   *os.File
	region *diskhash.Region
	end    int64
}

// newIndexTableReader opens the index region at base. end is the offset
// just past the region; no nested table may extend beyond it.
func newIndexTableReader(f *os.File, base, end int64) (*IndexTableReader, error) {
	rg, err := diskhash.OpenRegion(f, base)
	if err != nil {
		return nil, err
	}
	return &IndexTableReader{file: f, region: rg, end: end}, nil
}

// LookupWord returns a reader over the documents containing word.
func (x *IndexTableReader) LookupWord(word string) (*DocIDTableReader, bool, error) {
	if word == "" {
		return nil, false, apperrors.Invalid("looking up word: empty word")
	}
	payload, found, err := x.region.Lookup(hashtable.StringHash(word), func(p int64) (bool, error) {
		n, err := x.region.Uint16At(p)
		if err != nil || int(n) != len(word) {
			return false, err
		}
		stored, err := x.region.BytesAt(p+wordElementFixed, int(n))
		return string(stored) == word, err
	})
	if err != nil || !found {
		return nil, false, err
	}
	dr, err := x.docIDTable(payload, len(word))
	if err != nil {
		return nil, false, err
	}
	return dr, true, nil
}

// Words returns every word in the index, in bucket order.
func (x *IndexTableReader) Words() ([]string, error) {
	var words []string
	err := x.region.Walk(func(p int64) error {
		word, err := x.readWord(p)
		if err != nil {
			return err
		}
		words = append(words, word)
		return nil
	})
	return words, err
}

func (x *IndexTableReader) readWord(p int64) (string, error) {
	n, err := x.region.Uint16At(p)
	if err != nil {
		return "", err
	}
	b, err := x.region.BytesAt(p+wordElementFixed, int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (x *IndexTableReader) docIDTable(p int64, wordLen int) (*DocIDTableReader, error) {
	size, err := x.region.Uint32At(p + 2)
	if err != nil {
		return nil, err
	}
	base := p + wordElementFixed + int64(wordLen)
	rg, err := diskhash.OpenRegion(x.region.ReaderAt(), base)
	if err != nil {
		return nil, err
	}
	if floor := int64(diskhash.RegionHeaderSize) + int64(diskhash.BucketRecordSize)*int64(rg.NumBuckets()); int64(size) < floor {
		return nil, apperrors.Corrupt("doc table at %d is %d bytes, needs at least %d", base, size, floor)
	}
	end := base + int64(size)
	if end > x.end {
		return nil, apperrors.Corrupt("doc table at %d runs to %d, past the index region end %d", base, end, x.end)
	}
	return &DocIDTableReader{region: rg, end: end}, nil
}

func (x *IndexTableReader) Close() error {
	return x.file.Close()
}

// DocIDElement summarises one posting of a word.
type DocIDElement struct {
	DocID        doctable.DocumentID
	NumPositions uint32
}

// DocIDTableReader reads the nested DocID -> positions table of one word.
// It shares the file of the IndexTableReader that produced it.
type DocIDTableReader struct {
	region *diskhash.Region
	end    int64
}

// GetDocIDList returns every document of the word with its term frequency,
// in bucket order.
func (d *DocIDTableReader) GetDocIDList() ([]DocIDElement, error) {
	var list []DocIDElement
	err := d.region.Walk(func(p int64) error {
		id, err := d.region.Uint64At(p)
		if err != nil {
			return err
		}
		n, err := d.region.Uint32At(p + 8)
		if err != nil {
			return err
		}
		list = append(list, DocIDElement{DocID: id, NumPositions: n})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// LookupDocID returns the positions of the word in id.
func (d *DocIDTableReader) LookupDocID(id doctable.DocumentID) (index.PostingList, bool, error) {
	payload, found, err := d.region.Lookup(hashtable.IdentityHash(id), func(p int64) (bool, error) {
		stored, err := d.region.Uint64At(p)
		return stored == id, err
	})
	if err != nil || !found {
		return nil, false, err
	}
	positions, err := d.readPositions(payload)
	if err != nil {
		return nil, false, err
	}
	return positions, true, nil
}

// TermFrequency returns how many positions the word has in id without
// reading them.
func (d *DocIDTableReader) TermFrequency(id doctable.DocumentID) (uint32, bool, error) {
	payload, found, err := d.region.Lookup(hashtable.IdentityHash(id), func(p int64) (bool, error) {
		stored, err := d.region.Uint64At(p)
		return stored == id, err
	})
	if err != nil || !found {
		return 0, false, err
	}
	n, err := d.region.Uint32At(payload + 8)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (d *DocIDTableReader) readPositions(p int64) (index.PostingList, error) {
	n, err := d.region.Uint32At(p + 8)
	if err != nil {
		return nil, err
	}
	start := p + postingElementFixed
	if avail := d.end - start; avail < 0 || int64(n) > avail/4 {
		return nil, apperrors.Corrupt("posting at %d claims %d positions, table ends at %d", p, n, d.end)
	}
	raw, err := d.region.BytesAt(start, 4*int(n))
	if err != nil {
		return nil, err
	}
	positions := make(index.PostingList, n)
	for i := range positions {
		positions[i] = binary.BigEndian.Uint32(raw[4*i:])
	}
	return positions, nil
}
