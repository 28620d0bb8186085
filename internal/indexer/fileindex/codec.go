package fileindex

import (
	"math"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/diskhash"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

const (
	docElementFixed     = 8 + 2
	wordElementFixed    = 2 + 4
	postingElementFixed = 8 + 4
)

type docCodec struct{}

func (docCodec) Size(_ doctable.DocumentID, name string) int64 {
	return docElementFixed + int64(len(name))
}

func (docCodec) Write(c *diskhash.Cursor, id doctable.DocumentID, name string) error {
	if len(name) > math.MaxUint16 {
		return apperrors.Invalid("document name of %d bytes exceeds %d", len(name), math.MaxUint16)
	}
	if err := c.PutUint64(id); err != nil {
		return err
	}
	if err := c.PutUint16(uint16(len(name))); err != nil {
		return err
	}
	return c.PutBytes([]byte(name))
}

type postingCodec struct{}

func (postingCodec) Size(_ doctable.DocumentID, positions index.PostingList) int64 {
	return postingElementFixed + 4*int64(len(positions))
}

func (postingCodec) Write(c *diskhash.Cursor, id doctable.DocumentID, positions index.PostingList) error {
	if err := c.PutUint64(id); err != nil {
		return err
	}
	if err := c.PutUint32(uint32(len(positions))); err != nil {
		return err
	}
	for _, p := range positions {
		if err := c.PutUint32(p); err != nil {
			return err
		}
	}
	return nil
}

type wordCodec struct{}

func (wordCodec) Size(word string, set *index.WordPostingSet) int64 {
	return wordElementFixed + int64(len(word)) + diskhash.RegionSize(set.Docs, postingCodec{})
}

func (wordCodec) Write(c *diskhash.Cursor, word string, set *index.WordPostingSet) error {
	if len(word) > math.MaxUint16 {
		return apperrors.Invalid("word of %d bytes exceeds %d", len(word), math.MaxUint16)
	}
	nested := diskhash.RegionSize(set.Docs, postingCodec{})
	if nested > math.MaxUint32 {
		return apperrors.Invalid("doc table of %q is %d bytes", word, nested)
	}
	if err := c.PutUint16(uint16(len(word))); err != nil {
		return err
	}
	if err := c.PutUint32(uint32(nested)); err != nil {
		return err
	}
	if err := c.PutBytes([]byte(word)); err != nil {
		return err
	}
	_, err := diskhash.WriteRegion(c, set.Docs, postingCodec{})
	return err
}
