// Package fileindex writes an in-memory inverted index and its document
// table to a single immutable index file, and answers lookups against such
// files with random-access reads.
//
// File layout:
//
//	Header   := Magic:u32 Checksum:u32 DocTableSize:u32 IndexSize:u32
//	DocTable := diskhash region of DocID -> DocElement
//	Index    := diskhash region of Word -> WordElement
//
//	DocElement     := DocID:u64 NameLen:u16 Name
//	WordElement    := WordLen:u16 DocTableLen:u32 Word diskhash region of DocID -> PostingElement
//	PostingElement := DocID:u64 NumPositions:u32 Position:u32...
//
// Integers are big-endian. Checksum is the CRC-32 (IEEE) of the DocTable and
// Index bytes. A file whose header does not carry Magic was never committed.
package fileindex

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

const (
	MagicNumber uint32 = 0xCAFEF00D
	HeaderSize         = 16
	// checksumChunk is the read size used when folding a payload through CRC.
	checksumChunk = 64 * 1024
)

type Header struct {
	Magic        uint32
	Checksum     uint32
	DocTableSize uint32
	IndexSize    uint32
}

func (h Header) marshal() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint32(buf[4:8], h.Checksum)
	binary.BigEndian.PutUint32(buf[8:12], h.DocTableSize)
	binary.BigEndian.PutUint32(buf[12:16], h.IndexSize)
	return buf
}

func unmarshalHeader(buf []byte) Header {
	return Header{
		Magic:        binary.BigEndian.Uint32(buf[0:4]),
		Checksum:     binary.BigEndian.Uint32(buf[4:8]),
		DocTableSize: binary.BigEndian.Uint32(buf[8:12]),
		IndexSize:    binary.BigEndian.Uint32(buf[12:16]),
	}
}

// FileSize is the exact length of a file carrying this header.
func (h Header) FileSize() int64 {
	return HeaderSize + int64(h.DocTableSize) + int64(h.IndexSize)
}

// IndexOffset is where the index region starts.
func (h Header) IndexOffset() int64 {
	return HeaderSize + int64(h.DocTableSize)
}

// checksumRange folds n bytes of r starting at off through CRC-32.
func checksumRange(r io.ReaderAt, off, n int64) (uint32, error) {
	h := crc32.NewIEEE()
	if _, err := io.CopyBuffer(h, io.NewSectionReader(r, off, n), make([]byte, checksumChunk)); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
