package fileindex

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/diskhash"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// Writer serialises a MemoryIndex and its document table into an index file.
type Writer struct {
	logger *slog.Logger
}

func NewWriter() *Writer {
	return &Writer{
		logger: slog.Default().With("component", "index-writer"),
	}
}

// WriteIndex writes mi and dt to path and returns the file length. The file
// is built under path+".tmp", its header written last and synced, then
// renamed onto path, so a reader holding the previous file keeps seeing it
// intact. On any failure the temporary file is removed and path is untouched.
func (w *Writer) WriteIndex(mi *index.MemoryIndex, dt *doctable.Table, path string) (int64, error) {
	if mi == nil || dt == nil {
		return 0, apperrors.Invalid("writing index: nil index or document table")
	}
	if path == "" {
		return 0, apperrors.Invalid("writing index: empty path")
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, apperrors.IOFailure("creating index file", err)
	}

	header, err := w.write(f, mi, dt)
	closeErr := f.Close()
	if err == nil && closeErr != nil {
		err = apperrors.IOFailure("closing index file", closeErr)
	}
	if err == nil {
		if renameErr := os.Rename(tmpPath, path); renameErr != nil {
			err = apperrors.IOFailure("renaming index file into place", renameErr)
		}
	}
	if err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			w.logger.Warn("removing partial index file", "path", tmpPath, "error", rmErr)
		}
		return 0, fmt.Errorf("writing index %s: %w", path, err)
	}

	w.logger.Info("index file written",
		"path", path,
		"bytes", header.FileSize(),
		"doctable_size", header.DocTableSize,
		"index_size", header.IndexSize,
		"checksum", fmt.Sprintf("%08x", header.Checksum),
		"documents", dt.Count(),
		"words", mi.Count(),
	)
	return header.FileSize(), nil
}

func (w *Writer) write(f *os.File, mi *index.MemoryIndex, dt *doctable.Table) (Header, error) {
	c := diskhash.NewCursor(f, 0)
	res, err := c.Reserve(HeaderSize)
	if err != nil {
		return Header{}, err
	}

	docSize, err := diskhash.WriteRegion(c, dt.IDTable(), docCodec{})
	if err != nil {
		return Header{}, fmt.Errorf("doc table region: %w", err)
	}
	idxSize, err := diskhash.WriteRegion(c, mi.Table(), wordCodec{})
	if err != nil {
		return Header{}, fmt.Errorf("index region: %w", err)
	}
	if docSize > math.MaxUint32 || idxSize > math.MaxUint32 {
		return Header{}, apperrors.Invalid("regions of %d and %d bytes exceed the format", docSize, idxSize)
	}
	if err := c.Flush(); err != nil {
		return Header{}, err
	}
	if err := f.Sync(); err != nil {
		return Header{}, apperrors.IOFailure("syncing index payload", err)
	}

	// Checksum what reached the disk, not what is in memory.
	sum, err := checksumRange(f, HeaderSize, docSize+idxSize)
	if err != nil {
		return Header{}, apperrors.IOFailure("checksumming index payload", err)
	}
	header := Header{
		Magic:        MagicNumber,
		Checksum:     sum,
		DocTableSize: uint32(docSize),
		IndexSize:    uint32(idxSize),
	}
	if err := c.Fill(res, header.marshal()); err != nil {
		return Header{}, err
	}
	if err := f.Sync(); err != nil {
		return Header{}, apperrors.IOFailure("syncing index header", err)
	}
	return header, nil
}
