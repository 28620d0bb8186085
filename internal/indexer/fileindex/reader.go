package fileindex

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// Reader is an opened, header-checked index file. Sub-readers obtained from
// it own their own file handles and may be used concurrently.
type Reader struct {
	file   *os.File
	path   string
	header Header
	logger *slog.Logger
}

// Open opens the index file at path and checks its header and length. With
// validate set the payload checksum is verified as well.
func Open(path string, validate bool) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.IOFailure("opening index file", err)
	}
	r := &Reader{
		file:   f,
		path:   path,
		logger: slog.Default().With("component", "index-reader", "path", path),
	}
	if err := r.check(validate); err != nil {
		f.Close()
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	return r, nil
}

func (r *Reader) check(validate bool) error {
	buf := make([]byte, HeaderSize)
	if _, err := r.file.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return apperrors.Corrupt("file shorter than its %d byte header", HeaderSize)
		}
		return apperrors.IOFailure("reading index header", err)
	}
	r.header = unmarshalHeader(buf)
	if r.header.Magic != MagicNumber {
		return apperrors.Corrupt("bad magic %08x", r.header.Magic)
	}

	info, err := r.file.Stat()
	if err != nil {
		return apperrors.IOFailure("stat index file", err)
	}
	if info.Size() != r.header.FileSize() {
		return apperrors.Corrupt("file is %d bytes, header describes %d", info.Size(), r.header.FileSize())
	}

	if !validate {
		return nil
	}
	sum, err := checksumRange(r.file, HeaderSize, int64(r.header.DocTableSize)+int64(r.header.IndexSize))
	if err != nil {
		return apperrors.IOFailure("checksumming index payload", err)
	}
	if sum != r.header.Checksum {
		return apperrors.Corrupt("checksum %08x, header records %08x", sum, r.header.Checksum)
	}
	r.logger.Debug("index checksum verified", "checksum", fmt.Sprintf("%08x", sum))
	return nil
}

func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) Path() string {
	return r.path
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// GetDocTableReader returns a reader over the document table region.
func (r *Reader) GetDocTableReader() (*DocTableReader, error) {
	f, err := r.reopen()
	if err != nil {
		return nil, err
	}
	dtr, err := newDocTableReader(f, HeaderSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("doc table of %s: %w", r.path, err)
	}
	return dtr, nil
}

// GetIndexTableReader returns a reader over the word region.
func (r *Reader) GetIndexTableReader() (*IndexTableReader, error) {
	f, err := r.reopen()
	if err != nil {
		return nil, err
	}
	itr, err := newIndexTableReader(f, r.header.IndexOffset(), r.header.FileSize())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("index table of %s: %w", r.path, err)
	}
	return itr, nil
}

// reopen opens another handle on the checked file. If path has been
// replaced since Open, the new file does not match r.header and is refused.
func (r *Reader) reopen() (*os.File, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, apperrors.IOFailure("reopening index file", err)
	}
	opened, err := r.file.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.IOFailure("stat index file", err)
	}
	now, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.IOFailure("stat index file", err)
	}
	if !os.SameFile(opened, now) {
		f.Close()
		return nil, apperrors.Unavailable("index file %s was replaced after it was opened", r.path)
	}
	return f, nil
}
