package diskhash

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

const writeBufferSize = 256 * 1024

// Cursor is a buffered sequential writer that knows the absolute offset of
// the next byte it will write.
type Cursor struct {
	dst     io.WriterAt
	w       *bufio.Writer
	pos     int64
	scratch [8]byte
}

// Reservation marks a byte range written as zeros, to be filled later.
type Reservation struct {
	Offset int64
	Len    int
}

// NewCursor returns a Cursor that starts writing dst at offset start.
func NewCursor(dst io.WriterAt, start int64) *Cursor {
	return &Cursor{
		dst: dst,
		w:   bufio.NewWriterSize(io.NewOffsetWriter(dst, start), writeBufferSize),
		pos: start,
	}
}

// Pos returns the absolute offset of the next byte to be written.
func (c *Cursor) Pos() int64 {
	return c.pos
}

func (c *Cursor) PutUint16(v uint16) error {
	binary.BigEndian.PutUint16(c.scratch[:2], v)
	return c.PutBytes(c.scratch[:2])
}

func (c *Cursor) PutUint32(v uint32) error {
	binary.BigEndian.PutUint32(c.scratch[:4], v)
	return c.PutBytes(c.scratch[:4])
}

func (c *Cursor) PutUint64(v uint64) error {
	binary.BigEndian.PutUint64(c.scratch[:8], v)
	return c.PutBytes(c.scratch[:8])
}

// PutOffset writes an absolute offset in the 32-bit on-disk form.
func (c *Cursor) PutOffset(off int64) error {
	if off < 0 || off > math.MaxUint32 {
		return apperrors.Invalid("offset %d does not fit the index format", off)
	}
	return c.PutUint32(uint32(off))
}

func (c *Cursor) PutBytes(p []byte) error {
	if c.pos+int64(len(p)) > math.MaxUint32 {
		return apperrors.Invalid("index file would exceed %d bytes", uint64(math.MaxUint32))
	}
	n, err := c.w.Write(p)
	c.pos += int64(n)
	if err != nil {
		return apperrors.IOFailure("writing index data", err)
	}
	return nil
}

// Reserve writes n zero bytes and returns their location.
func (c *Cursor) Reserve(n int) (Reservation, error) {
	res := Reservation{Offset: c.pos, Len: n}
	if err := c.PutBytes(make([]byte, n)); err != nil {
		return Reservation{}, err
	}
	return res, nil
}

// Fill flushes buffered data and overwrites a reservation with data.
func (c *Cursor) Fill(res Reservation, data []byte) error {
	if len(data) != res.Len {
		return apperrors.Invalid("filling %d reserved bytes with %d bytes", res.Len, len(data))
	}
	if err := c.Flush(); err != nil {
		return err
	}
	if _, err := c.dst.WriteAt(data, res.Offset); err != nil {
		return apperrors.IOFailure("filling reserved bytes", err)
	}
	return nil
}

// Flush writes any buffered data to the destination.
func (c *Cursor) Flush() error {
	if err := c.w.Flush(); err != nil {
		return apperrors.IOFailure("flushing index data", err)
	}
	return nil
}
