package mapper

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrOutOfBounds is returned when a cursor operation would run past the end
// of its buffer.
var ErrOutOfBounds = errors.New("mapper: out of bounds")

var byteOrder = binary.LittleEndian

// Cursor is a sequential reader/writer over a byte slice.
// Every operation is bounds-checked and fails with ErrOutOfBounds instead of
// touching memory outside the slice. A failed operation does not advance.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor { return &Cursor{buf: buf} }

// Offset returns the current position.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of bytes after the current position.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Next returns the next n bytes and advances past them.
// The returned slice aliases the underlying buffer.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, c.off, c.Remaining())
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadByte consumes one byte.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Peek returns the next byte without advancing.
func (c *Cursor) Peek() (byte, bool) {
	if c.off >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.off], true
}

// ReadUntil returns the bytes up to (not including) delim and advances past
// delim. If delim does not occur before the end of the buffer it fails.
func (c *Cursor) ReadUntil(delim byte) ([]byte, error) {
	i := bytes.IndexByte(c.buf[c.off:], delim)
	if i < 0 {
		return nil, fmt.Errorf("%w: delimiter %q not found after offset %d", ErrOutOfBounds, delim, c.off)
	}
	b := c.buf[c.off : c.off+i]
	c.off += i + 1
	return b, nil
}

// Uint16 reads a little-endian uint16.
func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Next(2)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint16(b), nil
}

// Uint64 reads a little-endian uint64.
func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.Next(8)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b), nil
}

// Float32s fills dst with consecutive little-endian float32 values.
func (c *Cursor) Float32s(dst []float32) error {
	b, err := c.Next(4 * len(dst))
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(byteOrder.Uint32(b[4*i:]))
	}
	return nil
}

// Write copies p at the cursor and advances past it.
func (c *Cursor) Write(p []byte) (int, error) {
	dst, err := c.Next(len(p))
	if err != nil {
		return 0, err
	}
	return copy(dst, p), nil
}

// WriteString copies s at the current position.
func (c *Cursor) WriteString(s string) (int, error) {
	dst, err := c.Next(len(s))
	if err != nil {
		return 0, err
	}
	return copy(dst, s), nil
}

// WriteByte writes one byte.
func (c *Cursor) WriteByte(b byte) error {
	dst, err := c.Next(1)
	if err != nil {
		return err
	}
	dst[0] = b
	return nil
}

// PutUint16 writes v little-endian.
func (c *Cursor) PutUint16(v uint16) error {
	dst, err := c.Next(2)
	if err != nil {
		return err
	}
	byteOrder.PutUint16(dst, v)
	return nil
}

// PutUint64 writes v little-endian.
func (c *Cursor) PutUint64(v uint64) error {
	dst, err := c.Next(8)
	if err != nil {
		return err
	}
	byteOrder.PutUint64(dst, v)
	return nil
}

// PutFloat32s writes src as little-endian IEEE 754 values.
func (c *Cursor) PutFloat32s(src []float32) error {
	dst, err := c.Next(4 * len(src))
	if err != nil {
		return err
	}
	for i, v := range src {
		byteOrder.PutUint32(dst[4*i:], math.Float32bits(v))
	}
	return nil
}
