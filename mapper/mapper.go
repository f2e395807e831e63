// Package mapper exposes files and strings as flat byte views.
// File views are backed by mmap; string views wrap an in-memory buffer.
// All views are fixed-size and zero-copy.
package mapper

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Errors returned by mapper operations.
var (
	ErrEmptyFile   = errors.New("mapper: file is empty, nothing to read")
	ErrInvalidSize = errors.New("mapper: size must be positive")
	ErrReadonly    = errors.New("mapper: region is readonly")
	ErrClosed      = errors.New("mapper: region is closed")
)

// Mapper is a fixed-size readable byte view.
type Mapper interface {
	Bytes() []byte
	Size() int
	Close() error
}

// File is a memory-mapped file region.
// Open maps a file read-only; Create maps it read-write after truncating it
// to the requested size.
type File struct {
	path     string
	data     []byte
	file     *os.File
	writable bool
	closed   atomic.Bool
}

// Open maps path read-only. An empty file is rejected with ErrEmptyFile
// since a zero-length mmap is not possible.
func Open(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapper: %s: %w", path, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mapper: stat %s: %w", path, err)
	}
	if stat.Size() <= 0 {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mapper: map %s: %w", path, err)
	}
	return &File{path: path, data: data, file: file}, nil
}

// Create opens (or creates) path for writing, truncates it to exactly size
// bytes and maps it read-write.
func Create(path string, size int) (*File, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("mapper: %s: %w", path, err)
	}
	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		if errors.Is(err, unix.ENOSPC) {
			return nil, fmt.Errorf("mapper: no space left for %d bytes: %w", size, err)
		}
		return nil, fmt.Errorf("mapper: truncate %s to %d bytes: %w", path, size, err)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mapper: map %s: %w", path, err)
	}
	return &File{path: path, data: data, file: file, writable: true}, nil
}

// Bytes returns the mapped region, or nil once the region is closed.
func (f *File) Bytes() []byte {
	if f.closed.Load() {
		return nil
	}
	return f.data
}

// Size returns the mapped length in bytes.
func (f *File) Size() int { return len(f.data) }

// Path returns the path the file was opened or created with.
func (f *File) Path() string { return f.path }

// Sync flushes a writable region to disk.
func (f *File) Sync() error {
	if f.closed.Load() {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadonly
	}
	if err := unix.Msync(f.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("mapper: msync %s: %w", f.path, err)
	}
	return nil
}

// Close unmaps the region and then closes the file.
// Subsequent calls are no-ops.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if f.data != nil {
		if err := unix.Munmap(f.data); err != nil {
			errs = append(errs, fmt.Errorf("mapper: munmap %s: %w", f.path, err))
		}
		f.data = nil
	}
	if f.file != nil {
		if err := f.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mapper: close %s: %w", f.path, err))
		}
	}
	return errors.Join(errs...)
}

// Buffer is an in-memory byte view.
type Buffer struct {
	data []byte
}

// FromString returns a view over a copy of s.
func FromString(s string) *Buffer { return &Buffer{data: []byte(s)} }

// FromBytes returns a view over b without copying it.
func FromBytes(b []byte) *Buffer { return &Buffer{data: b} }

// Bytes returns the underlying data.
func (b *Buffer) Bytes() []byte { return b.data }

// Size returns the data length in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Close is a no-op.
func (b *Buffer) Close() error { return nil }
