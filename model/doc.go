package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/vpatel95/text-vector/mapper"
)

const docHeaderSize = 8 + 2 // count uint64, dim uint16

// DocModel maps document ids to vectors. It is safe for concurrent use.
type DocModel struct {
	Store[uint64]

	ioMu   sync.Mutex
	errMu  sync.Mutex
	errMsg string
}

// NewDocModel returns an empty model of the given dimension.
func NewDocModel(dim int) *DocModel {
	if dim <= 0 || dim > math.MaxUint16 {
		panic("model: dimension must be in [1, 65535]")
	}
	m := &DocModel{}
	m.reset(dim, map[uint64]Vector{})
	return m
}

// ErrMsg returns the reason the last bool-returning call failed.
func (m *DocModel) ErrMsg() string {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.errMsg
}

func (m *DocModel) result(err error) bool {
	if err == nil {
		return true
	}
	m.errMu.Lock()
	m.errMsg = err.Error()
	m.errMu.Unlock()
	return false
}

// Set stores a copy of v under id, replacing any previous vector. With
// checkUnique it refuses (returns false) when any stored vector, including
// the one already under id, is closer than DuplicateDistance.
func (m *DocModel) Set(id uint64, v Vector, checkUnique bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(v) != m.dim {
		panic("model: dimension mismatch")
	}
	if checkUnique {
		for _, u := range m.vectors {
			if Distance(v, u) > DuplicateDistance {
				return false
			}
		}
	}
	m.vectors[id] = v.Clone()
	return true
}

// Erase removes id. Absent ids are ignored.
func (m *DocModel) Erase(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, id)
}

// Save is SaveFile reporting failure via ErrMsg.
func (m *DocModel) Save(path string) bool { return m.result(m.SaveFile(path)) }

// SaveFile writes {count uint64, dim uint16} followed by {id uint64,
// dim × float32} records in ascending id order, all little-endian.
func (m *DocModel) SaveFile(path string) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uint64, 0, len(m.vectors))
	for id := range m.vectors {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out, err := mapper.Create(path, docFileSize(len(ids), m.dim))
	if err != nil {
		return err
	}
	c := mapper.NewCursor(out.Bytes())
	err = func() error {
		if err := c.PutUint64(uint64(len(ids))); err != nil {
			return err
		}
		if err := c.PutUint16(uint16(m.dim)); err != nil {
			return err
		}
		for _, id := range ids {
			if err := c.PutUint64(id); err != nil {
				return err
			}
			if err := c.PutFloat32s(m.vectors[id]); err != nil {
				return err
			}
		}
		return out.Sync()
	}()
	return errors.Join(err, out.Close())
}

// Load is LoadFile reporting failure via ErrMsg.
func (m *DocModel) Load(path string) bool { return m.result(m.LoadFile(path)) }

// LoadFile replaces the model contents with the file at path, adopting its
// dimension. On failure the model is left empty.
func (m *DocModel) LoadFile(path string) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.reset(m.Dim(), map[uint64]Vector{})

	in, err := mapper.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	c := mapper.NewCursor(in.Bytes())
	count, err := c.Uint64()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrongFormat, err)
	}
	dim16, err := c.Uint16()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrongFormat, err)
	}
	dim := int(dim16)
	if dim == 0 {
		return fmt.Errorf("%w: zero vector size", ErrWrongFormat)
	}
	record := uint64(8 + 4*dim)
	if count > uint64(in.Size()) || uint64(docHeaderSize)+count*record != uint64(in.Size()) {
		return fmt.Errorf("%w: %d records of size %d do not match file size %d", ErrWrongFormat, count, dim, in.Size())
	}

	vectors := make(map[uint64]Vector, count)
	for i := range count {
		id, err := c.Uint64()
		if err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrWrongFormat, i, err)
		}
		v := make(Vector, dim)
		if err := c.Float32s(v); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrWrongFormat, i, err)
		}
		vectors[id] = v
	}
	m.reset(dim, vectors)
	return nil
}

func docFileSize(count, dim int) int {
	return docHeaderSize + count*(8+4*dim)
}
