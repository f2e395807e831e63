// Package model stores trained embeddings, persists them in the word and
// document binary formats and answers nearest-neighbour queries.
//
// Stored vectors are scaled so that their mean square component is 1; the
// similarity of two such vectors is Distance, the square root of their
// cosine when positive.
package model

import (
	"errors"
	"math"

	"github.com/viterin/vek/vek32"
)

// ErrZeroNorm is returned when a vector cannot be renormalized.
var ErrZeroNorm = errors.New("model: vector has zero norm")

// Vector is a dense embedding.
type Vector []float32

// NewVector returns a zero Vector of the given dimension.
func NewVector(dim int) Vector {
	if dim <= 0 {
		panic("model: dimension must be positive")
	}
	return make(Vector, dim)
}

// Dim returns the number of components.
func (v Vector) Dim() int { return len(v) }

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// Renormalize scales v in place so that its mean square component is 1.
func (v Vector) Renormalize() error {
	if len(v) == 0 {
		return ErrZeroNorm
	}
	norm := math.Sqrt(float64(vek32.Dot(v, v)) / float64(len(v)))
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return ErrZeroNorm
	}
	vek32.MulNumber_Inplace(v, float32(1/norm))
	return nil
}

// Add returns the renormalized sum of v and o.
func (v Vector) Add(o Vector) (Vector, error) {
	requireSameDim(v, o)
	r := v.Clone()
	vek32.Add_Inplace(r, o)
	if err := r.Renormalize(); err != nil {
		return nil, err
	}
	return r, nil
}

// Sub returns the renormalized difference v - o.
func (v Vector) Sub(o Vector) (Vector, error) {
	requireSameDim(v, o)
	r := v.Clone()
	vek32.Sub_Inplace(r, o)
	if err := r.Renormalize(); err != nil {
		return nil, err
	}
	return r, nil
}

// Distance returns sqrt(dot(a, b)/dim), or 0 when the dot product is not
// positive. For normalized vectors the result lies in [0, 1].
func Distance(a, b Vector) float32 {
	requireSameDim(a, b)
	if len(a) == 0 {
		return 0
	}
	d := vek32.Dot(a, b)
	if d <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(d) / float64(len(a))))
}

func requireSameDim(a, b Vector) {
	if len(a) != len(b) {
		panic("model: dimension mismatch")
	}
}
