package model

import (
	"fmt"

	"github.com/viterin/vek/vek32"

	"github.com/vpatel95/text-vector/reader"
)

// Encoder converts text to a vector.
type Encoder interface {
	Encode(text string) (Vector, error)
}

// TextEncoder encodes text as the renormalized sum of its word vectors.
// It is safe for concurrent use.
type TextEncoder struct {
	wm     *WordModel
	delims string
}

// NewTextEncoder returns an encoder splitting text on delims.
func NewTextEncoder(wm *WordModel, delims string) *TextEncoder {
	if wm == nil {
		panic("model: nil word model")
	}
	return &TextEncoder{wm: wm, delims: delims}
}

// Encode returns the document vector of text. See DocVector.
func (e *TextEncoder) Encode(text string) (Vector, error) {
	return DocVector(e.wm, text, e.delims)
}

// DocVector sums the vectors of the words of text known to wm and
// renormalizes the result. Unknown words are ignored; a text without known
// words fails with ErrZeroNorm.
func DocVector(wm *WordModel, text, delims string) (Vector, error) {
	r, err := reader.New([]byte(text), reader.Options{Delims: delims})
	if err != nil {
		return nil, err
	}

	wm.mu.RLock()
	if wm.dim == 0 {
		wm.mu.RUnlock()
		return nil, ErrEmptyModel
	}
	sum := make(Vector, wm.dim)
	for {
		w, ok := r.NextBytes()
		if !ok {
			break
		}
		if v, ok := wm.vectors[string(w)]; ok && len(w) > 0 {
			vek32.Add_Inplace(sum, v)
		}
	}
	wm.mu.RUnlock()

	if err := sum.Renormalize(); err != nil {
		return nil, fmt.Errorf("model: encode %q: %w", text, err)
	}
	return sum, nil
}
