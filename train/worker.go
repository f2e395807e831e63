package train

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/vpatel95/text-vector/reader"
)

// maxNegativeRetries bounds redraws of a negative sample that collides with
// the positive target.
const maxNegativeRetries = 10

type worker struct {
	t        *Trainer
	r        *reader.Reader
	rng      *rand.Rand
	neu1     []float32
	neu1e    []float32
	sentence []int32
	pending  uint64
}

func newWorker(t *Trainer, id int, rg Range) (*worker, error) {
	s := t.settings
	r, err := reader.New(t.data, reader.Options{
		Delims:     s.Delims,
		EOS:        s.EOS,
		Start:      rg.Start,
		Stop:       rg.Stop,
		MaxWordLen: s.MaxWordLen,
	})
	if err != nil {
		return nil, err
	}
	return &worker{
		t:        t,
		r:        r,
		rng:      newRand(s.Seed, uint64(id)+1),
		neu1:     make([]float32, s.Size),
		neu1e:    make([]float32, s.Size),
		sentence: make([]int32, 0, s.MaxSentenceLen),
	}, nil
}

func (w *worker) run(ctx context.Context) error {
	defer func() {
		w.t.flush(w.pending)
		w.pending = 0
	}()

	for range w.t.settings.Iterations {
		w.r.Reset()
		for more := true; more; {
			if err := ctx.Err(); err != nil {
				return err
			}
			more = w.readSentence()
			if len(w.sentence) == 0 {
				continue
			}
			alpha := math.Float32frombits(w.t.alpha.Load())
			if w.t.settings.SkipGram {
				w.skipGram(alpha)
			} else {
				w.cbow(alpha)
			}
		}
	}
	return nil
}

// readSentence fills w.sentence up to the next sentence marker or the maximum
// sentence length. It returns false once the range is exhausted.
func (w *worker) readSentence() bool {
	t := w.t
	w.sentence = w.sentence[:0]
	for len(w.sentence) < t.settings.MaxSentenceLen {
		b, ok := w.r.NextBytes()
		if !ok {
			return false
		}
		if len(b) == 0 {
			return true
		}
		idx, ok := t.vocab.IndexBytes(b)
		if !ok {
			continue
		}
		w.pending++
		if w.pending >= t.flushEvery {
			t.flush(w.pending)
			w.pending = 0
		}
		if t.sub.Enabled() && t.sub.Discard(t.vocab.Frequency(idx), w.rng) {
			continue
		}
		w.sentence = append(w.sentence, int32(idx))
	}
	return true
}

func (w *worker) row(m []float32, i int) []float32 {
	dim := w.t.settings.Size
	return m[i*dim : (i+1)*dim]
}

func vec(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Inc: 1, Data: x}
}

func (w *worker) cbow(alpha float32) {
	window := w.t.settings.Window
	syn0 := w.t.syn0
	n := len(w.sentence)

	for pos, word := range w.sentence {
		b := w.rng.IntN(window)
		clear(w.neu1)
		clear(w.neu1e)

		cw := 0
		for a := b; a < 2*window+1-b; a++ {
			c := pos - window + a
			if a == window || c < 0 || c >= n {
				continue
			}
			blas32.Axpy(1, vec(w.row(syn0, int(w.sentence[c]))), vec(w.neu1))
			cw++
		}
		if cw == 0 {
			continue
		}
		blas32.Scal(1/float32(cw), vec(w.neu1))

		w.update(int(word), w.neu1, alpha)

		for a := b; a < 2*window+1-b; a++ {
			c := pos - window + a
			if a == window || c < 0 || c >= n {
				continue
			}
			blas32.Axpy(1, vec(w.neu1e), vec(w.row(syn0, int(w.sentence[c]))))
		}
	}
}

func (w *worker) skipGram(alpha float32) {
	window := w.t.settings.Window
	n := len(w.sentence)

	for pos, word := range w.sentence {
		b := w.rng.IntN(window)
		in := w.row(w.t.syn0, int(word))

		for a := b; a < 2*window+1-b; a++ {
			c := pos - window + a
			if a == window || c < 0 || c >= n {
				continue
			}
			clear(w.neu1e)
			w.update(int(w.sentence[c]), in, alpha)
			blas32.Axpy(1, vec(w.neu1e), vec(in))
		}
	}
}

// update predicts target from the hidden layer in, accumulating the input
// gradient into w.neu1e and updating the output layers in place.
func (w *worker) update(target int, in []float32, alpha float32) {
	t := w.t
	if t.settings.HS {
		w.hierarchicalSoftmax(target, in, alpha)
	}
	if t.settings.Negative > 0 {
		w.negativeSampling(target, in, alpha)
	}
}

func (w *worker) hierarchicalSoftmax(target int, in []float32, alpha float32) {
	t := w.t
	maxExp := t.settings.MaxExp
	code := t.tree.Code(target)
	point := t.tree.Point(target)

	for d, node := range point {
		out := w.row(t.syn1, node)
		f := blas32.Dot(vec(in), vec(out))
		if f <= -maxExp || f >= maxExp {
			continue
		}
		g := (1 - float32(code[d]) - t.sigmoid.at(f)) * alpha
		blas32.Axpy(g, vec(out), vec(w.neu1e))
		blas32.Axpy(g, vec(in), vec(out))
	}
}

func (w *worker) negativeSampling(target int, in []float32, alpha float32) {
	t := w.t
	maxExp := t.settings.MaxExp

	for d := 0; d <= t.settings.Negative; d++ {
		sample, label := target, float32(1)
		if d > 0 {
			label = 0
			sample = w.drawNegative(target)
			if sample == target {
				continue
			}
		}

		out := w.row(t.syn1neg, sample)
		f := blas32.Dot(vec(in), vec(out))
		var g float32
		switch {
		case f >= maxExp:
			g = (label - 1) * alpha
		case f <= -maxExp:
			g = label * alpha
		default:
			g = (label - t.sigmoid.at(f)) * alpha
		}
		blas32.Axpy(g, vec(out), vec(w.neu1e))
		blas32.Axpy(g, vec(in), vec(out))
	}
}

func (w *worker) drawNegative(target int) int {
	var s int
	for range maxNegativeRetries {
		if s = w.t.table.Sample(w.rng); s != target {
			return s
		}
	}
	return s
}
