package train_test

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpatel95/text-vector/internal/logging"
	"github.com/vpatel95/text-vector/internal/metrics"
	"github.com/vpatel95/text-vector/reader"
	"github.com/vpatel95/text-vector/train"
	"github.com/vpatel95/text-vector/vocab"
)

const corpus = "the cat sat on the mat. the dog sat on the log. " +
	"a cat and a dog met on the mat. the log was under the dog.\n"

func smallSettings() train.Settings {
	s := train.DefaultSettings()
	s.MinFrequency = 1
	s.Size = 8
	s.Window = 2
	s.Threads = 1
	s.Iterations = 2
	s.Sample = 0
	s.NSTableSize = 1000
	return s
}

func buildVocab(t *testing.T, data []byte, s train.Settings) *vocab.Vocabulary {
	t.Helper()
	r, err := reader.New(data, reader.Options{Delims: s.Delims, EOS: s.EOS, MaxWordLen: s.MaxWordLen})
	require.NoError(t, err)
	return vocab.Build(r, vocab.Options{MinFrequency: s.MinFrequency})
}

func newTrainer(t *testing.T, data []byte, s train.Settings, opts ...train.Option) (*train.Trainer, *vocab.Vocabulary) {
	t.Helper()
	v := buildVocab(t, data, s)
	opts = append([]train.Option{train.WithLogger(logging.Discard())}, opts...)
	tr, err := train.New(s, v, data, opts...)
	require.NoError(t, err)
	return tr, v
}

// ── partition ─────────────────────────────────────────────────────────────────

func TestPartition_CoversExactlyOnce(t *testing.T) {
	for _, size := range []int{1, 7, 100, 1001} {
		for parts := 1; parts <= 8; parts++ {
			ranges := train.Partition(size, parts)
			require.Len(t, ranges, parts)
			assert.Equal(t, 0, ranges[0].Start)
			assert.Equal(t, size, ranges[parts-1].Stop)
			for i := 1; i < parts; i++ {
				assert.Equal(t, ranges[i-1].Stop, ranges[i].Start)
			}
		}
	}
}

func TestPartition_PanicsOnZeroParts(t *testing.T) {
	assert.PanicsWithValue(t, "train: parts must be positive", func() { train.Partition(10, 0) })
}

// ── settings ──────────────────────────────────────────────────────────────────

func TestDefaultSettings_Valid(t *testing.T) {
	s := train.DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, 100, s.Size)
	assert.Equal(t, 5, s.Negative)
	assert.InDelta(t, 0.05, s.Alpha, 1e-9)
}

func TestSettings_Validate(t *testing.T) {
	cases := map[string]func(*train.Settings){
		"size":       func(s *train.Settings) { s.Size = 0 },
		"window":     func(s *train.Settings) { s.Window = 0 },
		"no output":  func(s *train.Settings) { s.HS = false; s.Negative = 0 },
		"threads":    func(s *train.Settings) { s.Threads = 0 },
		"iterations": func(s *train.Settings) { s.Iterations = 0 },
		"alpha":      func(s *train.Settings) { s.Alpha = 0 },
		"sample":     func(s *train.Settings) { s.Sample = -1 },
		"delims":     func(s *train.Settings) { s.Delims = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := train.DefaultSettings()
			mutate(&s)
			assert.ErrorIs(t, s.Validate(), train.ErrInvalidSettings)
		})
	}

	s := train.DefaultSettings()
	s.HS, s.Negative = true, 0
	assert.NoError(t, s.Validate())
}

// ── trainer ───────────────────────────────────────────────────────────────────

func TestNew_EmptyVocabulary(t *testing.T) {
	s := smallSettings()
	s.MinFrequency = 100
	data := []byte(corpus)
	_, err := train.New(s, buildVocab(t, data, s), data)
	assert.ErrorIs(t, err, train.ErrEmptyVocabulary)
}

func TestNew_InvalidSettings(t *testing.T) {
	s := smallSettings()
	data := []byte(corpus)
	v := buildVocab(t, data, s)
	s.Size = -1
	_, err := train.New(s, v, data)
	assert.ErrorIs(t, err, train.ErrInvalidSettings)
}

func TestRun_MatrixShape(t *testing.T) {
	s := smallSettings()
	tr, v := newTrainer(t, []byte(corpus), s)

	w, err := tr.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, w, v.Size()*s.Size)
	assert.Equal(t, v.TrainWords()*uint64(s.Iterations), tr.Processed())
	assert.NotEmpty(t, tr.RunID())
}

func TestRun_DeterministicSingleThread(t *testing.T) {
	s := smallSettings()
	a, _ := newTrainer(t, []byte(corpus), s)
	b, _ := newTrainer(t, []byte(corpus), s)

	wa, err := a.Run(context.Background())
	require.NoError(t, err)
	wb, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wa, wb)
}

func TestRun_AllModes(t *testing.T) {
	modes := map[string]func(*train.Settings){
		"cbow-ns":    func(s *train.Settings) {},
		"cbow-hs":    func(s *train.Settings) { s.HS = true; s.Negative = 0 },
		"sg-ns":      func(s *train.Settings) { s.SkipGram = true },
		"sg-hs":      func(s *train.Settings) { s.SkipGram = true; s.HS = true; s.Negative = 0 },
		"sg-both":    func(s *train.Settings) { s.SkipGram = true; s.HS = true },
		"subsampled": func(s *train.Settings) { s.Sample = 1e-2 },
	}
	for name, mutate := range modes {
		t.Run(name, func(t *testing.T) {
			s := smallSettings()
			mutate(&s)
			tr, v := newTrainer(t, []byte(corpus), s)
			w, err := tr.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, w, v.Size()*s.Size)
			for _, x := range w {
				assert.False(t, math.IsNaN(float64(x)), "NaN in weights")
			}
		})
	}
}

func TestRun_MultipleThreadsProcessEveryWord(t *testing.T) {
	s := smallSettings()
	s.Threads = 4
	data := []byte(strings.Repeat(corpus, 20))
	tr, v := newTrainer(t, data, s)

	_, err := tr.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v.TrainWords()*uint64(s.Iterations), tr.Processed())
}

func TestRun_ProgressAndMetrics(t *testing.T) {
	s := smallSettings()
	var (
		mu   sync.Mutex
		last float32
		n    int
	)
	c := metrics.New()
	tr, _ := newTrainer(t, []byte(strings.Repeat(corpus, 10)), s,
		train.WithProgress(func(alpha, percent float32) {
			mu.Lock()
			defer mu.Unlock()
			assert.Greater(t, alpha, float32(0))
			assert.LessOrEqual(t, alpha, s.Alpha)
			last = max(last, percent)
			n++
		}),
		train.WithMetrics(c),
	)

	_, err := tr.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.InDelta(t, 100, last, 0.01)
	assert.Less(t, tr.Alpha(), s.Alpha)
}

func TestRun_Cancelled(t *testing.T) {
	s := smallSettings()
	tr, _ := newTrainer(t, []byte(corpus), s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
