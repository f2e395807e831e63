package model_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpatel95/text-vector/internal/logging"
	"github.com/vpatel95/text-vector/model"
	"github.com/vpatel95/text-vector/train"
)

type record struct {
	word string
	vec  []float32
}

// writeWordFile writes records in the word model format, declaring count
// entries in the header.
func writeWordFile(t *testing.T, count, dim int, recs []record) string {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", count, dim)
	for _, r := range recs {
		buf.WriteString(r.word)
		buf.WriteByte(' ')
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, r.vec))
		buf.WriteByte('\n')
	}
	path := filepath.Join(t.TempDir(), "words.bin")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func meanSquare(v model.Vector) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return s / float64(len(v))
}

var sample = []record{
	{"king", []float32{1, 2, 0, 1}},
	{"queen", []float32{1, 2, 0.2, 1.1}},
	{"man", []float32{1, 0, 0, 0}},
	{"woman", []float32{1, 0, 0.3, 0.2}},
	{"apple", []float32{-1, 0, 3, -2}},
}

func loadSample(t *testing.T) *model.WordModel {
	t.Helper()
	m := model.NewWordModel()
	require.NoError(t, m.LoadFile(writeWordFile(t, len(sample), 4, sample)))
	return m
}

// ── vector ────────────────────────────────────────────────────────────────────

func TestNewVector_PanicsOnBadDim(t *testing.T) {
	assert.PanicsWithValue(t, "model: dimension must be positive", func() { model.NewVector(0) })
	assert.Len(t, model.NewVector(3), 3)
}

func TestVector_Renormalize(t *testing.T) {
	v := model.Vector{3, 4}
	require.NoError(t, v.Renormalize())
	assert.InDelta(t, 1.0, meanSquare(v), 1e-6)

	assert.ErrorIs(t, model.Vector{0, 0}.Renormalize(), model.ErrZeroNorm)
}

func TestVector_AddSub(t *testing.T) {
	a := model.Vector{1, 0}
	b := model.Vector{0, 1}

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, meanSquare(sum), 1e-6)
	assert.InDelta(t, sum[0], sum[1], 1e-6)
	assert.Equal(t, model.Vector{1, 0}, a, "Add must not modify its receiver")

	_, err = a.Sub(a)
	assert.ErrorIs(t, err, model.ErrZeroNorm)
}

func TestVector_DimensionMismatchPanics(t *testing.T) {
	assert.PanicsWithValue(t, "model: dimension mismatch", func() {
		model.Distance(model.Vector{1}, model.Vector{1, 2})
	})
}

func TestDistance(t *testing.T) {
	a := model.Vector{1, 1}
	assert.InDelta(t, 1.0, model.Distance(a, a), 1e-6)
	assert.Zero(t, model.Distance(a, model.Vector{-1, -1}))
	assert.Zero(t, model.Distance(model.Vector{1, 0}, model.Vector{0, 1}))
}

// ── word model persistence ───────────────────────────────────────────────────

func TestWordModel_LoadRenormalizes(t *testing.T) {
	m := loadSample(t)
	assert.Equal(t, 5, m.Len())
	assert.Equal(t, 4, m.Dim())
	assert.Equal(t, []string{"king", "queen", "man", "woman", "apple"}, m.Words())

	for _, r := range sample {
		v, ok := m.Vector(r.word)
		require.True(t, ok)
		assert.InDelta(t, 1.0, meanSquare(v), 1e-5)
	}
}

func TestWordModel_RoundTrip(t *testing.T) {
	m := loadSample(t)
	path := filepath.Join(t.TempDir(), "again.bin")
	require.True(t, m.Save(path), m.ErrMsg())

	again := model.NewWordModel()
	require.True(t, again.Load(path), again.ErrMsg())
	require.Equal(t, m.Len(), again.Len())
	assert.Equal(t, m.Words(), again.Words())
	for _, w := range m.Words() {
		a, _ := m.Vector(w)
		b, _ := again.Vector(w)
		assert.InDeltaSlice(t, a, b, 1e-5)
	}
}

func TestWordModel_SaveFileSize(t *testing.T) {
	m := loadSample(t)
	path := filepath.Join(t.TempDir(), "sized.bin")
	require.NoError(t, m.SaveFile(path))

	want := len("5 4\n")
	for _, r := range sample {
		want += len(r.word) + 2 + 4*4
	}
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, want, info.Size())
}

func TestWordModel_TruncatedFileFails(t *testing.T) {
	m := loadSample(t)
	path := writeWordFile(t, 5, 4, sample[:3])

	assert.False(t, m.Load(path))
	assert.NotEmpty(t, m.ErrMsg())
	assert.Zero(t, m.Len(), "failed load must leave the model empty")
	assert.ErrorIs(t, m.LoadFile(path), model.ErrWrongFormat)
}

func TestWordModel_TrailingDataFails(t *testing.T) {
	path := writeWordFile(t, 2, 4, sample[:3])
	assert.ErrorIs(t, model.NewWordModel().LoadFile(path), model.ErrWrongFormat)
}

func TestWordModel_ZeroVectorFails(t *testing.T) {
	path := writeWordFile(t, 1, 2, []record{{"zero", []float32{0, 0}}})
	err := model.NewWordModel().LoadFile(path)
	assert.ErrorIs(t, err, model.ErrZeroNorm)
}

func TestWordModel_BadHeader(t *testing.T) {
	for name, content := range map[string]string{
		"no newline": "5 4",
		"no space":   "54\n",
		"zero dim":   "1 0\n",
		"not number": "x 4\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.bin")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			assert.ErrorIs(t, model.NewWordModel().LoadFile(path), model.ErrWrongFormat)
		})
	}
}

func TestWordModel_MissingFile(t *testing.T) {
	m := model.NewWordModel()
	assert.False(t, m.Load(filepath.Join(t.TempDir(), "absent")))
	assert.Contains(t, m.ErrMsg(), "absent")
}

func TestWordModel_EmptyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, model.NewWordModel().SaveFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0 0\n", string(data))

	m := loadSample(t)
	require.True(t, m.Load(path), m.ErrMsg())
	assert.Zero(t, m.Len())

	path = writeWordFile(t, 0, 4, nil)
	require.NoError(t, m.LoadFile(path))
	assert.Zero(t, m.Len())
	assert.Equal(t, 4, m.Dim())
}

func TestWordModel_TrailingNewlineFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.bin")
	require.NoError(t, loadSample(t).SaveFile(path))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m := model.NewWordModel()
	assert.ErrorIs(t, m.LoadFile(path), model.ErrWrongFormat)
	assert.Zero(t, m.Len())
}

func TestWordModel_Normalize(t *testing.T) {
	m := loadSample(t)
	before, _ := m.Vector("king")
	require.NoError(t, m.Normalize())
	after, _ := m.Vector("king")
	assert.InDeltaSlice(t, before, after, 1e-5, "renormalization is idempotent")
}

// ── word model queries ───────────────────────────────────────────────────────

func TestWordVector_ZeroFallback(t *testing.T) {
	m := loadSample(t)
	assert.Equal(t, model.Vector{0, 0, 0, 0}, m.WordVector("missing"))

	v := m.WordVector("king")
	v[0] = 99
	again := m.WordVector("king")
	assert.NotEqual(t, float32(99), again[0], "WordVector returns a copy")
}

func TestNearest_Properties(t *testing.T) {
	m := loadSample(t)
	q := m.WordVector("king")

	got := m.Nearest(q, 3, 0)
	require.LessOrEqual(t, len(got), 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "queen", got[0].Key)
	for i, n := range got {
		assert.NotEqual(t, "king", n.Key, "exact match is excluded")
		if i > 0 {
			assert.LessOrEqual(t, n.Distance, got[i-1].Distance)
		}
	}

	orth := m.Nearest(model.Vector{0, 0, 1, 0}, 10, 0)
	for _, n := range orth {
		assert.Positive(t, n.Distance, "zero-similarity entries are skipped")
	}
	assert.NotContains(t, keys(orth), "man", "man has no component along the query")

	floor := float32(0.9)
	for _, n := range m.Nearest(q, 10, floor) {
		assert.GreaterOrEqual(t, n.Distance, floor)
	}
	assert.Nil(t, m.Nearest(q, 0, 0))
}

func keys(ns []model.Neighbor[string]) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Key
	}
	return out
}

func TestStore_Distance(t *testing.T) {
	m := loadSample(t)
	d, ok := m.Distance("king", "queen")
	require.True(t, ok)
	assert.Greater(t, d, float32(0.9))
	_, ok = m.Distance("king", "nobody")
	assert.False(t, ok)
}

func TestAnalogy(t *testing.T) {
	m := loadSample(t)
	got, err := m.Analogy("king", "man", "woman", 2)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "queen", got[0].Key)
	for _, n := range got {
		assert.NotContains(t, []string{"king", "man", "woman"}, n.Key)
	}

	_, err = m.Analogy("king", "nobody", "woman", 2)
	assert.Error(t, err)
}

func TestDocVector(t *testing.T) {
	m := loadSample(t)

	v, err := model.DocVector(m, "king, unknown queen", " ,")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, meanSquare(v), 1e-5)

	_, err = model.DocVector(m, "nothing known here", " ")
	assert.ErrorIs(t, err, model.ErrZeroNorm)

	enc := model.NewTextEncoder(m, " ")
	single, err := enc.Encode("king")
	require.NoError(t, err)
	king, _ := m.Vector("king")
	assert.InDeltaSlice(t, king, single, 1e-5)

	_, err = model.DocVector(model.NewWordModel(), "king", " ")
	assert.ErrorIs(t, err, model.ErrEmptyModel)
}

// ── word model training ──────────────────────────────────────────────────────

func TestWordModel_TrainFile(t *testing.T) {
	corpus := strings.Repeat("the cat sat on the mat. the dog sat on the log.\n", 30)
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.txt")
	stopPath := filepath.Join(dir, "stop.txt")
	require.NoError(t, os.WriteFile(corpusPath, []byte(corpus), 0o600))
	require.NoError(t, os.WriteFile(stopPath, []byte("on\n"), 0o600))

	s := train.DefaultSettings()
	s.MinFrequency = 1
	s.Size = 10
	s.Threads = 2
	s.Iterations = 2
	s.NSTableSize = 10000

	var vocabSize int
	m := model.NewWordModel()
	err := m.TrainFile(context.Background(), corpusPath, model.TrainOptions{
		Settings:     s,
		StopWords:    stopPath,
		StopWordList: []string{"log"},
		VocabStats:   func(size, _, _ int) { vocabSize = size },
		Logger:       logging.Discard(),
	})
	require.NoError(t, err)

	assert.Equal(t, vocabSize, m.Len())
	assert.Equal(t, 10, m.Dim())
	assert.Equal(t, "</s>", m.Words()[0])
	_, ok := m.Vector("on")
	assert.False(t, ok, "stop word from file")
	_, ok = m.Vector("log")
	assert.False(t, ok, "stop word from list")
	_, ok = m.Vector("cat")
	assert.True(t, ok)

	path := filepath.Join(dir, "model.bin")
	require.True(t, m.Save(path), m.ErrMsg())
	loaded := model.NewWordModel()
	require.True(t, loaded.Load(path), loaded.ErrMsg())
	assert.Equal(t, m.Words(), loaded.Words())
}

func TestWordModel_TrainFailureClears(t *testing.T) {
	m := loadSample(t)
	assert.False(t, m.Train(filepath.Join(t.TempDir(), "missing.txt"), model.TrainOptions{}))
	assert.NotEmpty(t, m.ErrMsg())
	assert.Zero(t, m.Len())

	err := m.TrainData(context.Background(), []byte("a b c"), model.TrainOptions{Logger: logging.Discard()})
	assert.ErrorIs(t, err, train.ErrEmptyVocabulary, "default min frequency filters every word")
}

// ── doc model ────────────────────────────────────────────────────────────────

func TestNewDocModel_Panics(t *testing.T) {
	assert.Panics(t, func() { model.NewDocModel(0) })
	assert.Panics(t, func() { model.NewDocModel(math.MaxUint16 + 1) })
}

func TestDocModel_SetErase(t *testing.T) {
	m := model.NewDocModel(2)
	require.True(t, m.Set(1, model.Vector{1, 0}, false))
	require.True(t, m.Set(2, model.Vector{0, 1}, true))
	assert.Equal(t, 2, m.Len())
	assert.False(t, m.Set(1, model.Vector{1, 0}, true), "an identical vector under the same id is a duplicate")
	assert.True(t, m.Set(1, model.Vector{1, 0}, false))

	assert.False(t, m.Set(3, model.Vector{2, 0}, true), "near duplicate of id 1")
	assert.True(t, m.Set(3, model.Vector{2, 0}, false))

	m.Erase(2)
	m.Erase(42)
	assert.Equal(t, 2, m.Len())
	_, ok := m.Vector(2)
	assert.False(t, ok)

	assert.PanicsWithValue(t, "model: dimension mismatch", func() { m.Set(9, model.Vector{1}, false) })
}

func TestDocModel_RoundTrip(t *testing.T) {
	m := model.NewDocModel(3)
	m.Set(7, model.Vector{1, 2, 3}, false)
	m.Set(3, model.Vector{-1, 0.5, 0}, false)

	path := filepath.Join(t.TempDir(), "docs.bin")
	require.True(t, m.Save(path), m.ErrMsg())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 10+2*(8+4*3), info.Size())

	loaded := model.NewDocModel(1)
	require.True(t, loaded.Load(path), loaded.ErrMsg())
	assert.Equal(t, 3, loaded.Dim())
	v, ok := loaded.Vector(7)
	require.True(t, ok)
	assert.Equal(t, model.Vector{1, 2, 3}, v, "doc vectors are not renormalized")

	got := loaded.Nearest(model.Vector{0.1, 0.1, 0.1}, 5, 0.1)
	require.Len(t, got, 1)
	assert.EqualValues(t, 7, got[0].Key)
}

func TestDocModel_EmptyRoundTrip(t *testing.T) {
	m := model.NewDocModel(2)
	require.True(t, m.Set(1, model.Vector{1, 1}, true))
	m.Erase(1)

	path := filepath.Join(t.TempDir(), "docs.bin")
	require.True(t, m.Save(path), m.ErrMsg())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 10, info.Size(), "header only")

	loaded := model.NewDocModel(5)
	require.True(t, loaded.Load(path), loaded.ErrMsg())
	assert.Zero(t, loaded.Len())
	assert.Equal(t, 2, loaded.Dim())
}

func TestDocModel_WrongSize(t *testing.T) {
	m := model.NewDocModel(2)
	m.Set(1, model.Vector{1, 1}, false)
	path := filepath.Join(t.TempDir(), "docs.bin")
	require.NoError(t, m.SaveFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-1], 0o600))

	assert.False(t, m.Load(path))
	assert.Zero(t, m.Len())
	assert.ErrorIs(t, m.LoadFile(path), model.ErrWrongFormat)
}
