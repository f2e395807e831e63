package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vpatel95/text-vector/internal/metrics"
	"github.com/vpatel95/text-vector/mapper"
	"github.com/vpatel95/text-vector/reader"
	"github.com/vpatel95/text-vector/train"
	"github.com/vpatel95/text-vector/vocab"
)

var (
	// ErrWrongFormat is returned when a model file cannot be parsed.
	ErrWrongFormat = errors.New("model: wrong model file format")
	// ErrEmptyModel is returned when encoding text against a model that was
	// never trained or loaded.
	ErrEmptyModel = errors.New("model: model is empty")
)

// TrainOptions configures WordModel training.
type TrainOptions struct {
	Settings      train.Settings // zero value means train.DefaultSettings()
	StopWords     string         // optional stop-words file, same delimiters as the corpus
	StopWordList  []string       // extra stop words
	VocabProgress vocab.ProgressFunc
	VocabStats    vocab.StatsFunc
	Progress      train.ProgressFunc
	Logger        *logrus.Logger
	Metrics       *metrics.Collector
}

// WordModel maps words to vectors. It is safe for concurrent use.
//
// The bool-returning methods record the failure reason for ErrMsg; each has
// an error-returning twin.
type WordModel struct {
	Store[string]

	ioMu   sync.Mutex // serializes Train, Load and Save
	order  []string
	errMu  sync.Mutex
	errMsg string
}

// NewWordModel returns an empty model.
func NewWordModel() *WordModel { return &WordModel{} }

// ErrMsg returns the reason the last bool-returning call failed.
func (m *WordModel) ErrMsg() string {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.errMsg
}

func (m *WordModel) result(err error) bool {
	if err == nil {
		return true
	}
	m.errMu.Lock()
	m.errMsg = err.Error()
	m.errMu.Unlock()
	return false
}

// Words returns the stored words in training or file order.
func (m *WordModel) Words() []string {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	return append([]string(nil), m.order...)
}

// WordVector returns a copy of the vector for word, or a zero vector of the
// model dimension when word is unknown.
func (m *WordModel) WordVector(word string) Vector {
	if v, ok := m.Vector(word); ok {
		return v
	}
	return make(Vector, m.Dim())
}

// Normalize renormalizes every stored vector in place.
func (m *WordModel) Normalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for w, v := range m.vectors {
		if err := v.Renormalize(); err != nil {
			return fmt.Errorf("model: %q: %w", w, err)
		}
	}
	return nil
}

// ── training ──────────────────────────────────────────────────────────────────

// Train is TrainFile with a background context, reporting failure via ErrMsg.
func (m *WordModel) Train(corpus string, opts TrainOptions) bool {
	return m.result(m.TrainFile(context.Background(), corpus, opts))
}

// TrainFile trains on the corpus file at path, replacing the model contents.
func (m *WordModel) TrainFile(ctx context.Context, path string, opts TrainOptions) error {
	src, err := mapper.Open(path)
	if err != nil {
		m.clear()
		return err
	}
	defer src.Close()
	return m.TrainData(ctx, src.Bytes(), opts)
}

// TrainData trains on an in-memory corpus, replacing the model contents.
// Vectors are stored as produced by training, without renormalization.
func (m *WordModel) TrainData(ctx context.Context, data []byte, opts TrainOptions) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	if err := m.train(ctx, data, opts); err != nil {
		m.clearLocked()
		return err
	}
	return nil
}

func (m *WordModel) train(ctx context.Context, data []byte, opts TrainOptions) error {
	s := opts.Settings
	if s == (train.Settings{}) {
		s = train.DefaultSettings()
	}
	if err := s.Validate(); err != nil {
		return err
	}

	stop, err := stopWords(opts, s)
	if err != nil {
		return err
	}

	r, err := reader.New(data, reader.Options{Delims: s.Delims, EOS: s.EOS, MaxWordLen: s.MaxWordLen})
	if err != nil {
		return err
	}
	v := vocab.Build(r, vocab.Options{
		MinFrequency: s.MinFrequency,
		StopWords:    stop,
		Progress:     opts.VocabProgress,
		Stats:        opts.VocabStats,
	})

	var topts []train.Option
	if opts.Progress != nil {
		topts = append(topts, train.WithProgress(opts.Progress))
	}
	if opts.Logger != nil {
		topts = append(topts, train.WithLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		topts = append(topts, train.WithMetrics(opts.Metrics))
	}
	t, err := train.New(s, v, data, topts...)
	if err != nil {
		return err
	}
	weights, err := t.Run(ctx)
	if err != nil {
		return err
	}

	dim := s.Size
	words := v.Words()
	vectors := make(map[string]Vector, len(words))
	for i, w := range words {
		vectors[w] = Vector(weights[i*dim : (i+1)*dim : (i+1)*dim])
	}
	m.reset(dim, vectors)
	m.order = append([]string(nil), words...)
	return nil
}

func stopWords(opts TrainOptions, s train.Settings) (map[string]struct{}, error) {
	if opts.StopWords == "" && len(opts.StopWordList) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(opts.StopWordList))
	for _, w := range opts.StopWordList {
		set[w] = struct{}{}
	}
	if opts.StopWords == "" {
		return set, nil
	}

	f, err := mapper.Open(opts.StopWords)
	if err != nil {
		return nil, fmt.Errorf("model: stop words: %w", err)
	}
	defer f.Close()
	r, err := reader.New(f.Bytes(), reader.Options{Delims: s.Delims, EOS: s.EOS, MaxWordLen: s.MaxWordLen})
	if err != nil {
		return nil, err
	}
	for w := range vocab.StopWords(r) {
		set[w] = struct{}{}
	}
	return set, nil
}

// ── persistence ───────────────────────────────────────────────────────────────

// Save is SaveFile reporting failure via ErrMsg.
func (m *WordModel) Save(path string) bool { return m.result(m.SaveFile(path)) }

// SaveFile writes the model as "<count> <dim>\n" followed by one
// "<word> <dim little-endian float32>\n" record per word.
func (m *WordModel) SaveFile(path string) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.mu.RLock()
	defer m.mu.RUnlock()

	header := strconv.Itoa(len(m.vectors)) + " " + strconv.Itoa(m.dim) + "\n"
	size := len(header)
	for w := range m.vectors {
		size += len(w) + 2 + 4*m.dim
	}

	out, err := mapper.Create(path, size)
	if err != nil {
		return err
	}
	c := mapper.NewCursor(out.Bytes())
	err = func() error {
		if _, err := c.WriteString(header); err != nil {
			return err
		}
		for _, w := range m.order {
			if err := writeWordRecord(c, w, m.vectors[w]); err != nil {
				return err
			}
		}
		if c.Remaining() != 0 {
			return fmt.Errorf("model: %d bytes left unwritten", c.Remaining())
		}
		return out.Sync()
	}()
	return errors.Join(err, out.Close())
}

func writeWordRecord(c *mapper.Cursor, word string, v Vector) error {
	if _, err := c.WriteString(word); err != nil {
		return err
	}
	if err := c.WriteByte(' '); err != nil {
		return err
	}
	if err := c.PutFloat32s(v); err != nil {
		return err
	}
	return c.WriteByte('\n')
}

// Load is LoadFile reporting failure via ErrMsg.
func (m *WordModel) Load(path string) bool { return m.result(m.LoadFile(path)) }

// LoadFile replaces the model contents with the file at path. Every vector
// is renormalized. On failure the model is left empty.
func (m *WordModel) LoadFile(path string) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.clearLocked()

	in, err := mapper.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dim, vectors, order, err := decodeWords(in.Bytes())
	if err != nil {
		return err
	}
	m.reset(dim, vectors)
	m.order = order
	return nil
}

func decodeWords(data []byte) (int, map[string]Vector, []string, error) {
	c := mapper.NewCursor(data)
	line, err := c.ReadUntil('\n')
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: missing header", ErrWrongFormat)
	}
	countStr, dimStr, ok := bytes.Cut(line, []byte{' '})
	if !ok {
		return 0, nil, nil, fmt.Errorf("%w: malformed header %q", ErrWrongFormat, line)
	}
	count, err := strconv.ParseUint(string(countStr), 10, 63)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: word count: %w", ErrWrongFormat, err)
	}
	dim, err := strconv.ParseUint(string(dimStr), 10, 16)
	if err != nil || (dim == 0 && count > 0) {
		return 0, nil, nil, fmt.Errorf("%w: vector size %q", ErrWrongFormat, dimStr)
	}
	// every record holds at least one word byte, a space and the vector
	if count > 0 && count > uint64(c.Remaining())/(2+4*dim) {
		return 0, nil, nil, fmt.Errorf("%w: %d records do not fit in %d bytes", ErrWrongFormat, count, c.Remaining())
	}

	vectors := make(map[string]Vector, count)
	order := make([]string, 0, count)
	for i := range count {
		raw, err := c.ReadUntil(' ')
		if err != nil {
			return 0, nil, nil, fmt.Errorf("%w: record %d: %w", ErrWrongFormat, i, err)
		}
		word := string(bytes.ReplaceAll(raw, []byte{'\n'}, nil))
		if word == "" {
			return 0, nil, nil, fmt.Errorf("%w: record %d: empty word", ErrWrongFormat, i)
		}
		v := make(Vector, dim)
		if err := c.Float32s(v); err != nil {
			return 0, nil, nil, fmt.Errorf("%w: record %d: %w", ErrWrongFormat, i, err)
		}
		if !finite(v) {
			return 0, nil, nil, fmt.Errorf("%w: record %d: non-finite value", ErrWrongFormat, i)
		}
		if err := v.Renormalize(); err != nil {
			return 0, nil, nil, fmt.Errorf("model: %q: %w", word, err)
		}
		if _, dup := vectors[word]; !dup {
			order = append(order, word)
		}
		vectors[word] = v
	}
	if c.Remaining() != 0 {
		return 0, nil, nil, fmt.Errorf("%w: %d trailing bytes", ErrWrongFormat, c.Remaining())
	}
	return int(dim), vectors, order, nil
}

func finite(v Vector) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

func (m *WordModel) clear() {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.clearLocked()
}

func (m *WordModel) clearLocked() {
	m.reset(0, map[string]Vector{})
	m.order = nil
}

// ── queries ───────────────────────────────────────────────────────────────────

// Analogy returns up to k words nearest to a - b + c, excluding the inputs.
func (m *WordModel) Analogy(a, b, c string, k int) ([]Neighbor[string], error) {
	va, ok := m.Vector(a)
	if !ok {
		return nil, fmt.Errorf("model: unknown word %q", a)
	}
	vb, ok := m.Vector(b)
	if !ok {
		return nil, fmt.Errorf("model: unknown word %q", b)
	}
	vc, ok := m.Vector(c)
	if !ok {
		return nil, fmt.Errorf("model: unknown word %q", c)
	}
	q, err := va.Sub(vb)
	if err != nil {
		return nil, err
	}
	if q, err = q.Add(vc); err != nil {
		return nil, err
	}

	out := m.Nearest(q, k+3, 0)
	out = slices.DeleteFunc(out, func(n Neighbor[string]) bool {
		return n.Key == a || n.Key == b || n.Key == c
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
