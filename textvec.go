// Package textvec trains word embeddings with word2vec (CBOW or skip-gram,
// hierarchical softmax and/or negative sampling) and answers similarity
// queries over them.
//
// Basic usage:
//
//	m, err := textvec.TrainFile(ctx, "corpus.txt", textvec.WithDims(100))
//	if err != nil { ... }
//	neighbours, err := m.Nearest("king", 10)
//	err = m.Save("model.bin")
package textvec

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vpatel95/text-vector/internal/metrics"
	"github.com/vpatel95/text-vector/model"
	"github.com/vpatel95/text-vector/train"
)

// Neighbor is a query result.
type Neighbor = model.Neighbor[string]

// Model is a trained or loaded word model. It is safe for concurrent use.
type Model struct {
	words *model.WordModel
	enc   *model.TextEncoder
}

// Option configures training.
type Option func(*trainOptions)

type trainOptions struct {
	settings      train.Settings
	stopWords     []string
	stopWordsFile string
	progress      train.ProgressFunc
	logger        *logrus.Logger
	metrics       *metrics.Collector
}

func defaultOptions() trainOptions {
	return trainOptions{settings: train.DefaultSettings()}
}

// WithSettings replaces every training setting at once.
func WithSettings(s train.Settings) Option { return func(o *trainOptions) { o.settings = s } }

// WithDims sets the vector dimension (default 100).
func WithDims(n int) Option { return func(o *trainOptions) { o.settings.Size = n } }

// WithWindow sets the maximum context distance (default 5).
func WithWindow(n int) Option { return func(o *trainOptions) { o.settings.Window = n } }

// WithMinFrequency drops words seen fewer than n times (default 5).
func WithMinFrequency(n uint64) Option { return func(o *trainOptions) { o.settings.MinFrequency = n } }

// WithThreads sets the number of training goroutines (default 4).
func WithThreads(n int) Option { return func(o *trainOptions) { o.settings.Threads = n } }

// WithIterations sets the number of passes over the corpus (default 5).
func WithIterations(n int) Option { return func(o *trainOptions) { o.settings.Iterations = n } }

// WithSkipGram selects skip-gram instead of CBOW.
func WithSkipGram(v bool) Option { return func(o *trainOptions) { o.settings.SkipGram = v } }

// WithHierarchicalSoftmax enables hierarchical softmax.
func WithHierarchicalSoftmax(v bool) Option { return func(o *trainOptions) { o.settings.HS = v } }

// WithNegative sets the number of negative samples; 0 disables negative
// sampling (default 5).
func WithNegative(n int) Option { return func(o *trainOptions) { o.settings.Negative = n } }

// WithSample sets the subsampling threshold; 0 disables it (default 1e-3).
func WithSample(s float64) Option { return func(o *trainOptions) { o.settings.Sample = s } }

// WithAlpha sets the starting learning rate (default 0.05).
func WithAlpha(a float32) Option { return func(o *trainOptions) { o.settings.Alpha = a } }

// WithSeed sets the seed for weight initialisation and sampling (default 1).
// With one thread, equal seeds give identical models.
func WithSeed(s uint64) Option { return func(o *trainOptions) { o.settings.Seed = s } }

// WithStopWords excludes the given words from the vocabulary.
func WithStopWords(words ...string) Option {
	return func(o *trainOptions) { o.stopWords = append(o.stopWords, words...) }
}

// WithStopWordsFile excludes every word of the file at path.
func WithStopWordsFile(path string) Option { return func(o *trainOptions) { o.stopWordsFile = path } }

// WithProgress registers a training progress callback. It may be called
// concurrently.
func WithProgress(fn train.ProgressFunc) Option { return func(o *trainOptions) { o.progress = fn } }

// WithLogger sets the logger used during training.
func WithLogger(l *logrus.Logger) Option { return func(o *trainOptions) { o.logger = l } }

// WithMetrics reports training metrics to c.
func WithMetrics(c *metrics.Collector) Option { return func(o *trainOptions) { o.metrics = c } }

func (o trainOptions) model() model.TrainOptions {
	return model.TrainOptions{
		Settings:     o.settings,
		StopWords:    o.stopWordsFile,
		StopWordList: o.stopWords,
		Progress:     o.progress,
		Logger:       o.logger,
		Metrics:      o.metrics,
	}
}

func collect(opts []Option) trainOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Train builds a model from an in-memory corpus. Vectors are renormalized so
// the result answers queries exactly like a saved and reloaded model.
func Train(ctx context.Context, corpus []byte, opts ...Option) (*Model, error) {
	o := collect(opts)
	wm := model.NewWordModel()
	if err := wm.TrainData(ctx, corpus, o.model()); err != nil {
		return nil, err
	}
	return finish(wm, o.settings.Delims)
}

// TrainFile builds a model from the corpus file at path.
func TrainFile(ctx context.Context, path string, opts ...Option) (*Model, error) {
	o := collect(opts)
	wm := model.NewWordModel()
	if err := wm.TrainFile(ctx, path, o.model()); err != nil {
		return nil, err
	}
	return finish(wm, o.settings.Delims)
}

func finish(wm *model.WordModel, delims string) (*Model, error) {
	if err := wm.Normalize(); err != nil {
		return nil, err
	}
	return &Model{words: wm, enc: model.NewTextEncoder(wm, delims)}, nil
}

// Load reads a model saved by Save (or any file in the same format).
func Load(path string) (*Model, error) {
	wm := model.NewWordModel()
	if err := wm.LoadFile(path); err != nil {
		return nil, err
	}
	return &Model{words: wm, enc: model.NewTextEncoder(wm, train.DefaultDelims)}, nil
}

// Save writes the model to path.
func (m *Model) Save(path string) error { return m.words.SaveFile(path) }

// WordModel exposes the underlying store.
func (m *Model) WordModel() *model.WordModel { return m.words }

// Encoder returns the text encoder used by Nearest.
func (m *Model) Encoder() *model.TextEncoder { return m.enc }

// Len returns the number of words in the model.
func (m *Model) Len() int { return m.words.Len() }

// Dim returns the vector dimension.
func (m *Model) Dim() int { return m.words.Dim() }

// Words returns the vocabulary in training or file order.
func (m *Model) Words() []string { return m.words.Words() }

// Vector returns a copy of the vector for word.
func (m *Model) Vector(word string) (model.Vector, bool) { return m.words.Vector(word) }

// Similarity returns the similarity of two known words.
func (m *Model) Similarity(a, b string) (float32, bool) { return m.words.Distance(a, b) }

// Nearest returns up to k words most similar to text, which may be a single
// word or a sentence.
func (m *Model) Nearest(text string, k int) ([]Neighbor, error) {
	q, err := m.enc.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("textvec: %w", err)
	}
	return m.words.Nearest(q, k, 0), nil
}

// Analogy returns up to k words nearest to a - b + c, excluding the inputs.
func (m *Model) Analogy(a, b, c string, k int) ([]Neighbor, error) {
	return m.words.Analogy(a, b, c, k)
}
