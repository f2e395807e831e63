// Package train runs the word2vec training loop: CBOW or skip-gram with
// hierarchical softmax and/or negative sampling, parallelised across
// goroutines that update shared weight matrices without locking.
package train

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vpatel95/text-vector/huffman"
	"github.com/vpatel95/text-vector/internal/logging"
	"github.com/vpatel95/text-vector/internal/metrics"
	"github.com/vpatel95/text-vector/sampling"
	"github.com/vpatel95/text-vector/vocab"
)

// ErrEmptyVocabulary is returned when the vocabulary holds no trainable words.
var ErrEmptyVocabulary = errors.New("train: vocabulary is empty")

// ProgressFunc receives the current learning rate and training progress in
// percent. It may be called from several goroutines at once.
type ProgressFunc func(alpha, percent float32)

// Option configures a Trainer.
type Option func(*Trainer)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option { return func(t *Trainer) { t.progress = fn } }

// WithLogger sets the logger (default logging.L()).
func WithLogger(l *logrus.Logger) Option { return func(t *Trainer) { t.log = l } }

// WithMetrics reports training metrics to c.
func WithMetrics(c *metrics.Collector) Option { return func(t *Trainer) { t.metrics = c } }

// Trainer owns the weights of one training session.
type Trainer struct {
	settings Settings
	vocab    *vocab.Vocabulary
	data     []byte

	tree    *huffman.Tree
	table   *sampling.UnigramTable
	sub     sampling.Subsampler
	sigmoid sigmoidTable

	syn0    []float32 // input layer, vocab × dim
	syn1    []float32 // hierarchical softmax output layer, internal nodes × dim
	syn1neg []float32 // negative sampling output layer, vocab × dim

	processed  atomic.Uint64
	alpha      atomic.Uint32 // float32 bits
	total      uint64        // trainWords × iterations
	flushEvery uint64

	progress ProgressFunc
	log      *logrus.Logger
	metrics  *metrics.Collector
	runID    string
}

// New prepares a training session over data with the given vocabulary.
func New(s Settings, v *vocab.Vocabulary, data []byte, opts ...Option) (*Trainer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if v.Size() < 2 || v.TrainWords() == 0 || len(data) == 0 {
		return nil, ErrEmptyVocabulary
	}

	t := &Trainer{
		settings: s,
		vocab:    v,
		data:     data,
		sub:      sampling.NewSubsampler(s.Sample, v.TrainWords()),
		sigmoid:  newSigmoidTable(s.ExpTableSize, s.MaxExp),
		total:    v.TrainWords() * uint64(s.Iterations),
		log:      logging.L(),
		runID:    uuid.NewString(),
	}
	t.flushEvery = max(t.total/10000, 1)
	for _, opt := range opts {
		opt(t)
	}

	if s.HS {
		t.tree = huffman.Build(v.Frequencies())
	}
	if s.Negative > 0 {
		t.table = sampling.NewUnigramTable(v.Frequencies(), s.NSTableSize, s.NSPower)
	}
	return t, nil
}

// RunID identifies this session in logs.
func (t *Trainer) RunID() string { return t.runID }

// Alpha returns the current learning rate.
func (t *Trainer) Alpha() float32 { return math.Float32frombits(t.alpha.Load()) }

// Processed returns the number of corpus words consumed so far.
func (t *Trainer) Processed() uint64 { return t.processed.Load() }

// Run trains until every worker has replayed its range Settings.Iterations
// times and returns the input layer as a flat vocab × dim matrix.
// Workers stop between sentences once ctx is done.
func (t *Trainer) Run(ctx context.Context) ([]float32, error) {
	s := t.settings
	dim := s.Size
	n := t.vocab.Size()

	t.syn0 = make([]float32, n*dim)
	initInput(t.syn0, dim, s.Seed)
	if s.HS {
		t.syn1 = make([]float32, n*dim)
	}
	if s.Negative > 0 {
		t.syn1neg = make([]float32, n*dim)
	}
	t.processed.Store(0)
	t.alpha.Store(math.Float32bits(s.Alpha))

	threads := min(s.Threads, len(t.data))
	log := t.log.WithFields(logrus.Fields{
		"run_id":     t.runID,
		"vocab_size": n,
		"threads":    threads,
		"words":      t.vocab.TrainWords(),
	})
	log.Info("training started")
	t.metrics.SetVocabularySize(n)
	t.metrics.SetAlpha(s.Alpha)
	start := time.Now()

	ranges := Partition(len(t.data), threads)
	workers := make([]*worker, len(ranges))
	for i, rg := range ranges {
		w, err := newWorker(t, i, rg)
		if err != nil {
			return nil, fmt.Errorf("train: worker %d: %w", i, err)
		}
		workers[i] = w
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, w := range workers {
		g.Go(func() error {
			if err := w.run(ctx); err != nil {
				return err
			}
			log.WithField("worker", i).Debug("worker finished")
			return nil
		})
	}
	err := g.Wait()
	t.metrics.RunFinished(err)
	if err != nil {
		log.WithError(err).Warn("training stopped")
		return nil, fmt.Errorf("train: %w", err)
	}

	log.WithField("elapsed", time.Since(start).String()).Info("training finished")
	return t.syn0, nil
}

// flush adds a worker's unreported word count to the shared counter and
// recomputes the learning rate.
func (t *Trainer) flush(words uint64) {
	if words == 0 {
		return
	}
	processed := t.processed.Add(words)
	t.metrics.AddWords(words)

	alpha0 := t.settings.Alpha
	alpha := alpha0 * float32(1-float64(processed)/float64(t.total+1))
	alpha = max(alpha, alpha0*1e-4)
	t.alpha.Store(math.Float32bits(alpha))

	percent := float32(min(float64(processed)/float64(t.total)*100, 100))
	t.metrics.SetAlpha(alpha)
	t.metrics.SetProgress(percent)
	if t.progress != nil {
		t.progress(alpha, percent)
	}
}
