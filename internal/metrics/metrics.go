// Package metrics exposes training progress as prometheus metrics.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordvec"

// Collector owns a registry with the training metrics.
type Collector struct {
	reg       *prometheus.Registry
	words     prometheus.Counter
	alpha     prometheus.Gauge
	progress  prometheus.Gauge
	vocabSize prometheus.Gauge
	runs      *prometheus.CounterVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_words_total",
			Help:      "Corpus words processed by training workers.",
		}),
		alpha: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "learning_rate",
			Help:      "Current learning rate.",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_progress_percent",
			Help:      "Training progress in percent.",
		}),
		vocabSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_size",
			Help:      "Entries in the training vocabulary.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Finished training runs by result.",
		}, []string{"result"}),
	}
	c.reg.MustRegister(c.words, c.alpha, c.progress, c.vocabSize, c.runs)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// AddWords adds n to the processed word counter.
func (c *Collector) AddWords(n uint64) {
	if c == nil {
		return
	}
	c.words.Add(float64(n))
}

// SetAlpha records the current learning rate.
func (c *Collector) SetAlpha(alpha float32) {
	if c == nil {
		return
	}
	c.alpha.Set(float64(alpha))
}

// SetProgress records training progress in percent.
func (c *Collector) SetProgress(percent float32) {
	if c == nil {
		return
	}
	c.progress.Set(float64(percent))
}

// SetVocabularySize records the number of vocabulary entries.
func (c *Collector) SetVocabularySize(n int) {
	if c == nil {
		return
	}
	c.vocabSize.Set(float64(n))
}

// RunFinished records a completed run; err == nil counts as success.
func (c *Collector) RunFinished(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.runs.WithLabelValues(result).Inc()
}
