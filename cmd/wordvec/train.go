package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	textvec "github.com/vpatel95/text-vector"
	"github.com/vpatel95/text-vector/config"
	"github.com/vpatel95/text-vector/internal/logging"
	"github.com/vpatel95/text-vector/internal/metrics"
	"github.com/vpatel95/text-vector/train"
)

// trainFlags mirrors the config fields that can be set on the command line.
// Only flags the user actually set override the config file.
type trainFlags struct {
	configPath  string
	corpus      string
	output      string
	stopWords   string
	metricsAddr string
	settings    train.Settings
}

func trainCmd(root *rootOptions) *cobra.Command {
	f := &trainFlags{settings: train.DefaultSettings()}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from a text corpus",
		Long: `Train a word2vec model and save it in the binary word format.

Examples:
  wordvec train --corpus text8 --output text8.bin --size 200 --threads 8
  wordvec train --corpus text8 --sg --hs --negative 0
  wordvec train --config wordvec.yaml --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd.Flags())
			if err != nil {
				return err
			}
			root.apply(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			return runTrain(cmd, cfg, log)
		},
	}

	fs := cmd.Flags()
	s := &f.settings
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fs.StringVar(&f.corpus, "corpus", "", "training corpus file")
	fs.StringVarP(&f.output, "output", "o", "", "model output file (default: $WORDVEC_MODEL_PATH or the data directory)")
	fs.StringVar(&f.stopWords, "stop-words", "", "file of words to exclude from the vocabulary")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while training")
	fs.IntVar(&s.Size, "size", s.Size, "vector dimension")
	fs.IntVar(&s.Window, "window", s.Window, "maximum context distance")
	fs.Uint64Var(&s.MinFrequency, "min-freq", s.MinFrequency, "drop words seen fewer times")
	fs.IntVar(&s.Threads, "threads", s.Threads, "training goroutines")
	fs.IntVar(&s.Iterations, "iter", s.Iterations, "passes over the corpus")
	fs.BoolVar(&s.SkipGram, "sg", s.SkipGram, "use skip-gram instead of CBOW")
	fs.BoolVar(&s.HS, "hs", s.HS, "use hierarchical softmax")
	fs.IntVar(&s.Negative, "negative", s.Negative, "negative samples per word (0 disables)")
	fs.Float64Var(&s.Sample, "sample", s.Sample, "subsampling threshold (0 disables)")
	fs.Float32Var(&s.Alpha, "alpha", s.Alpha, "starting learning rate")
	fs.Uint64Var(&s.Seed, "seed", s.Seed, "random seed")
	return cmd
}

// config loads the config file and applies the flags the user set.
func (f *trainFlags) config(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	s, t := &f.settings, &cfg.Train
	set("corpus", func() { cfg.Corpus = f.corpus })
	set("output", func() { cfg.Output = f.output })
	set("stop-words", func() { cfg.StopWords = f.stopWords })
	set("metrics-addr", func() { cfg.MetricsAddr = f.metricsAddr })
	set("size", func() { t.Size = s.Size })
	set("window", func() { t.Window = s.Window })
	set("min-freq", func() { t.MinFrequency = s.MinFrequency })
	set("threads", func() { t.Threads = s.Threads })
	set("iter", func() { t.Iterations = s.Iterations })
	set("sg", func() { t.SkipGram = s.SkipGram })
	set("hs", func() { t.HS = s.HS })
	set("negative", func() { t.Negative = s.Negative })
	set("sample", func() { t.Sample = s.Sample })
	set("alpha", func() { t.Alpha = s.Alpha })
	set("seed", func() { t.Seed = s.Seed })

	if cfg.Output == "" {
		cfg.Output = defaultOutputPath()
	}
	return cfg, nil
}

func runTrain(cmd *cobra.Command, cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mc *metrics.Collector
	if cfg.MetricsAddr != "" {
		mc = metrics.New()
		srv, err := serveMetrics(cfg.MetricsAddr, mc, log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []textvec.Option{
		textvec.WithSettings(cfg.Train),
		textvec.WithLogger(log),
		textvec.WithMetrics(mc),
		textvec.WithProgress(progressLogger(log)),
	}
	if cfg.StopWords != "" {
		opts = append(opts, textvec.WithStopWordsFile(cfg.StopWords))
	}

	start := time.Now()
	m, err := textvec.TrainFile(ctx, cfg.Corpus, opts...)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := m.Save(cfg.Output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d words × %d dims to %s (%s)\n",
		m.Len(), m.Dim(), cfg.Output, time.Since(start).Round(time.Millisecond))
	return nil
}

// progressLogger logs once per whole percent.
func progressLogger(log *logrus.Logger) train.ProgressFunc {
	var last atomic.Int32
	last.Store(-1)
	return func(alpha, percent float32) {
		p := int32(percent)
		for {
			prev := last.Load()
			if p <= prev {
				return
			}
			if last.CompareAndSwap(prev, p) {
				break
			}
		}
		log.WithFields(logrus.Fields{
			"alpha":    alpha,
			"progress": fmt.Sprintf("%d%%", p),
		}).Debug("training")
	}
}

// serveMetrics listens on addr and serves mc on /metrics until shut down.
func serveMetrics(addr string, mc *metrics.Collector, log *logrus.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", mc.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", ln.Addr().String()).Info("serving metrics")
	return srv, nil
}
