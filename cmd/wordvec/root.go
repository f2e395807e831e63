package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vpatel95/text-vector/config"
	"github.com/vpatel95/text-vector/internal/logging"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "wordvec",
		Short: "Train word2vec models and query them",
		Long: `wordvec trains word embeddings with CBOW or skip-gram using hierarchical
softmax and/or negative sampling, and answers similarity queries over them.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text or json (default text)")

	root.AddCommand(trainCmd(opts))
	root.AddCommand(distanceCmd(opts))
	root.AddCommand(analogyCmd(opts))
	root.AddCommand(infoCmd(opts))
	root.AddCommand(pathCmd())
	return root
}

// apply overrides the configured logging with any flags the user set.
func (o *rootOptions) apply(cfg *config.Config) {
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
}

// logger builds the logger for query commands, which take no config file.
func (o *rootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	cfg := config.Default()
	if level := os.Getenv(config.EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
	o.apply(cfg)
	return logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
}
