// Command wordvec trains word2vec models and queries them.
//
// Usage:
//
//	wordvec train --corpus text.txt --output model.bin   Train and save a model
//	wordvec train --config wordvec.yaml                   Train from a config file
//	wordvec distance [model]                              Interactive nearest-word search
//	wordvec analogy [model] a b c                         Words nearest to a - b + c
//	wordvec info [model]                                  Print model stats
//	wordvec path                                          Print the default model path
//
// Environment:
//
//	WORDVEC_MODEL_PATH   Override model file location
//	WORDVEC_LOG_LEVEL    Override the configured log level
//	WORDVEC_THREADS      Override the configured training threads
//	XDG_DATA_HOME        Override data directory (default: ~/.local/share)
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
