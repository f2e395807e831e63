package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// EnvModelPath overrides the default model file location.
	EnvModelPath = "WORDVEC_MODEL_PATH"

	modelFileName = "model.bin"
)

// DefaultModelPath returns the model file used when a command is given no
// explicit path. It checks $WORDVEC_MODEL_PATH and then the data directory.
func DefaultModelPath() (string, error) {
	if p := os.Getenv(EnvModelPath); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	p := defaultOutputPath()
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("model not found in any of: $%s, %s", EnvModelPath, p)
}

// ModelDir returns the directory where models are stored by default.
func ModelDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		if runtime.GOOS == "darwin" {
			dataDir = filepath.Join(home, "Library", "Application Support")
		} else {
			dataDir = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(dataDir, "wordvec", "models")
}

// defaultOutputPath is where train writes when no output is configured.
// $WORDVEC_MODEL_PATH wins even if the file does not exist yet.
func defaultOutputPath() string {
	if p := os.Getenv(EnvModelPath); p != "" {
		return p
	}
	return filepath.Join(ModelDir(), modelFileName)
}

// resolveModel picks the model path from the command arguments or the default.
func resolveModel(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return DefaultModelPath()
}
