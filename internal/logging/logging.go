// Package logging configures the logrus loggers used across the module.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultLogger *logrus.Logger
	defaultOnce   sync.Once
)

// New returns a logger writing to out at the given level. Format "json"
// selects the JSON formatter; anything else uses text. Unknown levels fall
// back to info.
func New(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	if out != nil {
		l.SetOutput(out)
	}
	l.SetLevel(ParseLevel(level))
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

// L returns the process-wide default logger (info, text, stderr).
func L() *logrus.Logger {
	defaultOnce.Do(func() {
		defaultLogger = New("info", "text", os.Stderr)
	})
	return defaultLogger
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
