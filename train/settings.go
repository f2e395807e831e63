package train

import (
	"errors"
	"fmt"
	"math"

	"github.com/vpatel95/text-vector/sampling"
)

// DefaultDelims separates words in a training corpus.
const DefaultDelims = " \n,.-!?:;/\"#$%&'()*+<=>@[]\\^_`{|}~\t\v\f\r"

// DefaultEOS marks the end of a sentence. Every byte is also in DefaultDelims.
const DefaultEOS = ".\n?!"

// Settings holds the training hyper-parameters.
type Settings struct {
	MinFrequency   uint64  `yaml:"min_freq"`         // words seen fewer times are ignored (default 5)
	Size           int     `yaml:"size"`             // vector dimension (default 100)
	Window         int     `yaml:"window"`           // max context distance (default 5)
	ExpTableSize   int     `yaml:"exp_table_size"`   // sigmoid table entries (default 1000)
	MaxExp         float32 `yaml:"max_exp"`          // sigmoid table range [-MaxExp, MaxExp] (default 6)
	NSTableSize    int     `yaml:"ns_table_size"`    // negative sampling table slots (default 1e7)
	NSPower        float64 `yaml:"ns_power"`         // unigram exponent (default 0.75)
	Sample         float64 `yaml:"sample"`           // subsampling threshold, 0 disables (default 1e-3)
	HS             bool    `yaml:"hs"`               // hierarchical softmax
	Negative       int     `yaml:"negative"`         // negative samples per target, 0 disables (default 5)
	Threads        int     `yaml:"threads"`          // worker goroutines (default 4)
	Iterations     int     `yaml:"iterations"`       // passes over the corpus (default 5)
	Alpha          float32 `yaml:"alpha"`            // starting learning rate (default 0.05)
	SkipGram       bool    `yaml:"sg"`               // skip-gram instead of CBOW
	Delims         string  `yaml:"delims"`           // word delimiters
	EOS            string  `yaml:"eos"`              // sentence delimiters
	Seed           uint64  `yaml:"seed"`             // weight init and worker randomness
	MaxWordLen     int     `yaml:"max_word_len"`     // longer words are truncated (default 100)
	MaxSentenceLen int     `yaml:"max_sentence_len"` // words per training sentence (default 1000)
}

// DefaultSettings returns the stock word2vec configuration.
func DefaultSettings() Settings {
	return Settings{
		MinFrequency:   5,
		Size:           100,
		Window:         5,
		ExpTableSize:   1000,
		MaxExp:         6,
		NSTableSize:    sampling.DefaultTableSize,
		NSPower:        sampling.DefaultPower,
		Sample:         1e-3,
		Negative:       5,
		Threads:        4,
		Iterations:     5,
		Alpha:          0.05,
		Delims:         DefaultDelims,
		EOS:            DefaultEOS,
		Seed:           1,
		MaxWordLen:     100,
		MaxSentenceLen: 1000,
	}
}

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("train: invalid settings")

// Validate reports the first out-of-range field.
func (s Settings) Validate() error {
	switch {
	case s.Size <= 0:
		return fmt.Errorf("%w: size must be positive", ErrInvalidSettings)
	case s.Size > math.MaxUint16:
		return fmt.Errorf("%w: size must be at most %d", ErrInvalidSettings, math.MaxUint16)
	case s.Window <= 0:
		return fmt.Errorf("%w: window must be positive", ErrInvalidSettings)
	case s.ExpTableSize <= 0:
		return fmt.Errorf("%w: exp_table_size must be positive", ErrInvalidSettings)
	case s.MaxExp <= 0:
		return fmt.Errorf("%w: max_exp must be positive", ErrInvalidSettings)
	case s.Negative < 0:
		return fmt.Errorf("%w: negative must not be negative", ErrInvalidSettings)
	case !s.HS && s.Negative == 0:
		return fmt.Errorf("%w: enable hierarchical softmax or negative sampling", ErrInvalidSettings)
	case s.Negative > 0 && s.NSTableSize <= 0:
		return fmt.Errorf("%w: ns_table_size must be positive", ErrInvalidSettings)
	case s.Negative > 0 && s.NSPower <= 0:
		return fmt.Errorf("%w: ns_power must be positive", ErrInvalidSettings)
	case s.Sample < 0:
		return fmt.Errorf("%w: sample must not be negative", ErrInvalidSettings)
	case s.Threads <= 0:
		return fmt.Errorf("%w: threads must be positive", ErrInvalidSettings)
	case s.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidSettings)
	case s.Alpha <= 0:
		return fmt.Errorf("%w: alpha must be positive", ErrInvalidSettings)
	case s.Delims == "":
		return fmt.Errorf("%w: delims must not be empty", ErrInvalidSettings)
	case s.MaxWordLen <= 0:
		return fmt.Errorf("%w: max_word_len must be positive", ErrInvalidSettings)
	case s.MaxSentenceLen <= 0:
		return fmt.Errorf("%w: max_sentence_len must be positive", ErrInvalidSettings)
	}
	return nil
}
