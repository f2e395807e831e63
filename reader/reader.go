// Package reader splits a byte range into words on a configurable set of
// delimiter bytes. A subset of the delimiters marks the end of a sentence;
// each run of sentence delimiters is reported once as an empty word.
package reader

import (
	"errors"
	"fmt"
)

// DefaultMaxWordLen is the longest word kept; longer words are truncated.
const DefaultMaxWordLen = 100

// ErrRange is returned when the requested range does not fit the data.
var ErrRange = errors.New("reader: range is out of bounds")

// Options configures a Reader.
type Options struct {
	Delims     string // word delimiters
	EOS        string // subset of Delims that also ends a sentence
	Start      int    // first byte of the range
	Stop       int    // end of the range (exclusive); 0 means len(data)
	MaxWordLen int    // default DefaultMaxWordLen
}

// Reader produces words lazily from a byte range. It is restartable with
// Reset and is not safe for concurrent use.
//
// Words belong to the range in which they start: a Reader skips a partial
// word at the start of its range (it belongs to the preceding range) and
// completes a word that runs past the end of its range. Readers over
// adjacent ranges therefore see every word exactly once.
type Reader struct {
	data    []byte
	delim   [256]bool
	eos     [256]bool
	start   int
	stop    int
	offset  int
	word    []byte
	pos     int
	lastEOS bool
}

// New creates a Reader over data[opts.Start:opts.Stop].
func New(data []byte, opts Options) (*Reader, error) {
	stop := opts.Stop
	if stop == 0 {
		stop = len(data)
	}
	if stop > len(data) || stop < 0 {
		return nil, fmt.Errorf("%w: stop %d, size %d", ErrRange, stop, len(data))
	}
	if opts.Start < 0 || opts.Start > stop {
		return nil, fmt.Errorf("%w: start %d, stop %d", ErrRange, opts.Start, stop)
	}
	maxLen := opts.MaxWordLen
	if maxLen <= 0 {
		maxLen = DefaultMaxWordLen
	}

	r := &Reader{
		data:  data,
		start: opts.Start,
		stop:  stop,
		word:  make([]byte, maxLen),
	}
	for i := 0; i < len(opts.Delims); i++ {
		r.delim[opts.Delims[i]] = true
	}
	for i := 0; i < len(opts.EOS); i++ {
		r.delim[opts.EOS[i]] = true
		r.eos[opts.EOS[i]] = true
	}
	r.Reset()
	return r, nil
}

// Reset rewinds the Reader to the start of its range.
func (r *Reader) Reset() {
	r.offset = r.start
	r.pos = 0
	r.lastEOS = false
	if r.start == 0 || r.start >= len(r.data) {
		return
	}

	if !r.delim[r.data[r.start-1]] {
		for r.offset < len(r.data) && !r.delim[r.data[r.offset]] {
			r.offset++
		}
		return
	}
	// Carry the collapse state of a sentence-delimiter run that straddles
	// the range start.
	for i := r.start - 1; i >= 0 && r.delim[r.data[i]]; i-- {
		if r.eos[r.data[i]] {
			r.lastEOS = true
			return
		}
	}
}

// Offset returns the current read position in data.
func (r *Reader) Offset() int { return r.offset }

// Start returns the first byte of the range.
func (r *Reader) Start() int { return r.start }

// Stop returns the end of the range.
func (r *Reader) Stop() int { return r.stop }

// Size returns the length of the range in bytes.
func (r *Reader) Size() int { return r.stop - r.start }

// NextBytes returns the next word. An empty, non-nil slice marks the end of
// a sentence. The returned slice is only valid until the next call.
// ok is false once the range is exhausted.
func (r *Reader) NextBytes() (word []byte, ok bool) {
	for r.offset < len(r.data) {
		if r.offset >= r.stop && r.pos == 0 {
			break
		}
		ch := r.data[r.offset]
		r.offset++
		if r.delim[ch] {
			if r.eos[ch] {
				if r.pos > 0 {
					r.offset--
					break
				}
				if !r.lastEOS {
					r.lastEOS = true
					return r.word[:0], true
				}
				continue
			}
			if r.pos > 0 {
				break
			}
			continue
		}
		if r.pos < len(r.word) {
			r.word[r.pos] = ch
		}
		r.pos++
	}

	if r.pos > 0 {
		n := min(r.pos, len(r.word))
		r.pos = 0
		r.lastEOS = false
		return r.word[:n], true
	}
	return nil, false
}

// Next is NextBytes returning a string. The empty string marks the end of a
// sentence.
func (r *Reader) Next() (string, bool) {
	b, ok := r.NextBytes()
	if !ok {
		return "", false
	}
	return string(b), true
}

// Words reads every remaining word (end-of-sentence markers excluded).
func (r *Reader) Words() []string {
	var out []string
	for {
		w, ok := r.Next()
		if !ok {
			return out
		}
		if w != "" {
			out = append(out, w)
		}
	}
}
