// Package vocab builds the frequency-ordered vocabulary a training run works
// against. Index 0 is always the end-of-sentence token EOS; every other word
// is indexed by descending corpus frequency.
package vocab

import (
	"cmp"
	"slices"

	"github.com/vpatel95/text-vector/reader"
)

// EOS is the token text stored for end-of-sentence markers.
const EOS = "</s>"

// Word is a vocabulary entry.
type Word struct {
	Index     int
	Frequency uint64
}

// ProgressFunc receives the percentage of corpus bytes consumed.
type ProgressFunc func(percent float32)

// StatsFunc receives the vocabulary size, the number of corpus words kept
// after filtering and the raw corpus word count.
type StatsFunc func(size, trainWords, totalWords int)

// Options configures Build.
type Options struct {
	MinFrequency uint64
	StopWords    map[string]struct{}
	Progress     ProgressFunc
	Stats        StatsFunc
}

// Vocabulary is an immutable word → index mapping.
// It is safe for concurrent use.
type Vocabulary struct {
	index      map[string]int
	words      []string
	freqs      []uint64
	totalWords uint64
	trainWords uint64
}

// Build scans every word of r and returns the resulting vocabulary.
// Stop words and words seen fewer than MinFrequency times get no index.
func Build(r *reader.Reader, opts Options) *Vocabulary {
	counts := make(map[string]uint64)
	var total uint64

	size := r.Size()
	step := max(size/10000, 1)
	lastReport := r.Offset()

	for {
		b, ok := r.NextBytes()
		if !ok {
			break
		}
		if len(b) == 0 {
			counts[EOS]++
		} else {
			counts[string(b)]++
		}
		total++

		if opts.Progress != nil && r.Offset()-lastReport >= step {
			lastReport = r.Offset()
			opts.Progress(float32(r.Offset()-r.Start()) / float32(size) * 100)
		}
	}

	for w := range opts.StopWords {
		delete(counts, w)
	}
	if n, ok := counts[EOS]; ok {
		total -= n
		delete(counts, EOS)
	}

	type candidate struct {
		word string
		freq uint64
	}
	candidates := make([]candidate, 0, len(counts))
	var train uint64
	for w, n := range counts {
		if n < opts.MinFrequency {
			continue
		}
		candidates = append(candidates, candidate{w, n})
		train += n
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.freq, a.freq); c != 0 {
			return c
		}
		return cmp.Compare(a.word, b.word)
	})

	v := &Vocabulary{
		index:      make(map[string]int, len(candidates)+1),
		words:      make([]string, 0, len(candidates)+1),
		freqs:      make([]uint64, 0, len(candidates)+1),
		totalWords: total,
		trainWords: train,
	}
	eosFreq := uint64(1)
	if len(candidates) > 0 {
		eosFreq = candidates[0].freq + 1
	}
	v.add(EOS, eosFreq)
	for _, c := range candidates {
		v.add(c.word, c.freq)
	}

	if opts.Stats != nil {
		opts.Stats(v.Size(), int(v.trainWords), int(v.totalWords))
	}
	return v
}

func (v *Vocabulary) add(word string, freq uint64) {
	v.index[word] = len(v.words)
	v.words = append(v.words, word)
	v.freqs = append(v.freqs, freq)
}

// StopWords collects every word of r into a set.
func StopWords(r *reader.Reader) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range r.Words() {
		set[w] = struct{}{}
	}
	return set
}

// Lookup returns the entry for word.
func (v *Vocabulary) Lookup(word string) (Word, bool) {
	i, ok := v.index[word]
	if !ok {
		return Word{}, false
	}
	return Word{Index: i, Frequency: v.freqs[i]}, true
}

// IndexBytes returns the index of word without allocating.
func (v *Vocabulary) IndexBytes(word []byte) (int, bool) {
	i, ok := v.index[string(word)]
	return i, ok
}

// Size returns the number of entries, EOS included.
func (v *Vocabulary) Size() int { return len(v.words) }

// Word returns the text stored at index i.
func (v *Vocabulary) Word(i int) string { return v.words[i] }

// Frequency returns the frequency stored at index i.
func (v *Vocabulary) Frequency(i int) uint64 { return v.freqs[i] }

// Words returns the entries in index order. The slice must not be modified.
func (v *Vocabulary) Words() []string { return v.words }

// Frequencies returns the frequencies in index order. The slice must not be
// modified.
func (v *Vocabulary) Frequencies() []uint64 { return v.freqs }

// TotalWords is the raw corpus word count, end-of-sentence markers excluded.
func (v *Vocabulary) TotalWords() uint64 { return v.totalWords }

// TrainWords is the number of corpus words that survived filtering.
func (v *Vocabulary) TrainWords() uint64 { return v.trainWords }
