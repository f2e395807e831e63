// Package sampling holds the two frequency-driven sampling policies used
// during training: the unigram table negatives are drawn from and the
// subsampler that discards very frequent words.
package sampling

import (
	"math"
	"math/rand/v2"
)

const (
	// DefaultTableSize is the number of slots in a unigram table.
	DefaultTableSize = 10_000_000
	// DefaultPower is the exponent applied to word frequencies.
	DefaultPower = 0.75
)

// UnigramTable maps uniformly drawn slots to word indices with probability
// proportional to frequency^power. It is immutable after construction.
type UnigramTable struct {
	table []int32
}

// NewUnigramTable fills a table of size slots from freqs.
// It panics if freqs is empty, size is not positive or power is not positive.
func NewUnigramTable(freqs []uint64, size int, power float64) *UnigramTable {
	if len(freqs) == 0 {
		panic("sampling: empty frequency list")
	}
	if size <= 0 {
		panic("sampling: table size must be positive")
	}
	if power <= 0 {
		panic("sampling: power must be positive")
	}

	var total float64
	for _, f := range freqs {
		total += math.Pow(float64(f), power)
	}

	table := make([]int32, size)
	i := 0
	cum := math.Pow(float64(freqs[0]), power) / total
	for a := range table {
		table[a] = int32(i)
		if float64(a)/float64(size) > cum && i < len(freqs)-1 {
			i++
			cum += math.Pow(float64(freqs[i]), power) / total
		}
	}
	return &UnigramTable{table: table}
}

// Sample draws a word index.
func (t *UnigramTable) Sample(rng *rand.Rand) int {
	return int(t.table[rng.IntN(len(t.table))])
}

// Len returns the number of slots.
func (t *UnigramTable) Len() int { return len(t.table) }

// Subsampler randomly discards occurrences of frequent words.
type Subsampler struct {
	threshold float64 // sample * trainWords
}

// NewSubsampler returns a policy for the given sample threshold and number of
// training words. A non-positive sample disables subsampling.
func NewSubsampler(sample float64, trainWords uint64) Subsampler {
	if sample <= 0 || trainWords == 0 {
		return Subsampler{}
	}
	return Subsampler{threshold: sample * float64(trainWords)}
}

// Enabled reports whether any occurrence can be discarded.
func (s Subsampler) Enabled() bool { return s.threshold > 0 }

// Keep returns the probability of keeping an occurrence of a word with
// frequency freq.
func (s Subsampler) Keep(freq uint64) float64 {
	if s.threshold <= 0 || freq == 0 {
		return 1
	}
	f := float64(freq)
	p := (math.Sqrt(f/s.threshold) + 1) * s.threshold / f
	return min(max(p, 0), 1)
}

// Discard draws whether an occurrence should be dropped.
func (s Subsampler) Discard(freq uint64, rng *rand.Rand) bool {
	if s.threshold <= 0 {
		return false
	}
	return s.Keep(freq) < rng.Float64()
}
