package benchmarks

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// analogyCase is one "a is to b as c is to want" question, asked as
// Analogy(b, a, c) → want.
type analogyCase struct {
	a, b, c  string
	want     string
	category string
}

type pair struct{ male, female string }

var royalty = []pair{
	{"king", "queen"}, {"prince", "princess"}, {"duke", "duchess"}, {"emperor", "empress"},
}

var family = []pair{
	{"father", "mother"}, {"son", "daughter"}, {"brother", "sister"}, {"uncle", "aunt"},
	{"husband", "wife"}, {"boy", "girl"}, {"man", "woman"},
}

var fillers = []string{
	"river", "market", "garden", "harbor", "valley", "bridge", "forest", "castle",
	"village", "meadow", "tower", "library",
}

// Dataset lists the analogy questions the report asks.
var Dataset = buildDataset()

func buildDataset() []analogyCase {
	var out []analogyCase
	add := func(pairs []pair, category string) {
		for i, p := range pairs {
			q := pairs[(i+1)%len(pairs)]
			out = append(out, analogyCase{a: p.male, b: p.female, c: q.male, want: q.female, category: category})
		}
	}
	add(royalty, "royalty")
	add(family, "family")
	return out
}

// syntheticCorpus writes sentences where every male/female word shares
// topical context with its pair and gendered context with its group.
func syntheticCorpus(sentences int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, 0))
	groups := [][]pair{royalty, family}
	topics := []string{"crown throne palace", "home dinner table"}

	var sb strings.Builder
	for range sentences {
		g := rng.IntN(len(groups))
		p := groups[g][rng.IntN(len(groups[g]))]
		word, pronoun := p.male, "he"
		if rng.IntN(2) == 1 {
			word, pronoun = p.female, "she"
		}
		place := fillers[rng.IntN(len(fillers))]
		fmt.Fprintf(&sb, "the %s said %s went to the %s near the %s.\n", word, pronoun, place, topics[g])
	}
	return []byte(sb.String())
}
