package train

// Range is a half-open byte range [Start, Stop) of the corpus.
type Range struct {
	Start int
	Stop  int
}

// Partition splits [0, size) into parts contiguous, disjoint ranges.
// The last range always ends at size.
func Partition(size, parts int) []Range {
	if parts <= 0 {
		panic("train: parts must be positive")
	}
	out := make([]Range, parts)
	for i := range out {
		out[i] = Range{Start: i * size / parts, Stop: (i + 1) * size / parts}
	}
	out[parts-1].Stop = size
	return out
}
