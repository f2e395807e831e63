package train

import "math"

// sigmoidTable precomputes the logistic function over [-max, max].
type sigmoidTable struct {
	values []float32
	max    float32
	scale  float32
}

func newSigmoidTable(size int, maxExp float32) sigmoidTable {
	t := sigmoidTable{
		values: make([]float32, size+1),
		max:    maxExp,
		scale:  float32(size) / maxExp / 2,
	}
	for i := range t.values {
		e := math.Exp((float64(i)/float64(size)*2 - 1) * float64(maxExp))
		t.values[i] = float32(e / (e + 1))
	}
	return t
}

// at returns sigmoid(f). f must lie in (-max, max).
func (t sigmoidTable) at(f float32) float32 {
	return t.values[int((f+t.max)*t.scale)]
}
