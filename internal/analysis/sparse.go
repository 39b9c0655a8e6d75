package analysis

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// SparseVector is a term-frequency vector keyed by hashed term ids.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// TermID maps a term to its sparse dimension.
func TermID(term string) uint32 {
	return uint32(xxhash.Sum64String(term))
}

// Sparse analyzes text and returns raw term frequencies. IDF weighting is
// applied by the backend. Indices are sorted ascending.
func (a Analyzer) Sparse(text string) SparseVector {
	tf := make(map[uint32]float32)
	for _, term := range a.Analyze(text) {
		tf[TermID(term)]++
	}

	indices := make([]uint32, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = tf[idx]
	}

	return SparseVector{Indices: indices, Values: values}
}

// Empty reports whether the vector has no terms.
func (v SparseVector) Empty() bool {
	return len(v.Indices) == 0
}
