package canonical

import (
	"math"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

// Kernel is a positive semi-definite similarity between bigraphs.
type Kernel interface {
	Similarity(a, b *bigraph.Bigraph) float64
}

// DefaultWLIterations is the refinement depth used when WLKernel.Iterations
// is not set.
const DefaultWLIterations = 3

// WLKernel is the Weisfeiler-Lehman subtree kernel: the dot product of the
// colour histograms of a fixed number of refinement rounds.
type WLKernel struct {
	Iterations int
}

// Features returns the colour histogram summed over all rounds.
func (k WLKernel) Features(b *bigraph.Bigraph) map[uint64]float64 {
	iters := k.Iterations
	if iters <= 0 {
		iters = DefaultWLIterations
	}
	col := Refine(b, iters)
	out := make(map[uint64]float64)
	for _, hist := range col.Rounds {
		for c, n := range hist {
			out[c] += float64(n)
		}
	}
	return out
}

// Similarity implements Kernel.
func (k WLKernel) Similarity(a, b *bigraph.Bigraph) float64 {
	return Dot(k.Features(a), k.Features(b))
}

// Dot is the sparse dot product of two feature vectors.
func Dot(a, b map[uint64]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	sum := 0.0
	for c, x := range a {
		sum += x * b[c]
	}
	return sum
}

// Normalized returns k(a,b) / sqrt(k(a,a) k(b,b)), or 0 when either side
// has zero self-similarity.
func Normalized(k Kernel, a, b *bigraph.Bigraph) float64 {
	den := math.Sqrt(k.Similarity(a, a) * k.Similarity(b, b))
	if den == 0 {
		return 0
	}
	return k.Similarity(a, b) / den
}
