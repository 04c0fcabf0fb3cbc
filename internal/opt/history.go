package opt

import "slices"

// FODE defaults.
const (
	FractionalOrder = 0.8
	HistoryDepth    = 5
)

// FractionalCoefficients returns the n weights of the fractional difference of
// the given order: c_0 = order and c_j = order(order-1)...(order-j+1) / j!.
func FractionalCoefficients(order float64, n int) []float64 {
	coeffs := make([]float64, n)
	if n == 0 {
		return coeffs
	}
	coeffs[0] = order

	num, fact := 1.0, 1.0
	for j := 1; j < n; j++ {
		num *= order - float64(j-1)
		fact *= float64(j)
		coeffs[j] = num / fact
	}
	return coeffs
}

// DifferenceHistory keeps the most recent raw difference vectors of a FODE run:
// one queue of (pbest - target) and one of (r1 - r2), each at most depth long.
type DifferenceHistory struct {
	depth  int
	coeffs []float64
	pbest  [][]float64
	random [][]float64
}

func NewDifferenceHistory(depth int, order float64) *DifferenceHistory {
	return &DifferenceHistory{
		depth:  depth,
		coeffs: FractionalCoefficients(order, depth),
	}
}

// Push appends one pair of differences, dropping the oldest past depth.
func (h *DifferenceHistory) Push(pbestDiff, randDiff []float64) {
	h.pbest = pushBounded(h.pbest, slices.Clone(pbestDiff), h.depth)
	h.random = pushBounded(h.random, slices.Clone(randDiff), h.depth)
}

// Len is the number of stored pairs.
func (h *DifferenceHistory) Len() int { return len(h.pbest) }

// Fractional returns the weighted sums over both queues, the newest entry
// weighted by c_0.
func (h *DifferenceHistory) Fractional() (pbest, random []float64) {
	return weightedNewestFirst(h.pbest, h.coeffs), weightedNewestFirst(h.random, h.coeffs)
}

func pushBounded(queue [][]float64, v []float64, depth int) [][]float64 {
	queue = append(queue, v)
	if len(queue) > depth {
		queue = slices.Delete(queue, 0, len(queue)-depth)
	}
	return queue
}

func weightedNewestFirst(queue [][]float64, coeffs []float64) []float64 {
	if len(queue) == 0 {
		return nil
	}
	out := make([]float64, len(queue[0]))
	for j := 0; j < len(queue); j++ {
		v := queue[len(queue)-1-j]
		for d := range out {
			out[d] += coeffs[j] * v[d]
		}
	}
	return out
}
