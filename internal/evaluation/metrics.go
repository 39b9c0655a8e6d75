package evaluation

import (
	"math"
	"sort"
)

// NDCG calculates Normalized Discounted Cumulative Gain at K.
// The ranking is cut to its first k labels before both DCG and the ideal
// DCG are computed; k <= 0 means no cutoff. Returns 0 when the ideal DCG is 0.
func NDCG(relevances []int, k int) float64 {
	if k <= 0 || k > len(relevances) {
		k = len(relevances)
	}
	if k == 0 {
		return 0
	}
	ranked := relevances[:k]

	dcg := discountedGain(ranked)

	// Ideal DCG over the same truncated labels
	sorted := make([]int, k)
	copy(sorted, ranked)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	idcg := discountedGain(sorted)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// discountedGain sums rel_i / log2(i+1) over 1-indexed ranks.
func discountedGain(relevances []int) float64 {
	dcg := 0.0
	for i, r := range relevances {
		dcg += float64(r) / math.Log2(float64(i+2))
	}
	return dcg
}

// Recall calculates Recall at K over the labels of the returned list.
func Recall(relevances []int, k int, threshold int) float64 {
	if k > len(relevances) {
		k = len(relevances)
	}

	// Count total relevant
	totalRelevant := 0
	for _, r := range relevances {
		if r >= threshold {
			totalRelevant++
		}
	}

	if totalRelevant == 0 {
		return 0
	}

	// Count relevant in top K
	relevantInK := 0
	for i := 0; i < k; i++ {
		if relevances[i] >= threshold {
			relevantInK++
		}
	}

	return float64(relevantInK) / float64(totalRelevant)
}

// Precision calculates Precision at K
func Precision(relevances []int, k int, threshold int) float64 {
	if k > len(relevances) {
		k = len(relevances)
	}
	if k <= 0 {
		return 0
	}

	relevant := 0
	for i := 0; i < k; i++ {
		if relevances[i] >= threshold {
			relevant++
		}
	}

	return float64(relevant) / float64(k)
}

// MRR calculates the reciprocal rank of the first relevant label.
func MRR(relevances []int, threshold int) float64 {
	for i, r := range relevances {
		if r >= threshold {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision calculates Average Precision
func AveragePrecision(relevances []int, threshold int) float64 {
	relevant := 0
	sumPrecision := 0.0

	for i, r := range relevances {
		if r >= threshold {
			relevant++
			sumPrecision += float64(relevant) / float64(i+1)
		}
	}

	if relevant == 0 {
		return 0
	}
	return sumPrecision / float64(relevant)
}

// Round5 rounds a score to 5 decimal places.
func Round5(x float64) float64 {
	return math.Round(x*1e5) / 1e5
}
