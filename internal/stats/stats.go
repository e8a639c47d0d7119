package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean computes the arithmetic mean of the finite values in the slice.
// NaN and Inf entries are treated as missing and skipped. Returns NaN
// when no finite values are present.
func Mean(values []float64) float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// StdDev computes the sample standard deviation (ddof=1) of the finite
// values in the slice. Returns 0 when fewer than 2 finite values exist.
func StdDev(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) {
		return 0
	}

	sumSquared := 0.0
	count := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		d := v - mean
		sumSquared += d * d
		count++
	}
	if count < 2 {
		return 0
	}
	return math.Sqrt(sumSquared / float64(count-1))
}

// PopStdDev computes the population standard deviation (ddof=0).
func PopStdDev(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) {
		return 0
	}

	sumSquared := 0.0
	count := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		d := v - mean
		sumSquared += d * d
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquared / float64(count))
}

// CV computes the coefficient of variation as 100*std/|mean| using the
// sample standard deviation. Defined as 0 when the mean is 0 or when no
// finite values are present.
func CV(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) || mean == 0 {
		return 0
	}
	return (StdDev(values) / math.Abs(mean)) * 100
}

// Percentile returns the value at the given percentile p in [0,1] using
// linear interpolation between closest ranks over the sorted finite
// values (fractional index p*(n-1), numpy's default rule).
func Percentile(values []float64, p float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(finite))
	copy(sorted, finite)
	sort.Float64s(sorted)

	n := len(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Clip bounds v to the closed interval [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RMSE computes the root mean squared error between two equal-length
// slices. Returns NaN when the slices are empty or lengths differ.
func RMSE(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

// Ranks assigns 0-based fractional ranks to the values, averaging ranks
// across ties. Used as the basis for Spearman correlation.
func Ranks(values []float64) []float64 {
	n := len(values)
	ranks := make([]float64, n)
	if n == 0 {
		return ranks
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})

	for i := 0; i < n; {
		j := i
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		// Average rank across the tie group [i, j).
		avg := (float64(i) + float64(j-1)) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	return ranks
}

// Pearson computes the Pearson correlation coefficient between x and y.
// Returns 0 when either side has zero variance.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// Spearman computes the Spearman rank correlation between x and y by
// applying Pearson correlation to tie-averaged ranks.
func Spearman(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return Pearson(Ranks(x), Ranks(y))
}
