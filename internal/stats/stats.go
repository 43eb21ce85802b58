// Package stats provides the descriptive statistics shared by the
// analytics pipelines. Inputs follow the table package convention that
// NaN marks a missing value; every function drops missing entries
// before computing, so callers can pass columns straight through.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DropNaN returns the non-missing values of xs in order.
func DropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the arithmetic mean of the non-missing values, or NaN
// when none remain.
func Mean(xs []float64) float64 {
	clean := DropNaN(xs)
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}

// Sum returns the sum of the non-missing values. An all-missing input
// sums to 0, matching the aggregation semantics of the table package.
func Sum(xs []float64) float64 {
	total := 0.0
	for _, v := range xs {
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// StdDev returns the sample standard deviation of the non-missing
// values, or NaN when fewer than two remain.
func StdDev(xs []float64) float64 {
	clean := DropNaN(xs)
	if len(clean) < 2 {
		return math.NaN()
	}
	return stat.StdDev(clean, nil)
}

// Median returns the middle value of the non-missing values.
func Median(xs []float64) float64 {
	return Quantile(xs, 0.5)
}

// Quantile returns the p-quantile (0..1) of the non-missing values
// using linear interpolation between order statistics, the same
// estimator the source extracts were profiled with.
func Quantile(xs []float64, p float64) float64 {
	clean := DropNaN(xs)
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	if p <= 0 {
		return clean[0]
	}
	if p >= 1 {
		return clean[len(clean)-1]
	}
	pos := p * float64(len(clean)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return clean[lo]
	}
	frac := pos - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// MinMaxScale rescales values into [0, 1]. Missing values stay missing;
// a constant (or single-valued) input scales to all zeros so downstream
// composite scores degrade gracefully.
func MinMaxScale(xs []float64) []float64 {
	clean := DropNaN(xs)
	out := make([]float64, len(xs))
	if len(clean) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	minV, maxV := clean[0], clean[0]
	for _, v := range clean {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	for i, v := range xs {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case maxV == minV:
			out[i] = 0
		default:
			out[i] = (v - minV) / (maxV - minV)
		}
	}
	return out
}

// Correlation returns the Pearson correlation of paired observations,
// skipping pairs where either side is missing. Fewer than two complete
// pairs, or a constant side, yields NaN.
func Correlation(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var cx, cy []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		cx = append(cx, xs[i])
		cy = append(cy, ys[i])
	}
	if len(cx) < 2 {
		return math.NaN()
	}
	return stat.Correlation(cx, cy, nil)
}

// IQROutlierCount counts values outside the 1.5*IQR fences.
func IQROutlierCount(xs []float64) int {
	clean := DropNaN(xs)
	if len(clean) == 0 {
		return 0
	}
	q1 := Quantile(clean, 0.25)
	q3 := Quantile(clean, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr
	count := 0
	for _, v := range clean {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// MAE returns the mean absolute error between actuals and predictions.
func MAE(actual, predicted []float64) float64 {
	n := pairCount(actual, predicted)
	if n == 0 {
		return math.NaN()
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += math.Abs(actual[i] - predicted[i])
	}
	return total / float64(n)
}

// RMSE returns the root mean squared error between actuals and predictions.
func RMSE(actual, predicted []float64) float64 {
	n := pairCount(actual, predicted)
	if n == 0 {
		return math.NaN()
	}
	total := 0.0
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		total += d * d
	}
	return math.Sqrt(total / float64(n))
}

// MAPE returns the mean absolute percentage error, excluding zero
// actuals from the denominator.
func MAPE(actual, predicted []float64) float64 {
	n := pairCount(actual, predicted)
	total, count := 0.0, 0
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			continue
		}
		total += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return total / float64(count) * 100
}

func pairCount(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
