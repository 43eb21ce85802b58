package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var nan = math.NaN()

func TestMeanSumStdDev(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		mean float64
		sum  float64
	}{
		{"plain", []float64{1, 2, 3}, 2, 6},
		{"skips missing", []float64{1, nan, 3}, 2, 4},
		{"all missing sums to zero", []float64{nan, nan}, nan, 0},
		{"empty", nil, nan, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.IsNaN(tt.mean) {
				assert.True(t, math.IsNaN(Mean(tt.xs)))
			} else {
				assert.InDelta(t, tt.mean, Mean(tt.xs), 1e-9)
			}
			assert.InDelta(t, tt.sum, Sum(tt.xs), 1e-9)
		})
	}

	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-9)
	assert.True(t, math.IsNaN(StdDev([]float64{5})))
}

func TestQuantile(t *testing.T) {
	xs := []float64{1, 2, 3, 4}

	tests := []struct {
		name     string
		p        float64
		expected float64
	}{
		{"median interpolates", 0.5, 2.5},
		{"p75", 0.75, 3.25},
		{"p0 is min", 0, 1},
		{"p1 is max", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Quantile(xs, tt.p), 1e-9)
		})
	}

	assert.InDelta(t, 2.5, Median(xs), 1e-9)
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestMinMaxScale(t *testing.T) {
	t.Run("scales into unit range", func(t *testing.T) {
		got := MinMaxScale([]float64{10, 20, 30})
		assert.InDelta(t, 0, got[0], 1e-9)
		assert.InDelta(t, 0.5, got[1], 1e-9)
		assert.InDelta(t, 1, got[2], 1e-9)
	})

	t.Run("constant input scales to zeros", func(t *testing.T) {
		got := MinMaxScale([]float64{7, 7, 7})
		for _, v := range got {
			assert.Equal(t, 0.0, v)
		}
	})

	t.Run("missing stays missing", func(t *testing.T) {
		got := MinMaxScale([]float64{1, nan, 3})
		assert.True(t, math.IsNaN(got[1]))
		assert.InDelta(t, 1, got[2], 1e-9)
	})
}

func TestCorrelation(t *testing.T) {
	t.Run("perfect positive", func(t *testing.T) {
		assert.InDelta(t, 1, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	})

	t.Run("perfect negative", func(t *testing.T) {
		assert.InDelta(t, -1, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	})

	t.Run("skips incomplete pairs", func(t *testing.T) {
		got := Correlation([]float64{1, nan, 2, 3}, []float64{2, 5, 4, 6})
		assert.InDelta(t, 1, got, 1e-9)
	})

	t.Run("too few pairs", func(t *testing.T) {
		assert.True(t, math.IsNaN(Correlation([]float64{1}, []float64{2})))
	})
}

func TestIQROutlierCount(t *testing.T) {
	xs := []float64{1, 2, 2, 3, 2, 2, 3, 100}
	assert.Equal(t, 1, IQROutlierCount(xs))
	assert.Equal(t, 0, IQROutlierCount(nil))
}

func TestForecastErrors(t *testing.T) {
	actual := []float64{100, 200, 300}
	predicted := []float64{110, 190, 310}

	assert.InDelta(t, 10, MAE(actual, predicted), 1e-9)
	assert.InDelta(t, 10, RMSE(actual, predicted), 1e-9)
	assert.InDelta(t, (0.1+0.05+1.0/30.0)/3*100, MAPE(actual, predicted), 1e-9)

	t.Run("zero actuals excluded from MAPE", func(t *testing.T) {
		got := MAPE([]float64{0, 100}, []float64{5, 110})
		assert.InDelta(t, 10, got, 1e-9)
	})
}
