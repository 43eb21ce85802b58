// Package forecast implements the monthly sales forecast used by the
// inventory pipeline: Holt's linear-trend exponential smoothing with
// smoothing parameters chosen by an in-sample SSE grid search.
package forecast

import (
	"fmt"
	"math"

	"opsight/internal/stats"
)

// MinObservations is the shortest series Holt fitting accepts; two
// points initialize level and trend, a third gives the grid something
// to score.
const MinObservations = 3

// HoltModel holds a fitted Holt linear-trend model.
type HoltModel struct {
	Alpha  float64   // level smoothing
	Beta   float64   // trend smoothing
	Level  float64   // final level state
	Trend  float64   // final trend state
	Fitted []float64 // one-step-ahead in-sample fits
	SSE    float64
	MAE    float64
	RMSE   float64
}

// FitHolt fits Holt's linear method to the series. Alpha and beta are
// selected from a 0.1..0.9 grid by in-sample sum of squared one-step
// errors. Missing values are not allowed; callers aggregate to a
// regular monthly grid first.
func FitHolt(series []float64) (*HoltModel, error) {
	if len(series) < MinObservations {
		return nil, fmt.Errorf("need at least %d observations, got %d", MinObservations, len(series))
	}
	for i, v := range series {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("series contains missing value at index %d", i)
		}
	}

	best := (*HoltModel)(nil)
	for alpha := 0.1; alpha <= 0.91; alpha += 0.1 {
		for beta := 0.1; beta <= 0.91; beta += 0.1 {
			m := smooth(series, alpha, beta)
			if best == nil || m.SSE < best.SSE {
				best = m
			}
		}
	}

	best.MAE = stats.MAE(series[1:], best.Fitted[1:])
	best.RMSE = stats.RMSE(series[1:], best.Fitted[1:])
	return best, nil
}

// smooth runs one pass of Holt smoothing and records one-step fits.
func smooth(series []float64, alpha, beta float64) *HoltModel {
	level := series[0]
	trend := series[1] - series[0]

	fitted := make([]float64, len(series))
	fitted[0] = series[0]
	sse := 0.0

	for i := 1; i < len(series); i++ {
		forecast := level + trend
		fitted[i] = forecast
		err := series[i] - forecast
		sse += err * err

		prevLevel := level
		level = alpha*series[i] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}

	return &HoltModel{
		Alpha:  alpha,
		Beta:   beta,
		Level:  level,
		Trend:  trend,
		Fitted: fitted,
		SSE:    sse,
	}
}

// Forecast extrapolates h steps ahead from the final level and trend.
func (m *HoltModel) Forecast(h int) []float64 {
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		out[i] = m.Level + float64(i+1)*m.Trend
	}
	return out
}
