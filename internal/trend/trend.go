// Package trend smooths a per-period net income series for display.
package trend

import "budget/internal/aggregate"

// DefaultWindow is the number of periods averaged at each point.
const DefaultWindow = 3

// TrailingAverage returns, for every index i, the mean of series[i-window+1..i]
// clamped at the start of the series. A window below 1 is treated as 1.
// The result has the same length as series and never contains NaN.
func TrailingAverage(series []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(series))
	for i := range series {
		start := max(0, i-window+1)
		var sum float64
		for _, v := range series[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}

// Point is one period of a summarized trend.
type Point struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
	Average float64 `json:"average"`
}

// Summarize attaches a trailing average of Net to every period. The input
// is expected in period order, as returned by aggregate.NetIncomeByPeriod.
func Summarize(net []aggregate.PeriodNetIncome, window int) []Point {
	series := make([]float64, len(net))
	for i, p := range net {
		series[i] = p.Net
	}
	avg := TrailingAverage(series, window)

	out := make([]Point, len(net))
	for i, p := range net {
		out[i] = Point{
			Period:  p.Period,
			Income:  p.Income,
			Expense: p.Expense,
			Net:     p.Net,
			Average: avg[i],
		}
	}
	return out
}
