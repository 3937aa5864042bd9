package lexstat

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"lexiscope/internal/model"
)

var (
	// ErrTooFewSamples: Pearson correlation needs at least two accounts.
	ErrTooFewSamples = errors.New("correlation needs at least two samples")
	// ErrZeroVariance: one of the series is constant, correlation undefined.
	ErrZeroVariance = errors.New("correlation undefined: zero variance")
)

// Correlate returns the Pearson correlation coefficient between total
// token count and TTR across accounts.
func Correlate(results []model.TTRResult) (float64, error) {
	if len(results) < 2 {
		return 0, ErrTooFewSamples
	}
	xs := make([]float64, len(results))
	ys := make([]float64, len(results))
	for i, r := range results {
		xs[i] = float64(r.TotalTokens)
		ys[i] = r.TTR
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, ErrZeroVariance
	}
	return r, nil
}

// Summary holds cross-account aggregates for the report.
type Summary struct {
	MeanTTR   float64 `json:"mean_ttr"`
	StdDevTTR float64 `json:"stddev_ttr"`
	MinTTR    float64 `json:"min_ttr"`
	MaxTTR    float64 `json:"max_ttr"`
}

// Summarize aggregates TTR across accounts. Returns the zero Summary for
// an empty result set.
func Summarize(results []model.TTRResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	ys := make([]float64, len(results))
	for i, r := range results {
		ys[i] = r.TTR
	}
	s := Summary{
		MeanTTR: Round3(stat.Mean(ys, nil)),
		MinTTR:  ys[0],
		MaxTTR:  ys[0],
	}
	for _, y := range ys {
		s.MinTTR = math.Min(s.MinTTR, y)
		s.MaxTTR = math.Max(s.MaxTTR, y)
	}
	if len(ys) > 1 {
		s.StdDevTTR = Round3(stat.StdDev(ys, nil))
	}
	return s
}
