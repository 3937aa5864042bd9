package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"lexiscope/internal/analytics"
	"lexiscope/internal/lexstat"
	"lexiscope/internal/model"
)

// Payload is everything one analysis run produced, in the shape the
// JSON report uses.
type Payload struct {
	RunID           string                             `json:"run_id"`
	GeneratedAt     time.Time                          `json:"generated_at"`
	TargetTokens    int                                `json:"target_tokens"`
	Results         []model.TTRResult                  `json:"results"`
	Summary         lexstat.Summary                    `json:"summary"`
	Correlation     *float64                           `json:"correlation"`
	CorrelationNote string                             `json:"correlation_note,omitempty"`
	Growth          map[string][]analytics.GrowthPoint `json:"growth,omitempty"`
	// Skipped maps handles that produced no result to the reason.
	Skipped map[string]string `json:"skipped,omitempty"`
}

// New assembles a payload, sorting results by ratio descending so
// every output renders accounts in the same order.
func New(runID string, targetTokens int, results []model.TTRResult, corr float64, corrErr error) Payload {
	sorted := make([]model.TTRResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TTR != sorted[j].TTR {
			return sorted[i].TTR > sorted[j].TTR
		}
		return sorted[i].Handle < sorted[j].Handle
	})

	p := Payload{
		RunID:        runID,
		GeneratedAt:  time.Now().UTC(),
		TargetTokens: targetTokens,
		Results:      sorted,
		Summary:      lexstat.Summarize(sorted),
	}
	switch {
	case corrErr == nil:
		v := corr
		p.Correlation = &v
	case errors.Is(corrErr, lexstat.ErrTooFewSamples):
		p.CorrelationNote = "n/a: needs at least two accounts"
	case errors.Is(corrErr, lexstat.ErrZeroVariance):
		p.CorrelationNote = "n/a: zero variance"
	default:
		p.CorrelationNote = "n/a: " + corrErr.Error()
	}
	return p
}

// WriteJSON writes the full payload to dir/report.json.
func WriteJSON(p Payload, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "report.json")
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
