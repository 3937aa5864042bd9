package cmdlog

import (
	"time"

	"lexiscope/internal/logging"
	"lexiscope/internal/metrics"
)

// Run executes a subcommand body, counting the invocation and logging
// the outcome with its wall time.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		metrics.IncCommandError(cmd)
		logging.Error(cmd+"_error", map[string]any{"error": err.Error(), "elapsed": elapsed.String()})
		return err
	}
	logging.Info(cmd+"_ok", map[string]any{"elapsed": elapsed.String()})
	return nil
}
