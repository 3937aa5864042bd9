package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lexiscope_fetch_runs_total",
		Help: "Total fetch runs",
	})
	FetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lexiscope_fetch_errors_total",
		Help: "Total per-account fetch failures",
	})
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lexiscope_fetch_duration_seconds",
		Help:    "Fetch run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	PostsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lexiscope_posts_fetched_total",
		Help: "Posts stored in the cache, by account handle",
	}, []string{"account"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lexiscope_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lexiscope_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lexiscope_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		FetchRuns, FetchErrors, FetchDuration,
		PostsFetched, APIRetries,
		CommandRuns, CommandErrors,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
// Empty addr falls back to METRICS_ADDR; still empty disables the server.
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveFetchDuration records a fetch run duration.
func ObserveFetchDuration(start time.Time) {
	FetchDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// AddPostsFetched counts posts stored for an account.
func AddPostsFetched(account string, n int) {
	PostsFetched.WithLabelValues(account).Add(float64(n))
}

// IncCommandRun counts a CLI command invocation.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError counts a CLI command failure.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
