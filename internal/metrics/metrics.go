package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StreamEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_stream_events_total",
		Help: "Total stream events by kind",
	}, []string{"stream", "kind"})
	StatusesDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_statuses_dispatched_total",
		Help: "Statuses handed to the decision pipeline",
	}, []string{"stream"})
	StatusesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_statuses_dropped_total",
		Help: "Statuses dropped at the dispatcher",
	}, []string{"stream", "reason"})
	Actions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_actions_total",
		Help: "Engagement actions by type and outcome",
	}, []string{"type", "outcome"})
	Cooldowns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twitbot_cooldowns_total",
		Help: "Rate-limit cooldown sleeps taken",
	})
	QuotaExhausted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_quota_exhausted_total",
		Help: "Actions skipped because the daily quota was spent",
	}, []string{"type"})
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "twitbot_pipeline_duration_seconds",
		Help:    "Decision pipeline execution duration",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitbot_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(StreamEvents, StatusesDispatched, StatusesDropped,
		Actions, Cooldowns, QuotaExhausted, PipelineDuration, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
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

// ObservePipelineDuration records one pipeline execution duration.
func ObservePipelineDuration(start time.Time) {
	PipelineDuration.Observe(time.Since(start).Seconds())
}

// IncAction increments the action counter for a type/outcome pair.
func IncAction(typ, outcome string) { Actions.WithLabelValues(typ, outcome).Inc() }

// IncCommandRun increments the run counter for a CLI command.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError increments the error counter for a CLI command.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
