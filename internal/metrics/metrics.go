package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SummariesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yojeum_summaries_generated_total",
		Help: "Daily sentences generated, by selection mode",
	}, []string{"mode"})

	ShareOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yojeum_share_outcomes_total",
		Help: "Share actions by strategy and outcome",
	}, []string{"strategy", "outcome"})

	CardRenderSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "yojeum_card_render_seconds",
		Help:    "Time spent rendering and encoding a share card",
		Buckets: prometheus.DefBuckets,
	})

	ClipboardCopies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yojeum_clipboard_copies_total",
		Help: "Clipboard copies by path (clipboard, legacy, failed)",
	}, []string{"path"})

	SchedulerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yojeum_scheduler_runs_total",
		Help: "Nightly letter runs by status",
	}, []string{"status"})
)

// MustRegister registers all collectors
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SummariesGenerated,
		ShareOutcomes,
		CardRenderSeconds,
		ClipboardCopies,
		SchedulerRuns,
	)
}
