package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	TransfersDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_transfers_discovered_total",
		Help: "The total number of scheduled transfers observed from the event stream",
	})

	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_duplicate_events_total",
		Help: "The total number of redelivered scheduling events dropped by deduplication",
	})

	TransfersTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_transfers_terminal_total",
		Help: "The total number of transfers that reached a terminal state",
	}, []string{"outcome"}) // confirmed, already-completed, expired

	SimulationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_simulation_failures_total",
		Help: "Total number of failed execution simulations by reason class",
	}, []string{"reason"})

	SubmissionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_submission_failures_total",
		Help: "Total number of failed execution submissions",
	})

	FeeDataFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_fee_data_failures_total",
		Help: "Total number of fee estimate fetches that failed or returned incomplete data",
	})

	CompletionCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_completion_check_failures_total",
		Help: "Total number of failed completion status reads",
	})

	ActiveLoops = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_active_loops",
		Help: "The number of execution loops currently in flight",
	})

	GatewayResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_gateway_resets_total",
		Help: "The total number of gateway teardown and rebuild cycles",
	})

	ProbeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_probe_failures_total",
		Help: "The total number of failed liveness probes",
	})

	BaseFee = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_base_fee_gwei",
		Help: "Base fee of the latest fee estimate in gwei",
	})

	SubmissionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relayer_submission_seconds",
		Help:    "Time from a transfer becoming ready to its transaction being accepted",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
