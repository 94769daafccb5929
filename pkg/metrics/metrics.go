// Package metrics provides Prometheus instrumentation for powerlog components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for powerlog components.
type Registry struct {
	// Logger Metrics
	LoggerPushes        *prometheus.CounterVec
	LoggerPushErrors    *prometheus.CounterVec
	LoggerBytesAppended *prometheus.CounterVec
	LoggerRotations     *prometheus.CounterVec
	SessionsStarted     *prometheus.CounterVec
	SessionsFinished    *prometheus.CounterVec
	SessionState        *prometheus.GaugeVec
	SessionHealthy      *prometheus.GaugeVec

	// Capture Metrics
	SamplesRead  *prometheus.CounterVec
	SampleErrors *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by powerlog components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Logger Metrics
		LoggerPushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "pushes_total",
				Help:      "Total number of push operations",
			},
			[]string{"logger_name"},
		),

		LoggerPushErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "push_errors_total",
				Help:      "Total number of failed push operations",
			},
			[]string{"logger_name"},
		),

		LoggerBytesAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "bytes_appended_total",
				Help:      "Total bytes appended to the active buffer",
			},
			[]string{"logger_name"},
		),

		LoggerRotations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "rotations_total",
				Help:      "Total number of buffer rotations handed to the writer",
			},
			[]string{"logger_name"},
		),

		SessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "sessions_started_total",
				Help:      "Total number of logging sessions started",
			},
			[]string{"logger_name"},
		),

		SessionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "sessions_finished_total",
				Help:      "Total number of logging sessions finished",
			},
			[]string{"logger_name"},
		),

		SessionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "session_state",
				Help:      "Current session state (0=idle, 1=running, 2=finished)",
			},
			[]string{"logger_name"},
		),

		SessionHealthy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "powerlog",
				Subsystem: "logger",
				Name:      "session_healthy",
				Help:      "Whether the session storage path is healthy (1) or poisoned (0)",
			},
			[]string{"logger_name"},
		),

		// Capture Metrics
		SamplesRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "capture",
				Name:      "samples_read_total",
				Help:      "Total number of samples read from the source",
			},
			[]string{"sampler_name"},
		),

		SampleErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "powerlog",
				Subsystem: "capture",
				Name:      "sample_errors_total",
				Help:      "Total number of source read or push failures",
			},
			[]string{"sampler_name"},
		),
	}
}
