/*
Package metrics provides Prometheus instrumentation for powerlog components.

The Registry bundles every metric powerlog exposes under the "powerlog"
namespace, split into "logger" and "capture" subsystems. Components accept a
metrics Config and register against either the default Prometheus registerer
or a caller-supplied one, which keeps tests free of global registration
conflicts.

Basic usage:

	registry := prometheus.NewRegistry()
	lg := logger.NewWithConfigAndMetrics(logger.DefaultConfig(), "ina226", metrics.Config{
		Enabled:  true,
		Registry: registry,
	})

	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

Metric families:

  - powerlog_logger_pushes_total, push_errors_total
  - powerlog_logger_bytes_appended_total, rotations_total
  - powerlog_logger_sessions_started_total, sessions_finished_total
  - powerlog_logger_session_state, session_healthy
  - powerlog_capture_samples_read_total, sample_errors_total
*/
package metrics
