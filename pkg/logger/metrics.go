package logger

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/powerlog/pkg/metrics"
)

// MetricsLogger wraps a Logger with Prometheus metrics collection. Metrics
// may be toggled while the session runs; the push path reads the collection
// state under a lock.
type MetricsLogger struct {
	logger Logger
	name   string

	mu       sync.Mutex
	registry *metrics.Registry
	enabled  bool
}

// collector returns the registry to record against, or false when
// collection is off.
func (ml *MetricsLogger) collector() (*metrics.Registry, bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.registry, ml.enabled
}

// NewWithMetrics creates a new logger with metrics enabled.
func NewWithMetrics(name string) Logger {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(DefaultConfig(), name, config)
}

// NewWithConfigAndMetrics creates a new logger with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) Logger {
	if !metricsConfig.Enabled {
		return NewWithConfig(config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	ml := &MetricsLogger{
		name:     name,
		registry: registry,
		enabled:  true,
	}

	// Chain the rotation callback so rotations are counted even when they
	// happen deep inside a batched push.
	userOnRotate := config.OnRotate
	config.OnRotate = func() {
		if r, ok := ml.collector(); ok {
			r.LoggerRotations.WithLabelValues(ml.name).Inc()
		}
		if userOnRotate != nil {
			userOnRotate()
		}
	}

	ml.logger = NewWithConfig(config)
	ml.updateMetrics()

	return ml
}

// updateMetrics updates the current state gauges.
func (ml *MetricsLogger) updateMetrics() {
	r, ok := ml.collector()
	if !ok {
		return
	}

	r.SessionState.WithLabelValues(ml.name).Set(float64(ml.logger.State()))
	healthy := 0.0
	if ml.logger.Healthy() {
		healthy = 1.0
	}
	r.SessionHealthy.WithLabelValues(ml.name).Set(healthy)
}

// Start opens the session and records the session start.
func (ml *MetricsLogger) Start(path string) error {
	err := ml.logger.Start(path)

	if r, ok := ml.collector(); ok {
		if err == nil {
			r.SessionsStarted.WithLabelValues(ml.name).Inc()
		}
	}
	ml.updateMetrics()

	return err
}

// Push appends a single byte.
func (ml *MetricsLogger) Push(b byte) (bool, error) {
	rotated, err := ml.logger.Push(b)
	ml.recordPush(1, err)
	return rotated, err
}

// PushBytes appends a byte slice.
func (ml *MetricsLogger) PushBytes(p []byte) (bool, error) {
	rotated, err := ml.logger.PushBytes(p)
	ml.recordPush(len(p), err)
	return rotated, err
}

// PushString appends the raw bytes of s.
func (ml *MetricsLogger) PushString(s string) (bool, error) {
	rotated, err := ml.logger.PushString(s)
	ml.recordPush(len(s), err)
	return rotated, err
}

// PushContext appends a byte slice with a context-bounded hand-off wait.
func (ml *MetricsLogger) PushContext(ctx context.Context, p []byte) (bool, error) {
	rotated, err := ml.logger.PushContext(ctx, p)
	ml.recordPush(len(p), err)
	return rotated, err
}

func (ml *MetricsLogger) recordPush(n int, err error) {
	r, ok := ml.collector()
	if !ok {
		return
	}

	r.LoggerPushes.WithLabelValues(ml.name).Inc()
	if err != nil {
		r.LoggerPushErrors.WithLabelValues(ml.name).Inc()
	} else {
		r.LoggerBytesAppended.WithLabelValues(ml.name).Add(float64(n))
	}
	ml.updateMetrics()
}

// Finish completes the session and records the session end.
func (ml *MetricsLogger) Finish() error {
	return ml.finishWith(ml.logger.Finish())
}

// FinishContext completes the session with a context-bounded final hand-off.
func (ml *MetricsLogger) FinishContext(ctx context.Context) error {
	return ml.finishWith(ml.logger.FinishContext(ctx))
}

func (ml *MetricsLogger) finishWith(err error) error {
	if r, ok := ml.collector(); ok {
		if err == nil {
			r.SessionsFinished.WithLabelValues(ml.name).Inc()
		}
	}
	ml.updateMetrics()
	return err
}

// State returns the current lifecycle state.
func (ml *MetricsLogger) State() State {
	return ml.logger.State()
}

// Healthy reports whether the storage path has worked so far.
func (ml *MetricsLogger) Healthy() bool {
	healthy := ml.logger.Healthy()

	if r, ok := ml.collector(); ok {
		v := 0.0
		if healthy {
			v = 1.0
		}
		r.SessionHealthy.WithLabelValues(ml.name).Set(v)
	}

	return healthy
}

// EnableMetrics enables metrics collection. Safe to call while the session
// is running.
func (ml *MetricsLogger) EnableMetrics(config metrics.Config) error {
	ml.mu.Lock()
	ml.enabled = config.Enabled
	if config.Registry != nil {
		ml.registry = metrics.NewRegistry(config.Registry)
	}
	ml.mu.Unlock()

	if config.Enabled {
		ml.updateMetrics()
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLogger) DisableMetrics() {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLogger) MetricsEnabled() bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.enabled
}
