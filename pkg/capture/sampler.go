package capture

import (
	"errors"
	"sync"
	"time"

	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
	"github.com/vnykmshr/powerlog/pkg/logger"
	"github.com/vnykmshr/powerlog/pkg/metrics"
	"github.com/vnykmshr/powerlog/pkg/record"
)

// ErrSamplerRunning is returned by Start on a sampler that is already running.
var ErrSamplerRunning = errors.New("sampler is already running")

// Source yields power samples one at a time.
type Source interface {
	// Read returns the next sample. io.EOF means the source is exhausted;
	// any other error is reported and the sampler keeps polling.
	Read() (record.Entry, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() (record.Entry, error)

// Read calls f.
func (f SourceFunc) Read() (record.Entry, error) {
	return f()
}

// SamplerConfig holds configuration options for a Sampler.
type SamplerConfig struct {
	// Source is the sample supplier. Required.
	Source Source

	// Logger receives the encoded bytes. It must already be running.
	// Required.
	Logger logger.Logger

	// Interval is the polling period. Default: 10ms.
	Interval time.Duration

	// Name labels this sampler in metrics.
	Name string

	// OnEdge, when set, is called after any push that reported a buffer
	// rotation.
	OnEdge func()

	// OnError, when set, is called for each failed read or push. The
	// sampler continues after the callback returns.
	OnError func(error)
}

// DefaultSamplerConfig returns a default sampler configuration.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Interval: 10 * time.Millisecond,
		Name:     "sampler",
	}
}

// Sampler polls a Source on a fixed interval and appends each sample's wire
// bytes to a logger session.
type Sampler struct {
	config SamplerConfig

	// mu guards the run state and the metrics collection state, which may
	// be toggled while the loop is sampling.
	mu       sync.Mutex
	registry *metrics.Registry
	enabled  bool
	stop     chan struct{}
	done     chan struct{}

	scratch []byte
}

// collector returns the registry to record against, or false when
// collection is off.
func (s *Sampler) collector() (*metrics.Registry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry, s.enabled
}

// NewSampler creates a stopped Sampler with the given configuration.
func NewSampler(config SamplerConfig) *Sampler {
	if config.Interval <= 0 {
		config.Interval = DefaultSamplerConfig().Interval
	}
	if config.Name == "" {
		config.Name = DefaultSamplerConfig().Name
	}

	return &Sampler{
		config:  config,
		scratch: make([]byte, 0, record.EntrySize),
	}
}

// NewSamplerWithMetrics creates a stopped Sampler that records sample
// counters to the given metrics configuration.
func NewSamplerWithMetrics(config SamplerConfig, metricsConfig metrics.Config) *Sampler {
	s := NewSampler(config)
	if metricsConfig.Enabled {
		s.enabled = true
		s.registry = metrics.DefaultRegistry
		if metricsConfig.Registry != nil {
			s.registry = metrics.NewRegistry(metricsConfig.Registry)
		}
	}
	return s
}

// Start begins polling in a background goroutine.
func (s *Sampler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return ErrSamplerRunning
	}
	if s.config.Source == nil {
		return commonerrors.NewValidationError("capture", "Source", nil, "source is required")
	}
	if s.config.Logger == nil {
		return commonerrors.NewValidationError("capture", "Logger", nil, "logger is required")
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	return nil
}

// Stop halts polling and waits for the background goroutine to exit. It is
// safe to call on a stopped sampler.
func (s *Sampler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.done = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Sampler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

// sample reads one entry and pushes its encoded form.
func (s *Sampler) sample() {
	entry, err := s.config.Source.Read()
	if err != nil {
		s.recordError(err)
		return
	}

	s.scratch = entry.AppendBinary(s.scratch[:0])
	rotated, err := s.config.Logger.PushBytes(s.scratch)
	if err != nil {
		s.recordError(err)
		return
	}

	if r, ok := s.collector(); ok {
		r.SamplesRead.WithLabelValues(s.config.Name).Inc()
	}
	if rotated && s.config.OnEdge != nil {
		s.config.OnEdge()
	}
}

func (s *Sampler) recordError(err error) {
	if r, ok := s.collector(); ok {
		r.SampleErrors.WithLabelValues(s.config.Name).Inc()
	}
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
}

// EnableMetrics enables metrics collection. Safe to call while sampling.
func (s *Sampler) EnableMetrics(config metrics.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = config.Enabled
	if config.Registry != nil {
		s.registry = metrics.NewRegistry(config.Registry)
	} else if s.registry == nil {
		s.registry = metrics.DefaultRegistry
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (s *Sampler) DisableMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (s *Sampler) MetricsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
