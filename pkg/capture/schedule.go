package capture

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
	"github.com/vnykmshr/powerlog/pkg/logger"
	"github.com/vnykmshr/powerlog/pkg/record"
)

// ErrScheduleRunning is returned by Start on a schedule that is already running.
var ErrScheduleRunning = errors.New("schedule is already running")

// ScheduleConfig holds configuration options for a Schedule.
type ScheduleConfig struct {
	// Spec is the cron expression selecting window start times. Six fields
	// with seconds first, or a descriptor such as "@hourly" or
	// "@every 30m". Required.
	Spec string

	// Window is how long each recording runs. Required.
	Window time.Duration

	// Dir is the directory for the per-window log files. Each window is
	// named after its start time, powerlog-YYYYMMDD-HHMMSS.dat.
	Dir string

	// Source supplies the samples for every window. Required.
	Source Source

	// NewLogger builds the logger for each window. Default: logger.New.
	NewLogger func() logger.Logger

	// Sampler carries the per-window sampler options. Its Source and
	// Logger fields are overwritten for every window.
	Sampler SamplerConfig

	// Location is the timezone for the file name timestamps. Default:
	// time.Local.
	Location *time.Location

	// OnWindowStart, when set, is called with the log path as each window
	// opens.
	OnWindowStart func(path string)

	// OnWindowEnd, when set, is called as each window closes. A non-nil
	// err means the window's session failed to start or finish; healthy
	// is the session's storage health at close.
	OnWindowEnd func(path string, healthy bool, err error)
}

// Schedule runs recording windows on a cron timetable. Each window opens a
// fresh logger session on a timestamped file, samples for the configured
// duration, and finishes the session.
type Schedule struct {
	config   ScheduleConfig
	schedule cron.Schedule

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// scheduleParser accepts six-field expressions with a seconds column plus
// the @-descriptors.
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewSchedule creates a stopped Schedule, validating the cron expression
// and required fields.
func NewSchedule(config ScheduleConfig) (*Schedule, error) {
	if config.Spec == "" {
		return nil, commonerrors.NewValidationError("capture", "Spec", config.Spec, "cron expression is required")
	}
	if config.Window <= 0 {
		return nil, commonerrors.NewValidationError("capture", "Window", config.Window, "window must be positive")
	}
	if config.Source == nil {
		return nil, commonerrors.NewValidationError("capture", "Source", nil, "source is required")
	}
	if config.NewLogger == nil {
		config.NewLogger = logger.New
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	schedule, err := scheduleParser.Parse(config.Spec)
	if err != nil {
		return nil, commonerrors.NewValidationError("capture", "Spec", config.Spec, err.Error()).
			WithHint("six fields with seconds first, e.g. \"0 0 9 * * *\"")
	}

	return &Schedule{config: config, schedule: schedule}, nil
}

// Next returns the first window start strictly after t.
func (sc *Schedule) Next(t time.Time) time.Time {
	return sc.schedule.Next(t)
}

// Start begins waiting for window start times in a background goroutine.
func (sc *Schedule) Start() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.stop != nil {
		return ErrScheduleRunning
	}
	sc.stop = make(chan struct{})
	sc.done = make(chan struct{})
	go sc.loop(sc.stop, sc.done)
	return nil
}

// Stop halts the schedule and waits for any in-flight window to close. It
// is safe to call on a stopped schedule.
func (sc *Schedule) Stop() {
	sc.mu.Lock()
	stop, done := sc.stop, sc.done
	sc.stop = nil
	sc.done = nil
	sc.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (sc *Schedule) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		now := time.Now().In(sc.config.Location)
		next := sc.schedule.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-stop:
			timer.Stop()
			return
		case start := <-timer.C:
			sc.runWindow(start.In(sc.config.Location), stop)
		}
	}
}

// runWindow records one window. A stop signal ends the window early but
// still finishes the session cleanly.
func (sc *Schedule) runWindow(start time.Time, stop <-chan struct{}) {
	path := filepath.Join(sc.config.Dir, record.FileName(start))

	l := sc.config.NewLogger()
	if err := l.Start(path); err != nil {
		sc.windowEnd(path, false, err)
		return
	}

	if sc.config.OnWindowStart != nil {
		sc.config.OnWindowStart(path)
	}

	samplerConfig := sc.config.Sampler
	samplerConfig.Source = sc.config.Source
	samplerConfig.Logger = l

	sampler := NewSampler(samplerConfig)
	if err := sampler.Start(); err != nil {
		err = errors.Join(err, l.Finish())
		sc.windowEnd(path, l.Healthy(), err)
		return
	}

	timer := time.NewTimer(sc.config.Window)
	select {
	case <-stop:
		timer.Stop()
	case <-timer.C:
	}

	sampler.Stop()
	err := l.Finish()
	sc.windowEnd(path, l.Healthy(), err)
}

func (sc *Schedule) windowEnd(path string, healthy bool, err error) {
	if sc.config.OnWindowEnd != nil {
		sc.config.OnWindowEnd(path, healthy, err)
	}
}
