package logger

import (
	"context"
	"errors"

	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
	"github.com/vnykmshr/powerlog/pkg/storage"
)

// ErrInvalidPath is returned by Start when the log path is empty.
var ErrInvalidPath = errors.New("log path cannot be empty")

// ErrNotRunning is returned when Push or Finish is called before Start.
var ErrNotRunning = errors.New("logger is not running")

// ErrAlreadyStarted is returned by Start on a running session.
var ErrAlreadyStarted = errors.New("logger is already running")

// ErrFinished is returned when operating on a finished session.
// A finished session cannot be restarted; construct a new Logger.
var ErrFinished = errors.New("logger session is finished")

// ErrSubmitCanceled is returned when a context expires while the push is
// waiting on the writer: either for a free slot on the command channel, or
// for the writer to release the buffer about to be written. The push's
// remaining bytes are lost; earlier rotations are unaffected.
var ErrSubmitCanceled = errors.New("buffer hand-off canceled")

// State identifies the lifecycle state of a session.
type State int32

const (
	// StateIdle is a constructed session that has not started.
	StateIdle State = iota

	// StateRunning is an active session accepting pushes.
	StateRunning

	// StateFinished is a completed session. Terminal.
	StateFinished
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Logger is a single-session asynchronous byte logger.
//
// All methods are safe for concurrent use. Each Push call appends its bytes
// contiguously: the append lock is held for the whole call.
type Logger interface {
	// Start opens the session, spawning the background writer bound to path.
	// Legal only while idle.
	Start(path string) error

	// Push appends a single byte. It reports whether a buffer rotation
	// occurred during the call.
	Push(b byte) (bool, error)

	// PushBytes appends a byte slice. The rotation report covers the whole
	// batch: true if at least one rotation occurred.
	PushBytes(p []byte) (bool, error)

	// PushString appends the raw bytes of s.
	PushString(s string) (bool, error)

	// PushContext appends a byte slice, bounding any backpressure wait with
	// ctx. On cancellation it returns an error wrapping ErrSubmitCanceled
	// and the whole push must be treated as failed.
	PushContext(ctx context.Context, p []byte) (bool, error)

	// Finish flushes the final partial buffer, waits for the writer to
	// drain the channel, close storage, and terminate, then releases all
	// session resources. Legal only while running.
	Finish() error

	// FinishContext is Finish with the hand-off of the final buffer bounded
	// by ctx. Once the final buffer is queued the wait for writer
	// completion is unconditional.
	FinishContext(ctx context.Context) error

	// State returns the current lifecycle state.
	State() State

	// Healthy reports whether the storage path has worked so far. A false
	// value means an open, write, or sync failure has poisoned the session
	// and the persisted data is incomplete.
	Healthy() bool
}

// Config holds configuration options for a Logger.
type Config struct {
	// BufferSize is the capacity of each of the two append buffers in
	// bytes. A rotation hands exactly this many bytes to the writer.
	// Default: 16384.
	BufferSize int

	// QueueDepth is the capacity of the command channel between producer
	// and writer. Small values apply backpressure early; a value of 1 is
	// raised to 2 so one buffer can be in flight while another queues.
	// Default: 3.
	QueueDepth int

	// Target is the storage destination. The writer goroutine opens it
	// with the Start path and owns it for the session.
	// Default: a FileTarget.
	Target storage.Target

	// OnRotate, when set, is called once per buffer rotation from inside
	// the pushing call, before Push returns. Keep it short; it runs under
	// the append lock.
	OnRotate func()
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 16384,
		QueueDepth: 3,
	}
}

// New creates an idle Logger with default configuration.
func New() Logger {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an idle Logger with the specified configuration.
// Zero-valued fields take their defaults; explicitly negative sizes are
// rejected by Start.
func NewWithConfig(config Config) Logger {
	if config.BufferSize == 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.QueueDepth == 0 {
		config.QueueDepth = DefaultConfig().QueueDepth
	}
	if config.QueueDepth == 1 {
		config.QueueDepth = 2
	}
	if config.Target == nil {
		config.Target = storage.NewFileTarget()
	}

	return &session{config: config}
}

// validateConfig rejects configurations that survived normalization with
// unusable values.
func validateConfig(config Config) error {
	if config.BufferSize < 1 {
		return commonerrors.NewValidationError("logger", "BufferSize", config.BufferSize, "must be positive").
			WithHint("use 0 for the default of 16384")
	}
	if config.QueueDepth < 2 {
		return commonerrors.NewValidationError("logger", "QueueDepth", config.QueueDepth, "must be at least 2").
			WithHint("use 0 for the default of 3")
	}
	return nil
}
