package logger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// session implements Logger. One session is one recording: the two fixed
// buffers, the command channel, the writer goroutine, and the lifecycle
// state all live and die with it.
type session struct {
	config Config

	// mu serializes all producer-side operations. The writer goroutine
	// never takes it.
	mu sync.Mutex

	// bufs are the two fixed append buffers. bufs[active] is the only
	// buffer the producer touches; the other is either idle or in flight
	// to the writer.
	bufs   [2][]byte
	active int
	used   int

	// inflight counts unacknowledged commands per buffer; the writer acks
	// each flush on acks after it has finished reading the payload. A
	// buffer is only written again once its count drops to zero.
	inflight [2]int

	commands chan command
	acks     chan int
	done     chan struct{}

	state     atomic.Int32
	unhealthy atomic.Bool
}

// Start implements Logger.Start.
func (s *session) Start(path string) error {
	if path == "" {
		return ErrInvalidPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.loadState() {
	case StateRunning:
		return ErrAlreadyStarted
	case StateFinished:
		return ErrFinished
	}

	if err := validateConfig(s.config); err != nil {
		return err
	}

	s.bufs[0] = make([]byte, s.config.BufferSize)
	s.bufs[1] = make([]byte, s.config.BufferSize)
	s.active = 0
	s.used = 0
	s.inflight = [2]int{}
	s.commands = make(chan command, s.config.QueueDepth)
	// One ack per flush; sized so the writer never blocks sending one.
	s.acks = make(chan int, s.config.QueueDepth+1)
	s.done = make(chan struct{})

	go s.run(path, s.commands, s.acks, s.done)

	s.storeState(StateRunning)
	return nil
}

// Push implements Logger.Push.
func (s *session) Push(b byte) (bool, error) {
	var one [1]byte
	one[0] = b
	return s.push(nil, one[:])
}

// PushBytes implements Logger.PushBytes.
func (s *session) PushBytes(p []byte) (bool, error) {
	return s.push(nil, p)
}

// PushString implements Logger.PushString.
func (s *session) PushString(str string) (bool, error) {
	return s.push(nil, []byte(str))
}

// PushContext implements Logger.PushContext.
func (s *session) PushContext(ctx context.Context, p []byte) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.push(ctx, p)
}

// push appends p byte by byte under the session lock. A nil ctx means
// buffer hand-off blocks without bound.
func (s *session) push(ctx context.Context, p []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.loadState(); st != StateRunning {
		return false, stateError(st)
	}

	rotated := false
	for _, b := range p {
		r, err := s.appendByte(ctx, b)
		if err != nil {
			return false, err
		}
		rotated = rotated || r
	}
	return rotated, nil
}

// appendByte writes one byte into the active buffer and rotates when it
// fills. Caller holds s.mu.
func (s *session) appendByte(ctx context.Context, b byte) (bool, error) {
	// The first byte into a freshly activated buffer must wait until the
	// writer has finished with that buffer's outstanding command; an
	// in-flight payload is never overwritten.
	if s.used == 0 {
		if err := s.awaitBuffer(ctx); err != nil {
			return false, err
		}
	}

	s.bufs[s.active][s.used] = b
	s.used++

	if s.used < s.config.BufferSize {
		return false, nil
	}

	cmd := command{op: opFlush, buf: s.active, data: s.bufs[s.active], n: s.config.BufferSize}
	err := s.submit(ctx, cmd)
	if err == nil {
		s.inflight[s.active]++
	}

	// The roles swap even when submission failed, so the active buffer is
	// empty again and the append invariant (used < capacity) holds. The
	// unqueued buffer's bytes are lost, which the returned error reports.
	s.active = 1 - s.active
	s.used = 0

	if err != nil {
		return false, err
	}
	if s.config.OnRotate != nil {
		s.config.OnRotate()
	}
	return true, nil
}

// awaitBuffer blocks until no outstanding command references the active
// buffer. Together with FIFO command order this makes buffer reuse safe: the
// writer has fully consumed a payload before the producer touches it again.
func (s *session) awaitBuffer(ctx context.Context) error {
	for s.inflight[s.active] > 0 {
		if ctx == nil {
			s.inflight[<-s.acks]--
			continue
		}
		select {
		case idx := <-s.acks:
			s.inflight[idx]--
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrSubmitCanceled, ctx.Err())
		}
	}
	return nil
}

// submit hands a command to the writer. This is the backpressure point: a
// full channel blocks the producer rather than growing memory.
func (s *session) submit(ctx context.Context, cmd command) error {
	if ctx == nil {
		s.commands <- cmd
		return nil
	}

	select {
	case s.commands <- cmd:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrSubmitCanceled, ctx.Err())
	}
}

// Finish implements Logger.Finish.
func (s *session) Finish() error {
	return s.finish(nil)
}

// FinishContext implements Logger.FinishContext.
func (s *session) FinishContext(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.finish(ctx)
}

// finish queues the final partial buffer as an Exit command, waits for the
// writer to terminate, and releases session resources.
func (s *session) finish(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.loadState(); st != StateRunning {
		return stateError(st)
	}

	cmd := command{op: opExit, buf: s.active, data: s.bufs[s.active], n: s.used}
	if err := s.submit(ctx, cmd); err != nil {
		return err
	}

	// Once Exit is queued the writer is guaranteed to observe it, close
	// storage, and signal; the wait is unconditional.
	<-s.done

	s.storeState(StateFinished)
	s.commands = nil
	s.acks = nil
	s.done = nil
	s.bufs[0] = nil
	s.bufs[1] = nil
	s.inflight = [2]int{}
	s.active = 0
	s.used = 0
	return nil
}

// State implements Logger.State.
func (s *session) State() State {
	return s.loadState()
}

// Healthy implements Logger.Healthy.
func (s *session) Healthy() bool {
	return !s.unhealthy.Load()
}

func (s *session) loadState() State {
	return State(s.state.Load())
}

func (s *session) storeState(st State) {
	s.state.Store(int32(st))
}

// stateError maps a non-running state to its sentinel.
func stateError(st State) error {
	if st == StateFinished {
		return ErrFinished
	}
	return ErrNotRunning
}
