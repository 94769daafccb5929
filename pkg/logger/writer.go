package logger

import "runtime"

type commandOp int

const (
	opFlush commandOp = iota
	opExit
)

// command is one unit of work for the writer goroutine: a buffer slice to
// persist and sync. An opExit command carries the final partial buffer and
// terminates the writer after it is handled.
type command struct {
	op   commandOp
	buf  int
	data []byte
	n    int
}

// run is the writer goroutine. It owns the storage target for the lifetime
// of the session: open on entry, close on exit, one write+sync per command
// in between.
//
// Storage faults poison the session rather than abort it. After the first
// open, write, or sync failure the writer keeps draining commands so
// producers never stall on a dead target, but it stops touching storage.
//
// Every flush command is acknowledged on acks once its payload has been
// fully consumed, faulted or not; the producer relies on that ack before it
// reuses the buffer.
func (s *session) run(path string, commands <-chan command, acks chan<- int, done chan<- struct{}) {
	defer close(done)

	target := s.config.Target

	failed := false
	if err := target.Open(path); err != nil {
		failed = true
		s.unhealthy.Store(true)
	}

	for {
		cmd := <-commands

		if !failed && cmd.n > 0 {
			if n, err := target.Write(cmd.data[:cmd.n]); err != nil || n != cmd.n {
				failed = true
				s.unhealthy.Store(true)
			} else if err := target.Sync(); err != nil {
				failed = true
				s.unhealthy.Store(true)
			}
		}

		if cmd.op == opExit {
			break
		}
		// The buffered send never blocks: acks holds one slot per command
		// the channel can carry, plus the one in hand.
		acks <- cmd.buf

		// Yield between commands so a saturated producer gets scheduled.
		runtime.Gosched()
	}

	if !failed {
		if err := target.Close(); err != nil {
			s.unhealthy.Store(true)
		}
	} else {
		// Best effort; the session is already marked unhealthy.
		target.Close()
	}
}
