/*
Package logger provides an asynchronous, double-buffered append-only byte
logger for continuous telemetry streams.

Bytes are pushed on the caller's (time-critical) path into one of two
fixed-capacity buffers. When the active buffer fills, it is handed to a
background writer goroutine over a small bounded channel and the two buffers
swap roles, so the sampling path never waits on storage unless the channel is
full. The writer drains the channel, writes each full buffer to the storage
target, and syncs after every write.

# Quick Start

	lg := logger.New()
	if err := lg.Start("powerlog-20240102-150405.dat"); err != nil {
		return err
	}

	rotated, err := lg.PushBytes(sample)
	if rotated {
		// the active buffer was handed to storage during this call
	}

	// Finish flushes the final partial buffer, closes storage, and waits
	// for the writer goroutine to terminate.
	err = lg.Finish()

# Sessions

A Logger is a single recording session with three lifecycle states:
idle, running, finished. Start is legal only when idle, Push and Finish only
while running, and a finished session stays finished - construct a new Logger
for the next recording.

# Backpressure

The command channel is small (default depth 3). When the writer falls behind,
the pushing goroutine blocks instead of growing memory: handing off a full
buffer waits for a free channel slot, and writing into a freshly swapped-in
buffer waits until the writer has finished persisting that buffer's previous
payload, so in-flight data is never overwritten. Push blocks without bound;
PushContext bounds both waits with a context for callers that need liveness
over guaranteed delivery.

# Storage faults

A failed open, write, or sync poisons the session: the writer keeps draining
the channel so pushes never stall on a dead device, but nothing more reaches
storage. The fault is not surfaced through Push; query Healthy after (or
during) the session to detect it.

# Rotation edges

Push reports whether at least one buffer rotation happened during the call,
so a caller can drive an external indicator. The report is coupled to the
call that caused it; there is no out-of-band rotation event stream. The
OnRotate callback fires once per rotation for callers that need a count.
*/
package logger
