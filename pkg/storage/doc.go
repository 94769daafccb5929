/*
Package storage defines the storage target consumed by the powerlog writer
goroutine, plus ready-made implementations.

A Target is a single append destination with an explicit lifecycle: Open with
write-truncate semantics, sequential Write calls, Sync after each flush, and
an idempotent Close. The logger opens the target inside its writer goroutine
and is the only caller for a session's lifetime, so implementations do not
need internal locking.

Implementations:

  - FileTarget: a flat file opened O_WRONLY|O_CREATE|O_TRUNC, synced with
    fsync, with optional preallocation on Linux
  - RedisTarget: an append-only mirror of the byte stream in a Redis string,
    for live consumers that must not touch the recording device

Custom targets only need the four methods:

	type Target interface {
		Open(path string) error
		Write(p []byte) (int, error)
		Sync() error
		Close() error
	}
*/
package storage
