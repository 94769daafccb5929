package storage

import "errors"

// ErrNotOpen is returned when writing or syncing a target that has not been opened.
var ErrNotOpen = errors.New("storage target is not open")

// ErrAlreadyOpen is returned when opening a target that is already open.
var ErrAlreadyOpen = errors.New("storage target is already open")

// Target is a single append destination for a logging session.
//
// Open must truncate any existing data at path. Write appends and reports the
// number of bytes written; a short write is a storage fault. Sync forces
// written data to durable storage. Close releases the target and must be safe
// to call even if Open was never called or failed.
type Target interface {
	Open(path string) error
	Write(p []byte) (int, error)
	Sync() error
	Close() error
}
