package testutil

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vnykmshr/powerlog/pkg/record"
)

// MockTarget is a storage target that captures written bytes in memory and
// can simulate delays, errors, and blocked writes.
type MockTarget struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	path       string
	open       bool
	writeDelay time.Duration
	errorOnNth int
	writeCount int
	syncCount  int
	openErr    error
	writeErr   error
	syncErr    error
	gate       chan struct{}
}

// NewMockTarget creates a new MockTarget.
func NewMockTarget() *MockTarget {
	return &MockTarget{}
}

// Open records the path and marks the target open.
func (mt *MockTarget) Open(path string) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.openErr != nil {
		return mt.openErr
	}
	mt.path = path
	mt.open = true
	return nil
}

// Write appends p to the in-memory buffer with the configured behavior.
func (mt *MockTarget) Write(p []byte) (int, error) {
	mt.mu.Lock()
	gate := mt.gate
	mt.mu.Unlock()

	if gate != nil {
		<-gate
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.writeCount++

	if mt.writeDelay > 0 {
		time.Sleep(mt.writeDelay)
	}

	if mt.writeErr != nil {
		return 0, mt.writeErr
	}

	if mt.errorOnNth > 0 && mt.writeCount == mt.errorOnNth {
		return 0, errors.New("simulated write error")
	}

	return mt.buf.Write(p)
}

// Sync counts the sync call.
func (mt *MockTarget) Sync() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.syncCount++
	return mt.syncErr
}

// Close marks the target closed.
func (mt *MockTarget) Close() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.open = false
	return nil
}

// Path returns the path passed to Open.
func (mt *MockTarget) Path() string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.path
}

// IsOpen reports whether the target is currently open.
func (mt *MockTarget) IsOpen() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.open
}

// Bytes returns a copy of the captured contents.
func (mt *MockTarget) Bytes() []byte {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	out := make([]byte, mt.buf.Len())
	copy(out, mt.buf.Bytes())
	return out
}

// String returns the captured contents as a string.
func (mt *MockTarget) String() string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.buf.String()
}

// Len returns the number of captured bytes.
func (mt *MockTarget) Len() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.buf.Len()
}

// WriteCount returns the number of Write calls.
func (mt *MockTarget) WriteCount() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.writeCount
}

// SyncCount returns the number of Sync calls.
func (mt *MockTarget) SyncCount() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.syncCount
}

// SetWriteDelay configures a delay for each write operation.
func (mt *MockTarget) SetWriteDelay(delay time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.writeDelay = delay
}

// SetErrorOnNth configures the target to error on the nth write.
func (mt *MockTarget) SetErrorOnNth(n int) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.errorOnNth = n
}

// SetAlwaysError configures every write to return the given error.
func (mt *MockTarget) SetAlwaysError(err error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.writeErr = err
}

// SetOpenError configures Open to fail with the given error.
func (mt *MockTarget) SetOpenError(err error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.openErr = err
}

// SetSyncError configures Sync to fail with the given error.
func (mt *MockTarget) SetSyncError(err error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.syncErr = err
}

// BlockWrites makes subsequent writes block until ReleaseWrites is called.
func (mt *MockTarget) BlockWrites() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.gate == nil {
		mt.gate = make(chan struct{})
	}
}

// ReleaseWrites unblocks writes held by BlockWrites.
func (mt *MockTarget) ReleaseWrites() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.gate != nil {
		close(mt.gate)
		mt.gate = nil
	}
}

// Reset clears the buffer and resets counters and error modes.
func (mt *MockTarget) Reset() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.buf.Reset()
	mt.writeCount = 0
	mt.syncCount = 0
	mt.errorOnNth = 0
	mt.writeDelay = 0
	mt.openErr = nil
	mt.writeErr = nil
	mt.syncErr = nil
}

// MockSource replays a scripted sequence of entries and then reports EOF.
type MockSource struct {
	mu      sync.Mutex
	entries []record.Entry
	next    int
	err     error
}

// NewMockSource creates a MockSource that yields the given entries in order.
func NewMockSource(entries ...record.Entry) *MockSource {
	return &MockSource{entries: entries}
}

// Read returns the next scripted entry, or io.EOF when exhausted.
func (ms *MockSource) Read() (record.Entry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.err != nil {
		return record.Entry{}, ms.err
	}
	if ms.next >= len(ms.entries) {
		return record.Entry{}, io.EOF
	}
	e := ms.entries[ms.next]
	ms.next++
	return e, nil
}

// SetError makes every subsequent Read fail with err.
func (ms *MockSource) SetError(err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.err = err
}

// Remaining returns the number of entries not yet read.
func (ms *MockSource) Remaining() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.entries) - ms.next
}
