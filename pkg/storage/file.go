package storage

import (
	"os"

	commonerrors "github.com/vnykmshr/powerlog/pkg/common/errors"
)

// FileConfig holds configuration options for FileTarget.
type FileConfig struct {
	// Preallocate reserves this many bytes on disk when the file is opened.
	// Reservation smooths out sync latency on filesystems that support it
	// and is silently skipped where unsupported. 0 disables preallocation.
	Preallocate int64

	// Perm is the file mode for newly created files. Default: 0644.
	Perm os.FileMode
}

// DefaultFileConfig returns a default file target configuration.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Preallocate: 0,
		Perm:        0o644,
	}
}

// FileTarget writes the byte stream to a flat file. The file is created or
// truncated on Open and synced with fsync on every Sync call.
type FileTarget struct {
	config FileConfig
	file   *os.File
}

// NewFileTarget creates a FileTarget with default configuration.
func NewFileTarget() *FileTarget {
	return NewFileTargetWithConfig(DefaultFileConfig())
}

// NewFileTargetWithConfig creates a FileTarget with the specified configuration.
func NewFileTargetWithConfig(config FileConfig) *FileTarget {
	if config.Perm == 0 {
		config.Perm = DefaultFileConfig().Perm
	}
	return &FileTarget{config: config}
}

// Open implements Target.Open with write-truncate semantics.
func (t *FileTarget) Open(path string) error {
	if t.file != nil {
		return ErrAlreadyOpen
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, t.config.Perm)
	if err != nil {
		return commonerrors.NewOperationError("storage", "Open", err).
			WithContext("path " + path)
	}

	if t.config.Preallocate > 0 {
		// Best effort: the target still works without the reservation.
		_ = preallocate(f, t.config.Preallocate)
	}

	t.file = f
	return nil
}

// Write implements Target.Write.
func (t *FileTarget) Write(p []byte) (int, error) {
	if t.file == nil {
		return 0, ErrNotOpen
	}
	return t.file.Write(p)
}

// Sync implements Target.Sync.
func (t *FileTarget) Sync() error {
	if t.file == nil {
		return ErrNotOpen
	}
	return t.file.Sync()
}

// Close implements Target.Close. Closing a target that was never opened is a no-op.
func (t *FileTarget) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
