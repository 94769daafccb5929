//go:build !linux

package storage

import "os"

// preallocate is a no-op on platforms without fallocate support.
func preallocate(_ *os.File, _ int64) error {
	return nil
}
