/*
Package powerlog provides asynchronous, double-buffered persistence for
continuous telemetry streams, such as power-monitor samples.

Logging (pkg/logger):
  - logger: Session-scoped append-only byte logger with a time-critical
    producer path and a background writer goroutine

Storage (pkg/storage):
  - FileTarget: flat-file target with write-truncate open and per-flush sync
  - RedisTarget: append-only mirror target for live consumers

Records (pkg/record):
  - Entry: fixed 8-byte little-endian power sample codec
  - ConvertCSV: log-file to CSV conversion with timestamp reconstruction

Acquisition (pkg/capture):
  - Sampler: interval-driven source-to-logger pump
  - Schedule: cron-driven recording windows

Example usage:

	import (
		"github.com/vnykmshr/powerlog/pkg/logger"
		"github.com/vnykmshr/powerlog/pkg/record"
	)

	lg := logger.New()
	if err := lg.Start(record.FileName(time.Now())); err != nil {
		return err
	}
	defer lg.Finish()

	entry := record.Entry{Timestamp: 0, Voltage: 9600, Current: 1234}
	lg.PushBytes(entry.AppendBinary(nil))
*/
package powerlog
