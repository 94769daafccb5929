package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// utf8BOM keeps spreadsheet tools from misreading the CSV encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader is the quoted column header row.
const csvHeader = "\"timestamp\",\"voltage\",\"current\"\n"

// ConvertOptions holds options for ConvertCSV.
type ConvertOptions struct {
	// BaseTime is the absolute unix-millisecond time of the first entry.
	// The first entry's own timestamp is treated as the session origin, so
	// output timestamps are BaseTime plus the elapsed milliseconds. With a
	// zero BaseTime the output carries relative timestamps starting at 0.
	BaseTime int64
}

// ConvertCSV reads the binary entry stream from r and writes it to w as CSV:
// a UTF-8 BOM, a quoted header row, then one row per entry with the unix
// timestamp in milliseconds, voltage in volts, and current in milliamps.
func ConvertCSV(r io.Reader, w io.Writer, opts ConvertOptions) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(utf8BOM); err != nil {
		return err
	}
	if _, err := bw.WriteString(csvHeader); err != nil {
		return err
	}

	first := true
	var origin int64

	for {
		e, err := ReadEntry(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record: convert: %w", err)
		}

		if first {
			origin = int64(e.Timestamp)
			first = false
		}

		ts := opts.BaseTime + int64(e.Timestamp) - origin
		if _, err := fmt.Fprintf(bw, "%d,%.5f,%.1f\n", ts, e.Volts(), e.Milliamps()); err != nil {
			return err
		}
	}

	return bw.Flush()
}
