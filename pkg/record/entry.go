package record

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EntrySize is the encoded size of one Entry in bytes.
const EntrySize = 8

const (
	// voltageCoefficient converts the raw bus voltage register value to volts.
	voltageCoefficient = 0.00125

	// currentCoefficient converts the raw current register value to milliamps.
	currentCoefficient = 0.1
)

// Entry is a single power-monitor sample.
type Entry struct {
	// Timestamp is milliseconds since the start of the recording.
	Timestamp uint32

	// Voltage is the raw bus voltage register value.
	Voltage int16

	// Current is the raw current register value.
	Current int16
}

// Volts returns the bus voltage in volts.
func (e Entry) Volts() float64 {
	return float64(e.Voltage) * voltageCoefficient
}

// Milliamps returns the current in milliamps.
func (e Entry) Milliamps() float64 {
	return float64(e.Current) * currentCoefficient
}

// AppendBinary appends the little-endian encoding of e to dst and returns
// the extended slice.
func (e Entry) AppendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, e.Timestamp)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(e.Voltage))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(e.Current))
	return dst
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (e Entry) MarshalBinary() ([]byte, error) {
	return e.AppendBinary(make([]byte, 0, EntrySize)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (e *Entry) UnmarshalBinary(p []byte) error {
	if len(p) < EntrySize {
		return fmt.Errorf("record: short entry: got %d bytes, want %d", len(p), EntrySize)
	}
	e.Timestamp = binary.LittleEndian.Uint32(p[0:4])
	e.Voltage = int16(binary.LittleEndian.Uint16(p[4:6]))
	e.Current = int16(binary.LittleEndian.Uint16(p[6:8]))
	return nil
}

// ReadEntry reads one entry from r. It returns io.EOF at a clean entry
// boundary and io.ErrUnexpectedEOF when the stream ends mid-entry.
func ReadEntry(r io.Reader) (Entry, error) {
	var buf [EntrySize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Entry{}, err
	}

	var e Entry
	if err := e.UnmarshalBinary(buf[:]); err != nil {
		return Entry{}, err
	}
	return e, nil
}
