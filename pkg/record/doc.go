/*
Package record defines the power-sample wire format and its CSV conversion.

A log file is a bare concatenation of 8-byte little-endian entries, each
holding a millisecond timestamp and the raw voltage and current register
values from the sensor. There is no header, framing, or checksum; the file is
exactly as many entries long as were recorded.

	offset  size  field
	0       4     Timestamp (uint32, ms since recording start)
	4       2     Voltage   (int16, raw register value, 1.25 mV/LSB)
	6       2     Current   (int16, raw register value, 0.1 mA/LSB)

Recording files are named powerlog-YYYYMMDD-HHMMSS.dat; RecordTime recovers
the recording start time from the name so ConvertCSV can emit absolute
timestamps without any metadata inside the file itself.

Converting a recording:

	in, _ := os.Open("powerlog-20240102-150405.dat")
	defer in.Close()

	start, ok := record.RecordTime(in.Name(), time.UTC)
	opts := record.ConvertOptions{}
	if ok {
		opts.BaseTime = start.UnixMilli()
	}
	record.ConvertCSV(in, os.Stdout, opts)
*/
package record
