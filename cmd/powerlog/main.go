// Command powerlog records power telemetry streams and converts recording
// files to CSV.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/powerlog/pkg/logger"
	"github.com/vnykmshr/powerlog/pkg/record"
)

// defaultTimeZone interprets file-name timestamps when no zone flag is
// given; recordings are assumed to come from JST bench rigs.
const defaultTimeZone = "Asia/Tokyo"

func main() {
	rootCmd := &cobra.Command{
		Use:          "powerlog",
		Short:        "Power telemetry recorder",
		Long:         "powerlog records raw power-monitor samples to block storage and converts recordings to CSV.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newRecordCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newConvertCommand() *cobra.Command {
	var output string
	var timezone string
	var relative bool

	cmd := &cobra.Command{
		Use:   "convert <recording.dat>",
		Short: "Convert a recording file to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], output, timezone, relative)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV path (default: input path with .csv)")
	cmd.Flags().StringVarP(&timezone, "timezone", "z", defaultTimeZone, "timezone for the file-name timestamp")
	cmd.Flags().BoolVar(&relative, "relative", false, "emit relative timestamps starting at zero")

	return cmd
}

func runConvert(input, output, timezone string, relative bool) error {
	opts := record.ConvertOptions{}
	if !relative {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		start, ok := record.RecordTime(input, loc)
		if !ok {
			return fmt.Errorf("cannot derive start time from %q, rename to powerlog-YYYYMMDD-HHMMSS.dat or pass --relative", input)
		}
		opts.BaseTime = start.UnixMilli()
	}

	if output == "" {
		output = csvName(input)
	}

	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return err
	}

	// ConvertCSV buffers both sides internally and flushes on success.
	if err := record.ConvertCSV(in, out, opts); err != nil {
		out.Close()
		return fmt.Errorf("convert %s: %w", input, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", output)
	return nil
}

// csvName swaps the recording extension for .csv.
func csvName(input string) string {
	const ext = ".dat"
	if len(input) > len(ext) && input[len(input)-len(ext):] == ext {
		return input[:len(input)-len(ext)] + ".csv"
	}
	return input + ".csv"
}

func newRecordCommand() *cobra.Command {
	var output string
	var bufferSize int
	var queueDepth int

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record bytes from stdin to a recording file",
		Long:  "record appends stdin to a recording file through the double-buffered writer, syncing once per rotated buffer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.InOrStdin(), output, bufferSize, queueDepth)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "recording path (default: powerlog-<now>.dat)")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 0, "append buffer capacity in bytes (default 16384)")
	cmd.Flags().IntVar(&queueDepth, "queue-depth", 0, "writer queue depth (default 3)")

	return cmd
}

func runRecord(in io.Reader, output string, bufferSize, queueDepth int) error {
	if output == "" {
		output = record.FileName(time.Now())
	}

	rotations := 0
	l := logger.NewWithConfig(logger.Config{
		BufferSize: bufferSize,
		QueueDepth: queueDepth,
		OnRotate:   func() { rotations++ },
	})
	if err := l.Start(output); err != nil {
		return err
	}

	buf := make([]byte, 4096)
	total := 0
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if _, perr := l.PushBytes(buf[:n]); perr != nil {
				l.Finish()
				return perr
			}
			total += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			l.Finish()
			return err
		}
	}

	if err := l.Finish(); err != nil {
		return err
	}
	if !l.Healthy() {
		return fmt.Errorf("recording to %s failed: storage errors, data is incomplete", output)
	}

	fmt.Fprintf(os.Stderr, "recorded %d bytes to %s (%d rotations)\n", total, output, rotations)
	return nil
}
