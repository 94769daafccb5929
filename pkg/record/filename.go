package record

import (
	"path/filepath"
	"regexp"
	"time"
)

// fileNameLayout is the timestamp layout embedded in recording file names.
const fileNameLayout = "20060102-150405"

var fileNamePattern = regexp.MustCompile(`^powerlog-(\d{8})-(\d{6})\.dat$`)

// FileName returns the canonical recording file name for a session started
// at t, in the form powerlog-YYYYMMDD-HHMMSS.dat.
func FileName(t time.Time) string {
	return "powerlog-" + t.Format(fileNameLayout) + ".dat"
}

// RecordTime recovers the recording start time embedded in a recording file
// name. The time digits are interpreted in loc (time.Local when nil). It
// reports false when the name does not follow the canonical form.
func RecordTime(path string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	m := fileNamePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(fileNameLayout, m[1]+"-"+m[2], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
