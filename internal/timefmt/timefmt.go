package timefmt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Times are exchanged with users as M:SS.mmm strings and stored as
// integer milliseconds
const (
	MinMillis = 0      // 0:00.000
	MaxMillis = 599999 // 9:59.999
)

var (
	// ErrFormat means the input does not match the M:SS.mmm pattern
	ErrFormat = errors.New("time does not match M:SS.mmm")
	// ErrRange means the value falls outside 0:00.000 - 9:59.999
	ErrRange = errors.New("time out of range")
	// ErrThresholdOrder means medal thresholds are not gold <= silver <= bronze
	ErrThresholdOrder = errors.New("medal times must be ordered gold <= silver <= bronze")
)

var timePattern = regexp.MustCompile(`^([0-9]):([0-5][0-9])\.([0-9]{3})$`)

// Parse converts a M:SS.mmm string to milliseconds
func Parse(text string) (int, error) {

	match := timePattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, fmt.Errorf("%w: '%s'", ErrFormat, text)
	}

	minutes, _ := strconv.Atoi(match[1])
	seconds, _ := strconv.Atoi(match[2])
	millis, _ := strconv.Atoi(match[3])

	total := minutes*60*1000 + seconds*1000 + millis

	// The pattern already bounds the value, but check anyway
	if total < MinMillis || total > MaxMillis {
		return 0, fmt.Errorf("%w: %dms", ErrRange, total)
	}
	return total, nil
}

// Format converts milliseconds back to M:SS.mmm, with no leading zero
// on the minutes digit. Inverse of Parse for every value in range
func Format(millis int) string {

	totalSeconds := millis / 1000
	remainder := millis % 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, remainder)
}

// Compare returns a signed human readable difference between two times,
// for example "+0:01.640" when the first time is slower
func Compare(aMillis int, bMillis int) string {

	diff := aMillis - bMillis
	if diff == 0 {
		return "±0:00.000"
	}
	sign := "+"
	if diff < 0 {
		sign = "-"
		diff = -diff
	}
	return sign + Format(diff)
}

// Improvement returns a message describing how much faster the new time
// is than the old one, or an empty string when it is not an improvement
func Improvement(oldMillis int, newMillis int) string {

	if newMillis >= oldMillis {
		return ""
	}
	return fmt.Sprintf("Improved by %s!", Format(oldMillis-newMillis))
}

// ParseThresholds parses the three medal time strings and checks that
// gold <= silver <= bronze
func ParseThresholds(gold string, silver string, bronze string) (int, int, int, error) {

	goldMillis, err := Parse(gold)
	if err != nil {
		return 0, 0, 0, err
	}
	silverMillis, err := Parse(silver)
	if err != nil {
		return 0, 0, 0, err
	}
	bronzeMillis, err := Parse(bronze)
	if err != nil {
		return 0, 0, 0, err
	}

	if !(goldMillis <= silverMillis && silverMillis <= bronzeMillis) {
		return 0, 0, 0, fmt.Errorf("%w: %s <= %s <= %s", ErrThresholdOrder,
			Format(goldMillis), Format(silverMillis), Format(bronzeMillis))
	}
	return goldMillis, silverMillis, bronzeMillis, nil
}

// FormatDuration renders a duration in days for display
func FormatDuration(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
