// Package report renders bisect progress for humans (Terse, Verbose) and
// for the diagnostic log (LogReporter).
package report

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"specbisect/internal/example"
)

// FormatDuration renders a duration the way rspec does: five decimals under
// a second, two under two minutes, one under five minutes, none after;
// minutes are split out past sixty seconds.
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	precision := 0
	switch {
	case secs < 1:
		precision = 5
	case secs < 120:
		precision = 2
	case secs < 300:
		precision = 1
	}

	if secs > 60 {
		minutes := int(math.Round(secs)) / 60
		rest := secs - float64(minutes*60)
		return Pluralize(strconv.Itoa(minutes), "minute") + " " + Pluralize(formatSeconds(rest, precision), "second")
	}
	return Pluralize(formatSeconds(secs, precision), "second")
}

func formatSeconds(secs float64, precision int) string {
	if secs < 0 {
		return "0"
	}
	return stripTrailingZeros(strconv.FormatFloat(secs, 'f', precision, 64))
}

var trailingZeros = regexp.MustCompile(`(?:(\..*[^0])0+|\.0+)$`)

func stripTrailingZeros(s string) string {
	return trailingZeros.ReplaceAllString(s, "$1")
}

// Pluralize appends an "s" unless count is exactly one.
func Pluralize(count, word string) string {
	if f, err := strconv.ParseFloat(count, 64); err == nil && f == 1 {
		return count + " " + word
	}
	return count + " " + word + "s"
}

func pluralizeN(n int, word string) string {
	return Pluralize(strconv.Itoa(n), word)
}

// organize renders ids as one indented line per file.
func organize(ids []example.ID) string {
	var out string
	for _, loc := range example.NewSelection(ids...).Compact() {
		out += fmt.Sprintf("    - %s\n", loc)
	}
	return out
}
