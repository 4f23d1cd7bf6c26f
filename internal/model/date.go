package model

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders t as D-M-YYYY H:MM in t's location. Only minutes are
// zero-padded.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d %d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

// DatePart returns the portion of a stored timestamp before the first space.
func DatePart(stamp string) string {
	day, _, _ := strings.Cut(stamp, " ")
	return day
}

// ReverseDate reverses the '-'-delimited components of s. It is a string
// transform only; no calendar validation happens.
func ReverseDate(s string) string {
	parts := strings.Split(s, "-")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "-")
}
