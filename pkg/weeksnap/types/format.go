package types

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimestampLayout is used wherever a snapshot creation time is printed.
const TimestampLayout = "2006-01-02 15:04:05 MST"

// FormatTimestamp renders t in loc (nil means time.Local), or "-" for the zero time.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// FormatAge describes how long before now t was, e.g. "3 days ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
