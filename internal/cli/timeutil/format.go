// Package timeutil provides time formatting utilities for CLI output.
package timeutil

import (
	"fmt"
	"time"
)

const (
	// RecentTimeFormat shows modification times within the current year.
	RecentTimeFormat = "Jan _2 15:04"
	// OldTimeFormat shows modification times from other years.
	OldTimeFormat = "Jan _2  2006"
)

// FormatDuration renders d compactly: "3d 0h 30m 15s", "2m 5s", "12s",
// or milliseconds below one second.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// FormatModTime renders t the way ls -l does: with the time of day when t
// falls in the same year as now, with the year otherwise. The zero time
// renders as "-".
func FormatModTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	t = t.Local()
	if t.Year() == now.Local().Year() {
		return t.Format(RecentTimeFormat)
	}
	return t.Format(OldTimeFormat)
}
