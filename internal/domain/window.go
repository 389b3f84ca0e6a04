package domain

import "time"

// WindowKind identifies a rolling scoring period.
type WindowKind string

const (
	WindowWeekly  WindowKind = "weekly"
	WindowMonthly WindowKind = "monthly"
)

// Window lengths are fixed durations counted from the last reset, not
// calendar weeks or months.
const (
	WeeklyWindow  = 7 * 24 * time.Hour
	MonthlyWindow = 30 * 24 * time.Hour
)

func (w WindowKind) String() string { return string(w) }

func (w WindowKind) IsValid() bool {
	return w == WindowWeekly || w == WindowMonthly
}

// Length returns the window duration, or zero for an unknown kind.
func (w WindowKind) Length() time.Duration {
	switch w {
	case WindowWeekly:
		return WeeklyWindow
	case WindowMonthly:
		return MonthlyWindow
	}
	return 0
}

// Cutoff returns the latest reset time that is due for rollover at now.
func (w WindowKind) Cutoff(now time.Time) time.Time {
	return now.Add(-w.Length())
}

// AllWindows returns every window kind.
func AllWindows() []WindowKind {
	return []WindowKind{WindowWeekly, WindowMonthly}
}

// WindowDue reports whether the window of kind needs a reset at now.
func (l *Ledger) WindowDue(kind WindowKind, now time.Time) bool {
	resetAt := l.resetAt(kind)
	if resetAt == nil {
		return kind.IsValid()
	}
	return now.Sub(*resetAt) >= kind.Length()
}

// WindowScore returns the running score of the window.
func (l *Ledger) WindowScore(kind WindowKind) int {
	switch kind {
	case WindowWeekly:
		return l.WeeklyScore
	case WindowMonthly:
		return l.MonthlyScore
	}
	return 0
}

// RolloverIfDue zeroes the window score and stamps the reset time when the
// window has elapsed (or was never started). The all-time score is not
// touched. Returns whether a reset happened.
func (l *Ledger) RolloverIfDue(kind WindowKind, now time.Time) bool {
	if !kind.IsValid() || !l.WindowDue(kind, now) {
		return false
	}

	stamp := now
	switch kind {
	case WindowWeekly:
		l.WeeklyScore = 0
		l.WeeklyResetAt = &stamp
	case WindowMonthly:
		l.MonthlyScore = 0
		l.MonthlyResetAt = &stamp
	}
	return true
}

func (l *Ledger) resetAt(kind WindowKind) *time.Time {
	switch kind {
	case WindowWeekly:
		return l.WeeklyResetAt
	case WindowMonthly:
		return l.MonthlyResetAt
	}
	return nil
}
