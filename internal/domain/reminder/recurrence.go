// Package reminder holds the date arithmetic of recurring reminders.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
)

// Recurrence is the repeat rule of a reminder
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// IsValid checks if the pattern is known
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// ParseRecurrence validates a pattern supplied by a client
func ParseRecurrence(raw string) (Recurrence, error) {
	r := Recurrence(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsValid() {
		return "", shared.InvalidArgument(fmt.Sprintf("Invalid recurrence pattern: %s", raw))
	}
	return r, nil
}

// NextOccurrence returns the next due date after from.
// Unknown or empty patterns advance by one day.
// Monthly and yearly steps follow time.AddDate normalization, so Jan 31 + 1 month is Mar 2 or 3.
func NextOccurrence(from time.Time, pattern Recurrence) time.Time {
	switch pattern {
	case RecurrenceWeekly:
		return from.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		return from.AddDate(0, 1, 0)
	case RecurrenceYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 0, 1)
	}
}

// Schedule is the timing part of a reminder
type Schedule struct {
	Date      time.Time
	Recurring bool
	Pattern   Recurrence
	Completed bool
}

// NewSchedule builds a schedule from stored values. Recurring schedules
// need a known pattern.
func NewSchedule(date time.Time, recurring bool, pattern string, completed bool) (Schedule, error) {
	s := Schedule{Date: shared.StartOfDay(date.UTC()), Recurring: recurring, Completed: completed}
	if !recurring {
		return s, nil
	}
	r, err := ParseRecurrence(pattern)
	if err != nil {
		return Schedule{}, err
	}
	s.Pattern = r
	return s, nil
}

// NextDue returns the first due date on or after today. A one-off reminder
// keeps its own date even when it has passed. Completed schedules are never due.
func (s Schedule) NextDue(today time.Time) (time.Time, bool) {
	if s.Completed || s.Date.IsZero() {
		return time.Time{}, false
	}
	due := s.Date
	if !s.Recurring {
		return due, true
	}
	today = shared.StartOfDay(today.UTC())
	for due.Before(today) {
		due = NextOccurrence(due, s.Pattern)
	}
	return due, true
}
