// Package reminder turns medications with a time of day into daily repeating
// reminders and delivers them when they come due.
package reminder

import (
	"context"
	"fmt"
	"time"
)

const Title = "Medication Reminder"

// Trigger fires every day at Hour:Minute local time.
type Trigger struct {
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
	Repeats bool `json:"repeats"`
}

// Next returns the first fire time strictly after t.
func (tr Trigger) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), tr.Hour, tr.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Due reports whether t falls inside the trigger's minute.
func (tr Trigger) Due(t time.Time) bool {
	return t.Hour() == tr.Hour && t.Minute() == tr.Minute
}

func (tr Trigger) String() string {
	return fmt.Sprintf("%02d:%02d", tr.Hour, tr.Minute)
}

// Request is what gets registered with a Notifier.
type Request struct {
	Identifier string  `json:"identifier"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Trigger    Trigger `json:"trigger"`
}

// Notifier is the notification service boundary. Add replaces any pending
// request with the same identifier.
type Notifier interface {
	Add(ctx context.Context, req Request) error
	Remove(ctx context.Context, identifier string) error
}
