package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Medication is the domain model for a tracked medication.
// TimeOfDay only carries hour and minute; nil means no reminder.
type Medication struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name" validate:"required,max=200"`
	Dosage    string     `json:"dosage" validate:"required,max=200"`
	TimeOfDay *time.Time `json:"timeOfDay,omitempty"`
}

var validate = validator.New()

// ErrInvalid is returned by Validate when a required field is missing or too long.
var ErrInvalid = errors.New("invalid medication")

// New trims the input, assigns a fresh id and validates the result.
func New(name, dosage string, at *time.Time) (Medication, error) {
	m := Medication{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Dosage:    strings.TrimSpace(dosage),
		TimeOfDay: at,
	}
	if err := m.Validate(); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (m Medication) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, strings.ToLower(fe.Field())+" is required")
		case "max":
			fields = append(fields, fmt.Sprintf("%s must not exceed %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			fields = append(fields, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
}

// SameAs reports whether two records describe the same medication by
// name and dosage. Time of day is not part of the comparison.
func (m Medication) SameAs(o Medication) bool {
	return m.Name == o.Name && m.Dosage == o.Dosage
}

// Matches uses ids when both records have one and falls back to SameAs.
func (m Medication) Matches(o Medication) bool {
	if m.ID != "" && o.ID != "" {
		return m.ID == o.ID
	}
	return m.SameAs(o)
}

// ReminderID is the identifier a reminder for this record is registered under.
func (m Medication) ReminderID() string {
	if m.ID != "" {
		return m.ID
	}
	return m.Name + "-" + m.Dosage
}

// Clock returns hour and minute of the reminder time.
func (m Medication) Clock() (hour, minute int, ok bool) {
	if m.TimeOfDay == nil {
		return 0, 0, false
	}
	return m.TimeOfDay.Hour(), m.TimeOfDay.Minute(), true
}

// TimeLabel renders the reminder time as HH:MM, or "-" when unset.
func (m Medication) TimeLabel() string {
	h, mm, ok := m.Clock()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%02d:%02d", h, mm)
}

// ClockTime builds a wall-clock time in the local zone on a fixed reference day.
func ClockTime(hour, minute int) time.Time {
	return time.Date(2001, time.January, 1, hour, minute, 0, 0, time.Local)
}

// ParseClock parses "HH:MM" (24h). An empty string yields nil.
func ParseClock(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	hs, ms, found := strings.Cut(s, ":")
	if !found {
		return nil, fmt.Errorf("time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || !digits(hs, 1, 2) || h > 23 {
		return nil, fmt.Errorf("time %q: hour must be 0-23", s)
	}
	mm, err := strconv.Atoi(ms)
	if err != nil || !digits(ms, 2, 2) || mm > 59 {
		return nil, fmt.Errorf("time %q: minute must be 00-59", s)
	}
	t := ClockTime(h, mm)
	return &t, nil
}

// digits reports whether s is between lo and hi ASCII digits long.
func digits(s string, lo, hi int) bool {
	if len(s) < lo || len(s) > hi {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
