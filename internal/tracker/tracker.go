// Package tracker holds the add, edit and delete flows shared by the CLI
// and the TUI.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/idilsaglam/medimanage/internal/model"
	"github.com/idilsaglam/medimanage/internal/store/jsonstore"
	"github.com/rs/zerolog"
)

// ErrInvalidInput is returned when name or dosage is missing. The store is
// left untouched.
var ErrInvalidInput = errors.New("please enter medication name and dosage")

var ErrNotFound = errors.New("medication not found")

// Reminders is the subset of reminder.Scheduler the flows need.
type Reminders interface {
	Schedule(ctx context.Context, m model.Medication) bool
	Cancel(ctx context.Context, m model.Medication)
}

type Action string

const (
	Added   Action = "added"
	Edited  Action = "edited"
	Deleted Action = "deleted"
)

// Event describes a completed mutation.
type Event struct {
	Action     Action
	Index      int
	Medication model.Medication
}

type Options struct {
	CancelOnDelete bool
	OnChange       func(Event)
}

type Tracker struct {
	store     *jsonstore.Store
	reminders Reminders
	opt       Options
	log       zerolog.Logger
}

func New(store *jsonstore.Store, reminders Reminders, opt Options, log zerolog.Logger) *Tracker {
	return &Tracker{
		store:     store,
		reminders: reminders,
		opt:       opt,
		log:       log.With().Str("component", "tracker").Logger(),
	}
}

func (t *Tracker) Items() []model.Medication { return t.store.Items() }

func (t *Tracker) notify(ev Event) {
	if t.opt.OnChange != nil {
		t.opt.OnChange(ev)
	}
}

func invalid(err error) error {
	if errors.Is(err, model.ErrInvalid) {
		return fmt.Errorf("%w (%v)", ErrInvalidInput, err)
	}
	return err
}

// Add validates, appends and schedules a reminder when at is set.
func (t *Tracker) Add(ctx context.Context, name, dosage string, at *time.Time) (model.Medication, error) {
	m, err := model.New(name, dosage, at)
	if err != nil {
		return model.Medication{}, invalid(err)
	}
	t.store.Append(ctx, m)
	t.log.Debug().Str("id", m.ID).Str("name", m.Name).Msg("medication added")
	t.reminders.Schedule(ctx, m)
	t.notify(Event{Action: Added, Index: t.store.Len() - 1, Medication: m})
	return m, nil
}

// Edit changes name and dosage of the record at index, keeping its id and
// position. A nil at keeps the current time of day. Records with a time are
// rescheduled under their unchanged identifier.
func (t *Tracker) Edit(ctx context.Context, index int, name, dosage string, at *time.Time) (model.Medication, error) {
	cur, ok := t.store.Get(index)
	if !ok {
		return model.Medication{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	edited, err := model.New(name, dosage, cur.TimeOfDay)
	if err != nil {
		return model.Medication{}, invalid(err)
	}
	edited.ID = cur.ID
	if at != nil {
		edited.TimeOfDay = at
	}
	if cur.ReminderID() != edited.ReminderID() {
		// only id-less records derive the identifier from name and dosage
		t.reminders.Cancel(ctx, cur)
	}
	if err := t.store.Replace(ctx, index, edited); err != nil {
		return model.Medication{}, err
	}
	t.reminders.Schedule(ctx, edited)
	t.notify(Event{Action: Edited, Index: index, Medication: edited})
	return edited, nil
}

// Delete removes the record at index and, when configured, its reminder.
func (t *Tracker) Delete(ctx context.Context, index int) (model.Medication, error) {
	cur, ok := t.store.Get(index)
	if !ok {
		return model.Medication{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	if !t.store.Remove(ctx, cur) {
		return model.Medication{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	if t.opt.CancelOnDelete {
		t.reminders.Cancel(ctx, cur)
	}
	t.notify(Event{Action: Deleted, Index: index, Medication: cur})
	return cur, nil
}
