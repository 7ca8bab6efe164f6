package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/idilsaglam/medimanage/internal/kv"
	"github.com/idilsaglam/medimanage/internal/reminder"
	"github.com/idilsaglam/medimanage/internal/store/jsonstore"
	"github.com/idilsaglam/medimanage/internal/ui"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sandbox points config and storage at a temp dir and captures output.
func sandbox(t *testing.T) (dataDir string, out, errb *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("MEDIMANAGE_STORAGE_DRIVER", "file")
	t.Setenv("MEDIMANAGE_STORAGE_DIR", dataDir)
	t.Setenv("MEDIMANAGE_LOG_LEVEL", "error")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))

	out, errb = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := ui.Out, ui.Err
	ui.Out, ui.Err = out, errb
	t.Cleanup(func() {
		ui.Out, ui.Err = prevOut, prevErr
		_ = os.Chdir(wd)
	})
	return dataDir, out, errb
}

func stored(t *testing.T, dataDir string) *jsonstore.Store {
	t.Helper()
	fs, err := kv.NewFileStore(dataDir)
	require.NoError(t, err)
	s := jsonstore.New(fs, zerolog.Nop())
	s.Load(context.Background())
	return s
}

func TestNoArgsPrintsHelp(t *testing.T) {
	_, out, _ := sandbox(t)
	assert.Equal(t, 2, Run(nil, Options{}))
	assert.Contains(t, out.String(), "Subcommands:")
}

func TestUnknownSubcommand(t *testing.T) {
	_, _, errb := sandbox(t)
	assert.Equal(t, 2, Run([]string{"frobnicate"}, Options{}))
	assert.Contains(t, errb.String(), "unknown subcommand: frobnicate")
}

func TestAddEditRemove(t *testing.T) {
	dataDir, out, _ := sandbox(t)

	require.Equal(t, 0, Run([]string{"add", "Aspirin", "100mg", "08:00"}, Options{}))
	assert.Contains(t, out.String(), "added Aspirin, reminder daily at 08:00")

	s := stored(t, dataDir)
	require.Equal(t, 1, s.Len())
	first, _ := s.Get(0)

	fs, err := kv.NewFileStore(dataDir)
	require.NoError(t, err)
	pending, err := reminder.NewCenter(fs, zerolog.Nop()).Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].Identifier)
	assert.Equal(t, "It's time to take Aspirin.", pending[0].Body)

	require.Equal(t, 0, Run([]string{"edit", "1", "Aspirin", "200mg"}, Options{}))
	s = stored(t, dataDir)
	require.Equal(t, 1, s.Len())
	edited, _ := s.Get(0)
	assert.Equal(t, "200mg", edited.Dosage)
	assert.Equal(t, first.ID, edited.ID)
	assert.Equal(t, "08:00", edited.TimeLabel())

	out.Reset()
	require.Equal(t, 0, Run([]string{"ls"}, Options{}))
	assert.Contains(t, out.String(), "Aspirin - Dosage: 200mg")
	assert.Contains(t, out.String(), "08:00")

	require.Equal(t, 0, Run([]string{"rm", "1"}, Options{}))
	assert.Equal(t, 0, stored(t, dataDir).Len())
	pending, err = reminder.NewCenter(fs, zerolog.Nop()).Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAddValidation(t *testing.T) {
	dataDir, _, errb := sandbox(t)

	assert.Equal(t, 2, Run([]string{"add", " ", "100mg"}, Options{}))
	assert.Contains(t, errb.String(), "please enter medication name and dosage")
	assert.Equal(t, 0, stored(t, dataDir).Len())

	assert.Equal(t, 2, Run([]string{"add", "Aspirin", "100mg", "8am"}, Options{}))
	assert.Equal(t, 2, Run([]string{"add", "Aspirin"}, Options{}))
	assert.Equal(t, 0, stored(t, dataDir).Len())
}

func TestIndexErrors(t *testing.T) {
	_, _, errb := sandbox(t)

	assert.Equal(t, 2, Run([]string{"rm", "x"}, Options{}))
	assert.Equal(t, 2, Run([]string{"rm", "1"}, Options{}))
	assert.Contains(t, errb.String(), "index out of range: have 0, got 1")
	assert.Equal(t, 2, Run([]string{"edit", "0", "A", "1mg"}, Options{}))
}

func TestListEmpty(t *testing.T) {
	_, out, _ := sandbox(t)
	require.Equal(t, 0, Run([]string{"ls"}, Options{Theme: "mono"}))
	assert.Contains(t, out.String(), "no medications")
	assert.Contains(t, out.String(), "+")
}

func TestRemindersListing(t *testing.T) {
	_, out, _ := sandbox(t)
	require.Equal(t, 0, Run([]string{"add", "Aspirin", "100mg", "21:30"}, Options{}))
	require.Equal(t, 0, Run([]string{"add", "Vitamin D", "1000 IU"}, Options{}))

	out.Reset()
	require.Equal(t, 0, Run([]string{"reminders"}, Options{}))
	assert.Contains(t, out.String(), "21:30")
	assert.Contains(t, out.String(), "It's time to take Aspirin.")
	assert.NotContains(t, out.String(), "Vitamin D")
}

func TestDoRemindersNextFire(t *testing.T) {
	_, out, _ := sandbox(t)
	ap, err := openApp(context.Background(), Options{}, false)
	require.NoError(t, err)
	defer ap.close()

	_, err = ap.tracker.Add(ap.ctx, "Aspirin", "100mg", nil)
	require.NoError(t, err)
	require.NoError(t, ap.center.Add(ap.ctx, reminder.Request{
		Identifier: "orphan", Title: reminder.Title, Body: "It's time to take Old.",
		Trigger: reminder.Trigger{Hour: 7, Minute: 0, Repeats: true},
	}))

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)
	require.Equal(t, 0, doReminders(ap, now))
	assert.Contains(t, out.String(), "next Mon 07:00")
	assert.Contains(t, out.String(), "(no matching medication)")
}

func TestBadConfigFails(t *testing.T) {
	_, _, errb := sandbox(t)
	t.Setenv("MEDIMANAGE_STORAGE_DRIVER", "bolt")
	assert.Equal(t, 1, Run([]string{"ls"}, Options{}))
	assert.Contains(t, errb.String(), "storage.driver")
}
