package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/idilsaglam/medimanage/internal/config"
	"github.com/idilsaglam/medimanage/internal/kv"
	"github.com/idilsaglam/medimanage/internal/logger"
	"github.com/idilsaglam/medimanage/internal/model"
	"github.com/idilsaglam/medimanage/internal/reminder"
	"github.com/idilsaglam/medimanage/internal/store/jsonstore"
	"github.com/idilsaglam/medimanage/internal/tracker"
	"github.com/idilsaglam/medimanage/internal/tui"
	"github.com/idilsaglam/medimanage/internal/ui"
	"github.com/rs/zerolog"
)

// Options come from root flags.
type Options struct {
	ConfigPath string
	Theme      string // overrides config when set
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ls":
		return withApp(opt, false, func(ap *app) int { return doList(ap) })

	case "add":
		if len(a) < 2 || len(a) > 3 {
			ui.Fail("usage: medimanage add <name> <dosage> [HH:MM]")
			return 2
		}
		at, code := parseAt(a[2:])
		if code != 0 {
			return code
		}
		return withApp(opt, false, func(ap *app) int { return doAdd(ap, a[0], a[1], at) })

	case "edit":
		if len(a) < 3 || len(a) > 4 {
			ui.Fail("usage: medimanage edit <index> <name> <dosage> [HH:MM]")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("edit: not a number: " + a[0])
			return 2
		}
		at, code := parseAt(a[3:])
		if code != 0 {
			return code
		}
		return withApp(opt, false, func(ap *app) int { return doEdit(ap, n, a[1], a[2], at) })

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: medimanage rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail("rm: not a number: " + a[0])
			return 2
		}
		return withApp(opt, false, func(ap *app) int { return doRemove(ap, n) })

	case "reminders":
		return withApp(opt, false, func(ap *app) int { return doReminders(ap, time.Now()) })

	case "watch":
		return withApp(opt, false, func(ap *app) int { return doWatch(ap) })

	case "ui":
		return withApp(opt, true, func(ap *app) int { return doUI(ap) })
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Err)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprintf(ui.Out, `medimanage - track medications and daily reminders

Usage:
  medimanage [flags] <subcommand> [args]

Subcommands:
  add <name> <dosage> [HH:MM]            Add a medication, with an optional daily reminder
  ls                                     List medications
  edit <index> <name> <dosage> [HH:MM]   Change the medication at 1-based index
  rm <index>                             Remove the medication at 1-based index
  reminders                              Show scheduled reminders and when they fire next
  watch                                  Deliver reminders as they come due (runs until interrupted)
  ui                                     Interactive list

Flags:
  -config <path>   config file (default: ./config.yaml, ~/.config/medimanage/config.yaml)
  -theme <name>    classic | neon | mono
  -no-color        never color output
  -force-color     color output even when not a terminal

Examples:
  medimanage add Aspirin 100mg 08:00
  medimanage add "Vitamin D" "1000 IU"
  medimanage edit 1 Aspirin 200mg
  medimanage rm 2
`)
}

func parseAt(rest []string) (*time.Time, int) {
	if len(rest) == 0 {
		return nil, 0
	}
	at, err := model.ParseClock(rest[0])
	if err != nil {
		ui.Fail(err.Error())
		return nil, 2
	}
	return at, 0
}

// app wires the store, scheduler and tracker for one command.
type app struct {
	ctx     context.Context
	cfg     *config.Config
	log     zerolog.Logger
	kv      kv.Store
	store   *jsonstore.Store
	center  *reminder.Center
	sched   *reminder.Scheduler
	tracker *tracker.Tracker
	closers []io.Closer
}

func withApp(opt Options, interactive bool, fn func(*app) int) int {
	ap, err := openApp(context.Background(), opt, interactive)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer ap.close()
	return fn(ap)
}

func openApp(ctx context.Context, opt Options, interactive bool) (*app, error) {
	cfg, err := config.Load(opt.ConfigPath)
	if err != nil {
		return nil, err
	}
	theme := cfg.Theme
	if opt.Theme != "" {
		theme = opt.Theme
	}
	ui.SetTheme(theme)

	logCfg := logger.Config{Level: cfg.Log.Level, File: cfg.Log.File, Output: ui.Err}
	if interactive && logCfg.File == "" {
		// keep the alternate screen clean
		logCfg.File = filepath.Join(cfg.Storage.Dir, "medimanage.log")
		if cfg.Storage.Driver != "file" {
			logCfg.Output, logCfg.File = io.Discard, ""
		}
	}
	log, logCloser, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	store, err := kv.Open(ctx, kv.Options{
		Driver:    cfg.Storage.Driver,
		Dir:       cfg.Storage.Dir,
		RedisURL:  cfg.Storage.RedisURL,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ap := &app{
		ctx:     ctx,
		cfg:     cfg,
		log:     log,
		kv:      store,
		store:   jsonstore.New(store, log),
		center:  reminder.NewCenter(store, log),
		closers: []io.Closer{store, logCloser},
	}
	ap.sched = reminder.NewScheduler(ap.center, log)
	ap.tracker = tracker.New(ap.store, ap.sched, tracker.Options{
		CancelOnDelete: cfg.Reminders.CancelOnDelete,
	}, log)
	ap.store.Load(ctx)
	return ap, nil
}

// close waits for pending registrations so they are not lost at exit.
func (ap *app) close() {
	ap.sched.Wait()
	for _, c := range ap.closers {
		if err := c.Close(); err != nil {
			ap.log.Debug().Err(err).Msg("close")
		}
	}
}

// -------------- subcommand impls ----------------

func doList(ap *app) int {
	items := ap.tracker.Items()
	timed := 0
	for _, it := range items {
		if it.TimeOfDay != nil {
			timed++
		}
	}
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d",
		ui.C(t.Title, "Medications"),
		ui.C(t.Pending, t.SymReminder), timed,
		ui.C(t.Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Muted, "reminders "+ui.ProgressBar(timed, len(items), 20)))
	lines = append(lines, "")
	lines = append(lines, listLines(items)...)
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `medimanage add Aspirin 100mg 08:00`"))
	ui.Panel(lines)
	return 0
}

func listLines(items []model.Medication) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Muted, "no medications")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		sym := ui.C(t.Muted, t.SymNoReminder+" --:--")
		if it.TimeOfDay != nil {
			sym = ui.C(t.Pending, t.SymReminder+" "+it.TimeLabel())
		}
		label := ui.Truncate(fmt.Sprintf("%s - Dosage: %s", it.Name, it.Dosage), 80)
		out = append(out, fmt.Sprintf("%s %s  %s", ui.Dim(idx), sym, label))
	}
	return out
}

func doAdd(ap *app, name, dosage string, at *time.Time) int {
	m, err := ap.tracker.Add(ap.ctx, name, dosage, at)
	if err != nil {
		return failMutation("add", err)
	}
	if m.TimeOfDay != nil {
		ui.OK(fmt.Sprintf("added %s, reminder daily at %s", m.Name, m.TimeLabel()))
	} else {
		ui.OK("added " + m.Name)
	}
	return 0
}

func doEdit(ap *app, userIndex int, name, dosage string, at *time.Time) int {
	if code := checkIndex(ap, userIndex); code != 0 {
		return code
	}
	m, err := ap.tracker.Edit(ap.ctx, userIndex-1, name, dosage, at)
	if err != nil {
		return failMutation("edit", err)
	}
	ui.OK("updated " + m.Name)
	return 0
}

func doRemove(ap *app, userIndex int) int {
	if code := checkIndex(ap, userIndex); code != 0 {
		return code
	}
	m, err := ap.tracker.Delete(ap.ctx, userIndex-1)
	if err != nil {
		return failMutation("rm", err)
	}
	ui.OK("removed " + m.Name)
	return 0
}

func checkIndex(ap *app, userIndex int) int {
	n := len(ap.tracker.Items())
	if userIndex < 1 || userIndex > n {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", n, userIndex))
		ui.Hint("run `medimanage ls` to see valid indexes")
		return 2
	}
	return 0
}

func failMutation(cmd string, err error) int {
	ui.Fail(cmd + ": " + err.Error())
	if errors.Is(err, tracker.ErrInvalidInput) || errors.Is(err, tracker.ErrNotFound) {
		return 2
	}
	return 1
}

func doReminders(ap *app, now time.Time) int {
	pending, err := ap.center.Pending(ap.ctx)
	if err != nil {
		ui.Fail("reminders: " + err.Error())
		return 1
	}
	t := ui.Current()
	names := map[string]string{}
	for _, it := range ap.tracker.Items() {
		names[it.ReminderID()] = it.Name
	}

	lines := []string{ui.C(t.Title, "Reminders"), ""}
	if len(pending) == 0 {
		lines = append(lines, ui.C(t.Muted, "no reminders scheduled"))
	}
	for _, req := range pending {
		next := req.Trigger.Next(now)
		label := req.Body
		if _, ok := names[req.Identifier]; !ok {
			label += ui.C(t.Muted, " (no matching medication)")
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s",
			ui.C(t.Pending, t.SymReminder),
			req.Trigger,
			label,
			ui.C(t.Muted, "next "+next.Format("Mon 15:04")),
		))
	}
	ui.Panel(lines)
	return 0
}

func doWatch(ap *app) int {
	ctx, stop := signal.NotifyContext(ap.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// re-register every timed record so the center matches the list
	for _, it := range ap.tracker.Items() {
		ap.sched.Schedule(ctx, it)
	}
	ap.sched.Wait()

	targets := reminder.Multi{reminder.Terminal{W: ui.Out}}
	if ch := ap.cfg.Reminders.PublishChannel; ch != "" {
		pub, err := reminder.NewPublisher(ctx, ap.cfg.Storage.RedisURL, ch)
		if err != nil {
			ui.Fail("watch: " + err.Error())
			return 1
		}
		ap.closers = append(ap.closers, pub)
		targets = append(targets, pub)
	}

	ui.OK(fmt.Sprintf("watching %d medications, Ctrl+C to stop", len(ap.tracker.Items())))
	r := reminder.NewRunner(ap.center, targets, ap.cfg.Reminders.PollInterval, ap.log)
	if err := r.Run(ctx); err != nil {
		ui.Fail("watch: " + err.Error())
		return 1
	}
	return 0
}

func doUI(ap *app) int {
	if err := tui.Run(ap.ctx, ap.tracker); err != nil {
		ui.Fail("ui: " + err.Error())
		return 1
	}
	return 0
}
