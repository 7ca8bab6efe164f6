package reminder

import (
	"context"
	"fmt"
	"sync"

	"github.com/idilsaglam/medimanage/internal/model"
	"github.com/rs/zerolog"
)

// Scheduler registers reminders without blocking the caller. Results only
// reach the log; nothing is retried and application state is never touched.
// Submitted work runs in order on a single worker, so a cancel never
// overtakes the registration it follows.
type Scheduler struct {
	n   Notifier
	log zerolog.Logger
	wg  sync.WaitGroup

	mu      sync.Mutex
	queue   []func()
	running bool
}

func NewScheduler(n Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{n: n, log: log.With().Str("component", "scheduler").Logger()}
}

// RequestFor builds the request for m. ok is false when m has no time of day.
func RequestFor(m model.Medication) (Request, bool) {
	h, mm, ok := m.Clock()
	if !ok {
		return Request{}, false
	}
	return Request{
		Identifier: m.ReminderID(),
		Title:      Title,
		Body:       fmt.Sprintf("It's time to take %s.", m.Name),
		Trigger:    Trigger{Hour: h, Minute: mm, Repeats: true},
	}, true
}

// Schedule submits a daily reminder for m and returns at once. It reports
// whether a registration was submitted.
func (s *Scheduler) Schedule(ctx context.Context, m model.Medication) bool {
	req, ok := RequestFor(m)
	if !ok {
		s.log.Info().Str("name", m.Name).Msg("no time specified, reminder skipped")
		return false
	}
	ctx = context.WithoutCancel(ctx)
	s.submit(func() {
		s.scheduled(req, m.Name, s.n.Add(ctx, req))
	})
	return true
}

// submit queues fn and starts the worker if it is idle.
func (s *Scheduler) submit(fn func()) {
	s.wg.Add(1)
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	start := !s.running
	s.running = true
	s.mu.Unlock()
	if start {
		go s.drain()
	}
}

func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
		s.wg.Done()
	}
}

func (s *Scheduler) scheduled(req Request, name string, err error) {
	if err != nil {
		s.log.Error().Err(err).Str("id", req.Identifier).Str("name", name).Msg("error scheduling reminder")
		return
	}
	s.log.Info().Str("id", req.Identifier).Str("name", name).Stringer("at", req.Trigger).Msg("reminder scheduled")
}

// Cancel withdraws the pending reminder for m, if any, without blocking.
func (s *Scheduler) Cancel(ctx context.Context, m model.Medication) {
	id := m.ReminderID()
	ctx = context.WithoutCancel(ctx)
	s.submit(func() {
		if err := s.n.Remove(ctx, id); err != nil {
			s.log.Error().Err(err).Str("id", id).Str("name", m.Name).Msg("error cancelling reminder")
			return
		}
		s.log.Info().Str("id", id).Str("name", m.Name).Msg("reminder cancelled")
	})
}

// Wait blocks until every submitted registration and cancellation has completed.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
