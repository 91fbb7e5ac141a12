// Package cronsched implements corestore.Scheduler on top of
// github.com/robfig/cron/v3, so a store can be driven by a cron
// expression instead of running its dispatch loop synchronously inside
// Dispatch. Grounded on the teacher's modules/scheduler package, which
// wraps the same library behind a small Start/Stop lifecycle.
package cronsched

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/corestore/corestore"
)

// Scheduler drives store.Run on a cron schedule. It satisfies
// corestore.Scheduler: once installed via corestore.WithScheduler, Dispatch
// stops self-driving the loop and only enqueues; Run executes on whatever
// cadence the cron expression describes.
type Scheduler struct {
	spec string
	cron *cron.Cron

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// New builds a Scheduler that runs the dispatch loop according to spec, a
// standard five-field cron expression (see robfig/cron's documentation).
func New(spec string) *Scheduler {
	return &Scheduler{spec: spec, cron: cron.New()}
}

// Start registers store.Run against the cron schedule and starts the
// underlying cron.Cron. It returns promptly; the scheduler's own
// goroutine drives subsequent ticks.
func (s *Scheduler) Start(store *corestore.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	id, err := s.cron.AddFunc(s.spec, func() {
		_ = store.Run()
	})
	if err != nil {
		// An invalid cron expression is a construction-time mistake the
		// caller should have caught with cron.ParseStandard first; there
		// is no sensible recovery here other than never ticking.
		return
	}
	s.entryID = id
	s.cron.Start()
	s.started = true
}

// Stop halts the cron scheduler. Safe to call more than once, and safe to
// call even if Start was never called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Remove(s.entryID)
	<-s.cron.Stop().Done()
	s.started = false
}
