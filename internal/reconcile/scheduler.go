package reconcile

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler owns the repeating refresh task. Start and Stop are safe to
// call repeatedly and from any goroutine; they back the user-facing
// pause/resume toggle.
type Scheduler struct {
	interval time.Duration
	tick     func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler that will invoke tick every
// interval once started.
func NewScheduler(interval time.Duration, tick func(context.Context)) *Scheduler {
	return &Scheduler{interval: interval, tick: tick}
}

// Start begins the periodic task. A no-op when already running.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	go s.run(ctx)
	log.Println("reconcile: scheduler started")
}

// Stop pauses the periodic task. A no-op when already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	log.Println("reconcile: scheduler stopped")
}

// Running reports whether the periodic task is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context) {
	s.tick(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.tick(ctx)
			timer.Reset(s.interval)
		}
	}
}
