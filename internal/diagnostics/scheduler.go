package diagnostics

import (
	"sync"
	"time"
)

// DebounceInterval is the fixed delay the scheduler waits after the last
// edit to a document before rerunning its diagnostics.
const DebounceInterval = 150 * time.Millisecond

// Scheduler debounces diagnostic runs per URI. Each Schedule call bumps that
// URI's generation counter and (re)arms a timer; when the timer fires it
// checks the counter is still current before invoking run, so an edit that
// arrives during the debounce window silently supersedes the pending run
// rather than queuing a second one.
type Scheduler struct {
	mu          sync.Mutex
	generations map[string]uint64
	timers      map[string]*time.Timer
	interval    time.Duration
	run         func(uri string, generation uint64)
}

// NewScheduler builds a Scheduler that calls run after interval has elapsed
// with no further Schedule calls for that URI.
func NewScheduler(interval time.Duration, run func(uri string, generation uint64)) *Scheduler {
	return &Scheduler{
		generations: make(map[string]uint64),
		timers:      make(map[string]*time.Timer),
		interval:    interval,
		run:         run,
	}
}

// Schedule (re)arms uri's debounce timer, abandoning any run already in
// flight for a now-stale generation.
func (s *Scheduler) Schedule(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[uri]++
	gen := s.generations[uri]
	if t, ok := s.timers[uri]; ok {
		t.Stop()
	}
	s.timers[uri] = time.AfterFunc(s.interval, func() { s.fire(uri, gen) })
}

func (s *Scheduler) fire(uri string, gen uint64) {
	s.mu.Lock()
	current := s.generations[uri]
	delete(s.timers, uri)
	s.mu.Unlock()

	if current != gen {
		return
	}
	s.run(uri, gen)
}

// Cancel stops uri's pending timer, if any, without running its check. Call
// on did_close so a closed document never produces a late diagnostics push.
func (s *Scheduler) Cancel(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[uri]; ok {
		t.Stop()
		delete(s.timers, uri)
	}
	delete(s.generations, uri)
}
