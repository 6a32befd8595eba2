package web

import (
	"sync"
	"time"

	"github.com/nuralia/clinic-crm/internal/ingest"
)

// Run states reported to clients.
const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// trackedRun is the in-memory record of one upload run: live progress for
// polling and streaming, then the final result and the captured audit log.
type trackedRun struct {
	id      string
	started time.Time
	log     *ingest.RunLog

	mu          sync.Mutex
	status      string
	progress    ingest.Progress
	result      *ingest.Result
	subscribers map[chan ingest.Progress]struct{}

	done chan struct{}
}

func newTrackedRun(id string, log *ingest.RunLog) *trackedRun {
	return &trackedRun{
		id:          id,
		started:     time.Now(),
		log:         log,
		status:      statusRunning,
		subscribers: make(map[chan ingest.Progress]struct{}),
		done:        make(chan struct{}),
	}
}

// setProgress records the latest report and fans it out to subscribers.
// A subscriber that cannot keep up misses intermediate reports; the final
// result does not travel this path, so nothing is lost.
func (t *trackedRun) setProgress(p ingest.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = p
	for ch := range t.subscribers {
		select {
		case ch <- p:
		default:
		}
	}
}

// finish records the terminal state and releases waiters.
func (t *trackedRun) finish(result *ingest.Result) {
	t.mu.Lock()
	t.result = result
	if result != nil && result.Success {
		t.status = statusCompleted
	} else {
		t.status = statusFailed
	}
	t.mu.Unlock()
	close(t.done)
}

// subscribe registers a progress channel. The returned cancel func must be
// called when the consumer is done.
func (t *trackedRun) subscribe() (<-chan ingest.Progress, func()) {
	ch := make(chan ingest.Progress, 16)
	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		delete(t.subscribers, ch)
		t.mu.Unlock()
	}
	return ch, cancel
}

func (t *trackedRun) snapshot() (string, ingest.Progress, *ingest.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.progress, t.result
}

// runTracker holds active and recently finished runs. Finished runs beyond
// the history cap are evicted oldest first; active runs are never evicted.
type runTracker struct {
	mu      sync.Mutex
	runs    map[string]*trackedRun
	order   []string
	history int
}

func newRunTracker(history int) *runTracker {
	if history <= 0 {
		history = 20
	}
	return &runTracker{
		runs:    make(map[string]*trackedRun),
		history: history,
	}
}

func (rt *runTracker) add(run *trackedRun) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.runs[run.id] = run
	rt.order = append(rt.order, run.id)
	rt.evictLocked()
}

func (rt *runTracker) get(id string) (*trackedRun, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	run, ok := rt.runs[id]
	return run, ok
}

func (rt *runTracker) evictLocked() {
	for len(rt.order) > rt.history {
		evicted := false
		for i, id := range rt.order {
			run := rt.runs[id]
			run.mu.Lock()
			finished := run.status != statusRunning
			run.mu.Unlock()
			if finished {
				delete(rt.runs, id)
				rt.order = append(rt.order[:i], rt.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
