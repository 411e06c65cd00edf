package service

import (
	"context"
	"sync"
	"time"

	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
)

// WritingTimer is a countdown for a writing sprint. Stop clears it at once.
type WritingTimer struct {
	tick time.Duration
	now  func() time.Time

	mu       sync.Mutex
	duration time.Duration
	deadline time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWritingTimer creates a stopped timer that checks its deadline every tick.
func NewWritingTimer(tick time.Duration) *WritingTimer {
	return &WritingTimer{tick: tick, now: time.Now}
}

// Start begins a countdown of d. onDone runs once, on the timer's goroutine,
// if the countdown completes without Stop.
func (t *WritingTimer) Start(ctx context.Context, d time.Duration, onDone func()) error {
	if d <= 0 {
		return domainerrors.Validation("timer duration must be positive")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return domainerrors.Conflict("a writing timer is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel, t.done = cancel, done
	t.duration = d
	t.deadline = t.now().Add(d)

	go t.run(ctx, done, onDone)
	return nil
}

func (t *WritingTimer) run(ctx context.Context, done chan struct{}, onDone func()) {
	defer close(done)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.clear(done)
			return
		case <-ticker.C:
			t.mu.Lock()
			finished := t.done == done && !t.now().Before(t.deadline)
			t.mu.Unlock()
			if finished && t.clear(done) {
				if onDone != nil {
					onDone()
				}
				return
			}
		}
	}
}

// clear resets the timer if done still belongs to the running countdown.
func (t *WritingTimer) clear(done chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != done {
		return false
	}
	t.cancel()
	t.cancel, t.done = nil, nil
	t.duration, t.deadline = 0, time.Time{}
	return true
}

// Stop cancels the countdown and waits for its goroutine to exit.
func (t *WritingTimer) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.duration, t.deadline = 0, time.Time{}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether a countdown is active.
func (t *WritingTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Status returns the countdown's total and remaining time; zero when stopped.
func (t *WritingTimer) Status() (total, remaining time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return 0, 0
	}
	return t.duration, max(t.deadline.Sub(t.now()), 0)
}

// GoalStatus is a word goal's progress.
type GoalStatus struct {
	Target   int  `json:"target"`
	Progress int  `json:"progress"`
	Reached  bool `json:"reached"`
}

// WordGoal tracks words written since a baseline against a target. Progress
// lives only in memory; Stop discards it.
type WordGoal struct {
	tick time.Duration

	mu       sync.Mutex
	active   bool
	target   int
	baseline int
	progress int
	reached  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWordGoal creates an inactive goal that samples progress every tick.
func NewWordGoal(tick time.Duration) *WordGoal {
	return &WordGoal{tick: tick}
}

// Start tracks read() - baseline against target. onReached runs once, on
// the goal's goroutine, when the target is met.
func (g *WordGoal) Start(ctx context.Context, target, baseline int, read func() int, onReached func(GoalStatus)) error {
	if target <= 0 {
		return domainerrors.Validation("word goal must be positive")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return domainerrors.Conflict("a word goal is already set")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	g.active = true
	g.target, g.baseline = target, baseline
	g.progress, g.reached = 0, false
	g.cancel, g.done = cancel, done

	go g.run(ctx, done, read, onReached)
	return nil
}

func (g *WordGoal) run(ctx context.Context, done chan struct{}, read func() int, onReached func(GoalStatus)) {
	defer close(done)

	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			words := read()

			g.mu.Lock()
			if g.done != done {
				g.mu.Unlock()
				return
			}
			g.progress = max(words-g.baseline, 0)
			hit := g.progress >= g.target
			if hit {
				g.reached = true
			}
			status := GoalStatus{Target: g.target, Progress: g.progress, Reached: g.reached}
			g.mu.Unlock()

			if hit {
				if onReached != nil {
					onReached(status)
				}
				return
			}
		}
	}
}

// Status returns the current progress. ok is false when no goal is set.
func (g *WordGoal) Status() (status GoalStatus, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return GoalStatus{}, false
	}
	return GoalStatus{Target: g.target, Progress: g.progress, Reached: g.reached}, true
}

// Stop abandons the goal and discards its progress.
func (g *WordGoal) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.active = false
	g.target, g.baseline, g.progress, g.reached = 0, 0, 0, false
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
