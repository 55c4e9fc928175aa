// Package schedule keeps the set of pending reminders and fires each one's
// delivery callback exactly once at its fire time. The registry is in-memory
// only: a process restart loses all pending reminders.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrPastFireTime is the defensive rejection of a non-future fire time.
	// The parser already enforces this; the scheduler re-validates anyway.
	ErrPastFireTime = errors.New("fire time must be in the future")
	// ErrStopped is returned by Schedule after Stop has been called.
	ErrStopped = errors.New("scheduler is stopped")
)

// Task is the read-only projection of a pending reminder handed to callers
// and to the delivery callback. Mutating a copy has no effect on the registry.
type Task struct {
	ID        string
	OwnerID   string
	ChannelID string
	Message   string
	FireAt    time.Time
	CreatedAt time.Time
}

// DeliverFunc is the caller-supplied delivery action, invoked exactly once at
// the task's fire time. It may block on I/O; the scheduler never holds its
// lock across the call.
type DeliverFunc func(ctx context.Context, task Task) error

// Options configures a Scheduler. Zero values select the defaults.
type Options struct {
	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
	// OnDeliveryError observes delivery failures. The task stays fired either
	// way; a stale reminder delivered twice is worse than one dropped.
	OnDeliveryError func(task Task, err error)
}

type taskState int

const (
	statePending taskState = iota
	stateFired
	stateCanceled
)

type pendingTask struct {
	view    Task
	deliver DeliverFunc
	timer   *time.Timer
	state   taskState
}

// Scheduler owns the pending-task registry. One timer per task; Schedule and
// Cancel return immediately, only the firing path blocks (on delivery I/O).
type Scheduler struct {
	mu      sync.RWMutex
	now     func() time.Time
	onError func(Task, error)
	tasks   map[string]*pendingTask
	counter int64
	stopped bool
}

// New creates an empty Scheduler.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		now:     opts.Now,
		onError: opts.OnDeliveryError,
		tasks:   make(map[string]*pendingTask),
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Schedule registers a new pending reminder and arranges a wake-up at fireAt.
// The returned ID is unique for the scheduler's lifetime.
func (s *Scheduler) Schedule(fireAt time.Time, ownerID, channelID, message string, deliver DeliverFunc) (string, error) {
	if deliver == nil {
		return "", errors.New("delivery callback is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return "", ErrStopped
	}
	now := s.now()
	if !fireAt.After(now) {
		return "", fmt.Errorf("%s is not after %s: %w", fireAt.Format(time.RFC3339), now.Format(time.RFC3339), ErrPastFireTime)
	}

	s.counter++
	id := fmt.Sprintf("reminder_%d", s.counter)

	pt := &pendingTask{
		view: Task{
			ID:        id,
			OwnerID:   ownerID,
			ChannelID: channelID,
			Message:   message,
			FireAt:    fireAt,
			CreatedAt: now,
		},
		deliver: deliver,
	}
	pt.timer = time.AfterFunc(fireAt.Sub(now), func() { s.fire(id) })
	s.tasks[id] = pt

	fmt.Printf("[SCHEDULER] Scheduled %s for %s at %s\n", id, ownerID, fireAt.Format(time.RFC3339))
	return id, nil
}

// fire transitions a task out of PENDING and runs its delivery callback. If
// the task was canceled between the timer firing and the lock being taken,
// the cancellation wins and this is a no-op.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	pt, ok := s.tasks[id]
	if !ok || pt.state != statePending {
		s.mu.Unlock()
		return
	}
	pt.state = stateFired
	delete(s.tasks, id)
	view := pt.view
	deliver := pt.deliver
	onError := s.onError
	s.mu.Unlock()

	// Delivery runs outside the lock; it may suspend on network I/O and must
	// not block unrelated Schedule/Cancel calls.
	if err := deliver(context.Background(), view); err != nil {
		fmt.Printf("[SCHEDULER] Delivery failed for %s: %v\n", id, err)
		if onError != nil {
			onError(view, err)
		}
	}
}

// Cancel moves a pending task to CANCELED. It returns true only if the task
// exists, is still pending, and belongs to ownerID. The not-found and
// not-owner cases are indistinguishable to the caller on purpose — cancellation
// must not confirm another user's task exists — but are logged separately.
func (s *Scheduler) Cancel(taskID, ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, ok := s.tasks[taskID]
	if !ok || pt.state != statePending {
		fmt.Printf("[SCHEDULER] Cancel %s: no pending task\n", taskID)
		return false
	}
	if pt.view.OwnerID != ownerID {
		fmt.Printf("[SCHEDULER] Cancel %s: requester %s is not the owner\n", taskID, ownerID)
		return false
	}

	pt.state = stateCanceled
	pt.timer.Stop()
	delete(s.tasks, taskID)
	fmt.Printf("[SCHEDULER] Canceled %s\n", taskID)
	return true
}

// Pending returns a snapshot of pending tasks sorted by fire time ascending.
// An empty ownerID selects all owners (the privileged view).
func (s *Scheduler) Pending(ownerID string) []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, pt := range s.tasks {
		if pt.state != statePending {
			continue
		}
		if ownerID != "" && pt.view.OwnerID != ownerID {
			continue
		}
		out = append(out, pt.view)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Stop cancels all timers and rejects further Schedule calls. Pending tasks
// are discarded, matching the in-memory-only contract.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	for id, pt := range s.tasks {
		pt.timer.Stop()
		pt.state = stateCanceled
		delete(s.tasks, id)
	}
	fmt.Println("[SCHEDULER] Stopped")
}
