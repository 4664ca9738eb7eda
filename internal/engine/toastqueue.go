package engine

import (
	"sync"
	"time"

	"github.com/perchapp/perch/internal/model"
)

// DefaultToastTTL is how long an undismissed toast stays on screen.
const DefaultToastTTL = 6 * time.Second

// ToastQueue holds the ephemeral toast stack. Toasts expire after a
// fixed TTL or on manual dismissal; they render stacked with the most
// recent last. De-duplication is not this layer's job; the seen set
// already guarantees each item toasts at most once.
type ToastQueue struct {
	mu       sync.Mutex
	toasts   []model.Toast
	timers   map[string]*time.Timer
	ttl      time.Duration
	stopped  bool
	onChange func([]model.Toast)
}

// NewToastQueue creates a queue with the given TTL. onChange is invoked
// with a copy of the stack after every push, dismissal, and expiry; it
// may be nil.
func NewToastQueue(ttl time.Duration, onChange func([]model.Toast)) *ToastQueue {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &ToastQueue{
		timers:   make(map[string]*time.Timer),
		ttl:      ttl,
		onChange: onChange,
	}
}

// Push appends a toast and arms its expiry timer.
func (q *ToastQueue) Push(toast model.Toast) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}

	q.toasts = append(q.toasts, toast)
	q.timers[toast.ID] = time.AfterFunc(q.ttl, func() {
		q.remove(toast.ID)
	})
	stack := q.snapshotLocked()
	q.mu.Unlock()

	q.notify(stack)
}

// Dismiss removes a toast before its TTL elapses.
func (q *ToastQueue) Dismiss(id string) {
	q.remove(id)
}

// Toasts returns a copy of the current stack, oldest first.
func (q *ToastQueue) Toasts() []model.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.snapshotLocked()
}

// Stop cancels all pending timers and drops the stack. Used during
// engine teardown.
func (q *ToastQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.toasts = nil
	q.mu.Unlock()
}

// remove deletes a toast by id and cancels its timer.
func (q *ToastQueue) remove(id string) {
	q.mu.Lock()
	timer, ok := q.timers[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	timer.Stop()
	delete(q.timers, id)

	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			break
		}
	}
	stack := q.snapshotLocked()
	q.mu.Unlock()

	q.notify(stack)
}

// snapshotLocked copies the stack; callers must hold q.mu.
func (q *ToastQueue) snapshotLocked() []model.Toast {
	stack := make([]model.Toast, len(q.toasts))
	copy(stack, q.toasts)
	return stack
}

// notify invokes the change callback outside the lock.
func (q *ToastQueue) notify(stack []model.Toast) {
	if q.onChange != nil {
		q.onChange(stack)
	}
}
