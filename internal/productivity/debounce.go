package productivity

import (
	"sync"
	"time"
)

// Debouncer delays invocation of fn until calls have been idle for the
// configured delay, always firing with the most recent value. Intermediate
// values are dropped, not queued: N calls inside one delay window produce
// exactly one invocation carrying the last value.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	stopped bool
}

// NewDebouncer wraps fn with debounce semantics. fn runs on a timer
// goroutine; it must be safe to call from there.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Call records value and resets the delay window, cancelling any pending
// invocation scheduled by earlier calls.
func (d *Debouncer[T]) Call(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = value
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.armed || d.stopped {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.armed = false
	d.mu.Unlock()

	d.fn(value)
}

// Flush fires the pending invocation immediately, if any. Used on shutdown
// so a navigated-away edit still reaches the store.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.armed || d.stopped {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	value := d.pending
	d.armed = false
	d.mu.Unlock()

	d.fn(value)
}

// Stop cancels any pending invocation and rejects future calls.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}
