package seedcache

import "context"

// Task is one in-flight fetch. It completes exactly once; Await may be
// called any number of times after that and returns the same result.
type Task[V any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	v      V
	err    error
}

// Await blocks until the fetch completes or ctx is done, whichever comes
// first. A ctx expiry does not stop the underlying fetch; use Cancel for
// that.
func (t *Task[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-t.done:
		return t.v, t.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Cancel tears the fetch down (the consumer went away before completion).
// The fetch function observes cancellation through its context.
func (t *Task[V]) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Done is closed when the fetch has completed.
func (t *Task[V]) Done() <-chan struct{} { return t.done }

func failedTask[V any](err error) *Task[V] {
	done := make(chan struct{})
	close(done)
	return &Task[V]{done: done, err: err}
}
