package state

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifsc/internal/shared"
)

// Task is the handle of an asynchronous store operation.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the task's terminal transition has been applied or discarded.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles or ctx ends.
//
// The error wraps [shared.ErrTaskRejected] when the operation failed and is [shared.ErrSuperseded]
// when its result was discarded. The value is returned in both cases.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// spawn runs work on a new goroutine and then calls settle under the store mutex.
// settle returns false when the result is stale and was not applied.
func spawn[T any](s *Store, ctx context.Context, name string, work func(context.Context) (T, error), settle func(T, error) bool) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}

	go func() {
		defer close(t.done)

		value, err := protect(ctx, work)
		if err != nil {
			s.logger.Error("task failed", "task", name, "err", err)
		}

		s.mu.Lock()
		applied := settle(value, err)
		if !applied {
			s.logger.Debug("discarding stale task result", "task", name)
		}
		s.mu.Unlock()

		t.value = value
		switch {
		case !applied:
			t.err = shared.ErrSuperseded
		case err != nil:
			t.err = fmt.Errorf("%w: %s: %w", shared.ErrTaskRejected, name, err)
		}
	}()

	return t
}

// protect turns a panic in work into an error and refuses to start work for a finished context.
func protect[T any](ctx context.Context, work func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return value, err
	}
	return work(ctx)
}
