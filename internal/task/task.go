// Package task runs core operations either inline or on a background
// goroutine behind one interface, so parse, filter and export each have a
// single implementation regardless of where they execute.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Func is a unit of work. It should honour ctx between steps.
type Func func(ctx context.Context) (any, error)

// Runner executes a Func.
type Runner interface {
	Run(ctx context.Context, name string, fn Func) (any, error)
}

// Do runs fn on r and returns its typed result.
func Do[T any](ctx context.Context, r Runner, name string, fn func(context.Context) (T, error)) (T, error) {
	v, err := r.Run(ctx, name, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Failure is a task that panicked. Background logs it and retries inline;
// callers only see it if the inline retry panics as well.
type Failure struct {
	Task  string
	Err   error
	Stack []byte // set when the task panicked
}

func (f *Failure) Error() string {
	return fmt.Sprintf("background task %s failed: %v", f.Task, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Inline runs the work on the caller's goroutine.
type Inline struct{}

// Run calls fn directly. A panic is returned as a *Failure.
func (Inline) Run(ctx context.Context, name string, fn Func) (v any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, &Failure{Task: name, Err: fmt.Errorf("panic: %v", p), Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

// Background runs the work on its own goroutine and waits for it or for ctx.
// When the goroutine panics, the same work is retried inline. Errors returned
// by the work itself are passed through unchanged.
type Background struct {
	Logger *slog.Logger
}

type result struct {
	v   any
	err error
}

// Run executes fn on a new goroutine. If ctx is cancelled first, Run returns
// ctx.Err() and the goroutine's eventual result is dropped.
func (b Background) Run(ctx context.Context, name string, fn Func) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: &Failure{Task: name, Err: fmt.Errorf("panic: %v", p), Stack: debug.Stack()}}
			}
		}()
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	failure, ok := res.err.(*Failure)
	if !ok {
		// ordinary errors are results, not worker failures
		return res.v, res.err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	b.logger().Warn("background task failed, retrying inline",
		"task", name,
		"error", failure.Err,
	)
	return Inline{}.Run(ctx, name, fn)
}

func (b Background) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
