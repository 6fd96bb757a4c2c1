// Package hooks runs side effects after a ledger unit has committed. A hook
// can fail or panic without affecting the caller; failures are logged and
// counted.
package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chowvest/internal/logger"
	"chowvest/internal/metrics"
)

// Runner schedules post-commit hooks.
type Runner interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
}

// Async runs each hook on its own goroutine with a bounded context detached
// from the request's cancellation.
type Async struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync creates a runner whose hooks get at most timeout each.
func NewAsync(timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{timeout: timeout}
}

// Go schedules fn and returns immediately.
func (a *Async) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		run(hookCtx, name, fn)
	}()
}

// Wait blocks until every scheduled hook has finished or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline runs hooks synchronously on the caller's goroutine. Tests use it to
// observe side effects deterministically.
type Inline struct{}

// Go runs fn before returning.
func (Inline) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	run(context.WithoutCancel(ctx), name, fn)
}

func run(ctx context.Context, name string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HookFailures.WithLabelValues(name).Inc()
			logger.Get().Errorw("Post-commit hook panicked", "hook", name, "panic", fmt.Sprint(r))
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.HookFailures.WithLabelValues(name).Inc()
		logger.Get().Errorw("Post-commit hook failed", "hook", name, "error", err)
	}
}
