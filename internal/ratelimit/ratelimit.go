// Package ratelimit counts attempts per identifier and action in fixed
// windows. The deposit flow consults it before opening a checkout.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Rule describes one quota: at most MaxAttempts for Action by Identifier in
// each Window.
type Rule struct {
	Identifier  string
	Action      string
	MaxAttempts int
	Window      time.Duration
}

func (r Rule) key() string {
	return fmt.Sprintf("ratelimit:%s:%s", r.Action, r.Identifier)
}

// Limiter consumes one attempt and reports whether the quota is now exceeded.
// A non-nil error means the backend could not be consulted; callers decide
// whether to fail open.
type Limiter interface {
	CheckAndConsume(ctx context.Context, rule Rule) (exceeded bool, err error)
}
