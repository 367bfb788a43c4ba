// Package retry wraps language-model calls with a per-attempt timeout,
// bounded exponential backoff, and a static fallback value. Callers never see
// an error: on exhaustion the fallback is returned instead.
package retry

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

const defaultBaseDelay = 500 * time.Millisecond

var (
	errTimeout = errors.New("operation timed out")
	errEmpty   = errors.New("empty result")
)

// Sleeper lets tests substitute the backoff wait.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy controls one wrapped call.
type Policy struct {
	Timeout    time.Duration // per attempt, not per call chain
	MaxRetries int           // additional attempts after the first
	BaseDelay  time.Duration // backoff base; doubles per retry
	Fallback   string        // returned when every attempt fails
	Sleep      Sleeper
}

// Do runs op under the policy. An attempt fails on error, timeout, or an
// empty (whitespace-only) result. A timed-out attempt's late result is
// discarded, never reused.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) (string, error)) string {
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.Sleep == nil {
		p.Sleep = defaultSleep
	}

	attempts := p.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := runOnce(ctx, p.Timeout, op)
		if err == nil {
			return result
		}
		log.Printf("retry: attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		delay := p.BaseDelay << (attempt - 1)
		if err := p.Sleep(ctx, delay); err != nil {
			break
		}
	}
	return p.Fallback
}

func runOnce(ctx context.Context, timeout time.Duration, op func(ctx context.Context) (string, error)) (string, error) {
	type outcome struct {
		result string
		err    error
	}
	attemptCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := op(attemptCtx)
		done <- outcome{result, err}
	}()

	select {
	case <-attemptCtx.Done():
		return "", errTimeout
	case out := <-done:
		if out.err != nil {
			return "", out.err
		}
		if strings.TrimSpace(out.result) == "" {
			return "", errEmpty
		}
		return out.result, nil
	}
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
