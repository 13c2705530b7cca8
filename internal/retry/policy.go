// Package retry provides exponential backoff and error classification
// for sync attempts against the remote write API.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	apperrors "github.com/halcyon-social/actionsync/internal/errors"
)

// Class tags an executor error as retriable or terminal.
type Class int

const (
	// ClassRetriable errors may succeed on a later attempt
	// (network, timeout, remote 5xx). Unclassified errors default here.
	ClassRetriable Class = iota
	// ClassTerminal errors cannot succeed without user intervention
	// (authorization, permission). They are never retried.
	ClassTerminal
)

// String returns the class name for logging.
func (c Class) String() string {
	if c == ClassTerminal {
		return "terminal"
	}
	return "retriable"
}

// classifiedError carries an explicit Class assigned by an executor.
type classifiedError struct {
	err   error
	class Class
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

// MarkTerminal tags err so Classify reports it as terminal.
func MarkTerminal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTerminal}
}

// MarkRetriable tags err so Classify reports it as retriable.
func MarkRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassRetriable}
}

// Classify determines whether an executor error is worth retrying.
// Explicit tags from MarkTerminal/MarkRetriable win; AppError codes and
// net.Error timeouts are recognized; everything else is retriable,
// favoring availability over fast-fail.
func Classify(err error) Class {
	var tagged *classifiedError
	if errors.As(err, &tagged) {
		return tagged.class
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrExecutorAuth:
			return ClassTerminal
		case apperrors.ErrExecutorNetwork:
			return ClassRetriable
		}
	}

	if errors.Is(err, context.Canceled) {
		return ClassTerminal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassRetriable
	}

	return ClassRetriable
}

// Policy holds the backoff and retry budget configuration.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxRetries   int
	// Jitter enables up to 10% random reduction of each delay.
	// Disabled in tests that assert exact delays.
	Jitter bool
}

// DefaultPolicy returns the production retry policy.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 1 * time.Second,
		MaxDelay:     1 * time.Hour,
		Multiplier:   2,
		MaxRetries:   3,
		Jitter:       true,
	}
}

// ComputeDelay returns the backoff delay before retrying attempt.
// Formula: min(initial * multiplier^attempt, max), attempt counted from 0.
func ComputeDelay(attempt int, initial, max time.Duration, multiplier float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(initial)
	for i := 0; i < attempt; i++ {
		delay *= multiplier
		if delay >= float64(max) {
			return max
		}
	}

	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}

// Delay returns the policy's backoff for the given attempt, with jitter
// applied when enabled.
func (p Policy) Delay(attempt int) time.Duration {
	d := ComputeDelay(attempt, p.InitialDelay, p.MaxDelay, p.Multiplier)
	if p.Jitter && d > 0 {
		d -= time.Duration(rand.Int63n(int64(d)/10 + 1))
	}
	return d
}

// Do invokes fn under the policy's retry budget. Retriable failures are
// retried after the computed backoff until the budget is exhausted;
// terminal failures propagate immediately. Returns the number of failed
// attempts alongside the final error, so callers can persist a retry
// count. A nil error means fn eventually succeeded.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) (int, error) {
	attempts := 0

	for {
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}

		attempts++

		if Classify(err) == ClassTerminal {
			return attempts, err
		}

		if attempts >= p.MaxRetries {
			return attempts, fmt.Errorf("retries exhausted after %d attempts: %w", attempts, err)
		}

		// Back off before the next attempt; attempt index is the number
		// of failures so far minus one.
		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(p.Delay(attempts - 1)):
		}
	}
}
