package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCausality is returned when simulation time fails to strictly advance.
	// It is fatal to the run that raised it.
	ErrCausality = errors.New("time did not advance")

	// ErrNotInitialized is returned when a clock is read before it was set.
	ErrNotInitialized = errors.New("clock has not been initialized")

	// ErrEarlyTermination ends a run before its series is exhausted.
	ErrEarlyTermination = errors.New("run terminated early")

	// ErrMaturityReached ends a run once the strategy reached its maturity.
	ErrMaturityReached = errors.New("strategy maturity reached")

	// ErrExecutionFailed reports a failure to route or fill an order.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrAnalyticsFailed reports a failure to collect or summarize a run.
	ErrAnalyticsFailed = errors.New("analytics failed")
)

// CausalityError carries the offending timestamps of a non-monotonic update.
type CausalityError struct {
	Current time.Time
	Next    time.Time
}

func (e *CausalityError) Error() string {
	return fmt.Sprintf("going backward in time: %s is not after %s",
		e.Next.Format(time.RFC3339Nano), e.Current.Format(time.RFC3339Nano))
}

// Is makes errors.Is(err, ErrCausality) match.
func (e *CausalityError) Is(target error) bool {
	return target == ErrCausality
}

// IsEndOfRun reports whether err is one of the signals that end a run cleanly.
func IsEndOfRun(err error) bool {
	return errors.Is(err, ErrEarlyTermination) || errors.Is(err, ErrMaturityReached)
}
