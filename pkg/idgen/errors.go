package idgen

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrClockMovedBack = errors.New("clock moved backwards")
	ErrInvalidEpoch   = errors.New("invalid epoch")
	ErrInvalidPolicy  = errors.New("invalid regression policy")
	ErrNoDefault      = errors.New("default generator not initialized")
)

// ClockRegressionError reports a clock reading earlier than the last one an
// ID was generated at.
type ClockRegressionError struct {
	Last int64
	Now  int64
}

func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("%v: refusing to generate id for %d milliseconds", ErrClockMovedBack, e.Last-e.Now)
}

func (e *ClockRegressionError) Is(target error) bool {
	return target == ErrClockMovedBack
}

// Backward returns how far the clock moved back.
func (e *ClockRegressionError) Backward() time.Duration {
	return time.Duration(e.Last-e.Now) * time.Millisecond
}

// RegressionPolicy decides what Next does when the clock moves backwards.
type RegressionPolicy string

const (
	// RegressionReject fails the call with a *ClockRegressionError.
	RegressionReject RegressionPolicy = "reject"
	// RegressionWait blocks until the clock catches up, as long as the
	// regression is within the configured MaxBackwardWait.
	RegressionWait RegressionPolicy = "wait"
)

func ParseRegressionPolicy(s string) (RegressionPolicy, error) {
	switch p := RegressionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case RegressionReject, RegressionWait:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}
