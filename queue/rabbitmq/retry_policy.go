package rabbitmq

import (
	"time"
)

// Default values
const (
	DefaultRetryInterval = 100 * time.Millisecond
	DefaultMaxInterval   = time.Minute
	DefaultMaxAttempts   = 20
)

// RetryPolicy of dialer reconnection.
type RetryPolicy interface {
	TryNum(i int) (duration time.Duration, stop bool)
}

// Backoff doubles the interval after every attempt up to max and gives up after attempts.
type Backoff struct {
	base     time.Duration
	max      time.Duration
	attempts int
}

// NewDefaultBackoff returns Backoff with default values.
func NewDefaultBackoff() *Backoff {
	return NewBackoff(DefaultRetryInterval, DefaultMaxInterval, DefaultMaxAttempts)
}

// NewBackoff panics on zero values: they are programming errors.
func NewBackoff(base, max time.Duration, attempts int) *Backoff {
	if base <= 0 {
		panic("interval should be positive")
	}
	if max < base {
		panic("max interval should not be less than interval")
	}
	if attempts <= 0 {
		panic("attempts should be positive")
	}
	return &Backoff{base: base, max: max, attempts: attempts}
}

// TryNum for use in for loop. tryNum is the zero-based number of the failed attempt.
func (b *Backoff) TryNum(tryNum int) (time.Duration, bool) {
	if tryNum >= b.attempts {
		return 0, true
	}

	interval := b.base
	for i := 0; i < tryNum && interval < b.max; i++ {
		interval *= 2
	}
	if interval > b.max {
		interval = b.max
	}
	return interval, false
}
