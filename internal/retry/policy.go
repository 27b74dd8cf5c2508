package retry

import (
	"fmt"
	"time"

	"github.com/wadakatu/gitlyte/internal/config"
)

// Policy describes how retries of a transient failure are spaced.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // delay before the first retry
	Max        time.Duration           // ceiling for grown delays
	MaxRetries int                     // retries allowed after the first failure
}

// DefaultPolicy is linear backoff, 1s initial, 30s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy from raw config fields. Zero or invalid values
// keep their defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if mode != "" {
		switch mode {
		case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
			p.Mode = mode
		default:
			// unknown -> keep default
		}
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromPublishConfig derives a policy from the publish retry settings.
func FromPublishConfig(pc config.PublishConfig) Policy {
	initial, _ := time.ParseDuration(pc.RetryInitialDelay)
	maxDelay, _ := time.ParseDuration(pc.RetryMaxDelay)
	return NewPolicy(pc.RetryBackoff, initial, maxDelay, pc.MaxRetries)
}

// Delay computes the wait before retry number retryCount, where the first
// retry is 1.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		// Shifts beyond 30 would overflow; the cap applies long before that.
		if retryCount > 30 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d < p.Initial {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate reports a policy no Delay call could honor.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial delay must be positive")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max delay must be positive")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	return nil
}
