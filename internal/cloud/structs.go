package cloud

import "time"

// RetryConfig defines the parameters for the exponential backoff and retry
// mechanism used by the vCenter client. It controls how aggressively transient
// API errors are retried before an operation is reported as failed.
type RetryConfig struct {
	// MaxRetries is the maximum number of additional attempts after the initial
	// failure. MaxRetries of 3 means the operation runs at most 4 times.
	MaxRetries int

	// BaseDelay is the initial wait time before the first retry. The wait grows
	// exponentially with each attempt (BaseDelay * 2^attempt).
	BaseDelay time.Duration

	// MaxDelay caps the sleep duration between retries regardless of the
	// exponential calculation.
	MaxDelay time.Duration

	// OperationTimeout limits the entire operation including all retries. When
	// it elapses the context is cancelled regardless of attempts remaining.
	OperationTimeout time.Duration
}
