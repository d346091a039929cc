package vsphere

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/pmohandas/vsphere-snapjanitor/internal/cloud"
	"github.com/vmware/govmomi/task"
	"github.com/vmware/govmomi/vim25/soap"
)

// isRetryable determines if an error is transient and warrants a retry.
//
// vCenter reports two broad failure families: SOAP/vim faults, which mean the
// server understood the request and rejected it (bad argument, missing object,
// insufficient privilege), and transport-level errors (connection reset, DNS,
// timeouts). Only the latter are worth retrying; replaying a request the
// server already rejected just burns the retry budget.
func isRetryable(err error) bool {
	// A completed-but-failed task carries a vim fault. The task state is
	// authoritative; re-submitting it will fail the same way.
	var taskErr task.Error
	if errors.As(err, &taskErr) {
		return false
	}

	// SOAP faults are definitive rejections from the endpoint.
	if soap.IsSoapFault(err) || soap.IsVimFault(err) {
		return false
	}

	// Timeouts on the wire are the classic transient case.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Fallback: anything else that made it here is assumed to be a transient
	// network problem (connection refused, EOF mid-response) and safe to retry,
	// since every destructive call in this package is idempotent at the API
	// level (deleting an absent snapshot faults, it does not corrupt).
	return true
}

// ExecuteAction wraps a function with retry logic: exponential backoff,
// jitter, and a hard operation timeout from the config.
//
// opName is used for logging and debugging purposes.
// operation is the function to execute; it must honor context cancellation.
func ExecuteAction(ctx context.Context, cfg cloud.RetryConfig, opName string, operation func(ctx context.Context) error) error {
	// Enforce the global operation timeout so the retry loop cannot run
	// indefinitely against a wedged endpoint.
	ctx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		// Stop immediately if the context is cancelled or timed out.
		if ctx.Err() != nil {
			return fmt.Errorf("%s timed out before attempt %d: %w", opName, attempt+1, ctx.Err())
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr // Permanent error, fail fast.
		}

		// Last attempt: don't sleep, just report.
		if attempt == cfg.MaxRetries {
			break
		}

		slog.Warn("Transient error detected, scheduling retry",
			"operation", opName,
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"error", lastErr)

		// Backoff: BaseDelay * 2^attempt, plus up to 50% jitter so parallel
		// workers don't hammer the endpoint in lockstep.
		backoff := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
		jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
		sleepDuration := min(time.Duration(backoff)+jitter, cfg.MaxDelay)

		select {
		case <-time.After(sleepDuration):
			continue
		case <-ctx.Done():
			return fmt.Errorf("%s context cancelled during backoff: %w", opName, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w", opName, cfg.MaxRetries, lastErr)
}
