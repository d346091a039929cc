package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// deleteBatch attempts deletion of every eligible snapshot, each as an
// isolated unit of work: one failure never aborts the rest of the batch.
//
// Attempts run on a bounded worker pool since each call is network-bound and
// order between snapshots carries no meaning. The function returns only after
// every worker has finished, so callers get the post-batch barrier for free.
//
// In dry-run mode no destructive call is issued; the snapshot is recorded as
// would-delete and the intended action is logged for visibility.
func (e *Engine) deleteBatch(ctx context.Context, eligible []Snapshot, log *slog.Logger) []ExecutionResult {
	results := make([]ExecutionResult, len(eligible))

	if e.DryRun {
		for i, snap := range eligible {
			results[i] = ExecutionResult{Snapshot: snap, WouldDelete: true}
			log.Info("Dry run: would delete snapshot",
				"snapshot_id", snap.ID, "snapshot_name", snap.Name,
				"vm", snap.VMName, "created_at", snap.CreatedAt)
		}
		return results
	}

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, snap := range eligible {
		wg.Add(1)
		go func(i int, snap Snapshot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = e.deleteOne(ctx, snap, log)
		}(i, snap)
	}

	wg.Wait()
	return results
}

// deleteOne performs a single live deletion attempt with the per-call
// timeout applied.
func (e *Engine) deleteOne(ctx context.Context, snap Snapshot, log *slog.Logger) ExecutionResult {
	result := ExecutionResult{Snapshot: snap, WouldDelete: true}

	callCtx := ctx
	if e.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.CallTimeout)
		defer cancel()
	}

	err := e.Service.DeleteSnapshot(callCtx, snap.ID)
	switch {
	case err == nil:
		result.ActuallyDeleted = true
		log.Info("Snapshot deleted",
			"snapshot_id", snap.ID, "snapshot_name", snap.Name, "vm", snap.VMName)
	case errors.Is(err, context.DeadlineExceeded):
		result.FailureReason = "timeout: " + err.Error()
		log.Error("Snapshot deletion timed out",
			"snapshot_id", snap.ID, "snapshot_name", snap.Name, "vm", snap.VMName, "error", err)
	default:
		result.FailureReason = err.Error()
		log.Error("Snapshot deletion failed",
			"snapshot_id", snap.ID, "snapshot_name", snap.Name, "vm", snap.VMName, "error", err)
	}

	return result
}
