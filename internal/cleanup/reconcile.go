package cleanup

import (
	"context"
	"fmt"
	"log/slog"
)

// StillPresentReason is the recorded failure detail when a snapshot the
// executor reported deleted shows up again in the post-batch enumeration.
const StillPresentReason = "post-delete verification: still present"

// reconcile re-enumerates the scope after the delete pass and corrects the
// executor's verdicts in place: a snapshot marked deleted that is still
// present gets reclassified as failed. The remote delete call succeeding does
// not guarantee the object is gone (eventual consistency, partial failure,
// silent no-op), so this is the step that actually enforces the "nothing
// reported deleted may still exist" invariant.
//
// The fresh enumeration is also the report's RemainingAfterRun set and is
// produced unconditionally, dry run included.
func (e *Engine) reconcile(ctx context.Context, scope Scope, results []ExecutionResult, log *slog.Logger) ([]Snapshot, error) {
	remaining, err := e.Service.ListSnapshots(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("post-batch enumeration failed for scope %s/%s: %w", scope.Datacenter, scope.Folder, err)
	}

	present := make(map[string]bool, len(remaining))
	for _, snap := range remaining {
		present[snap.ID] = true
	}

	for i := range results {
		r := &results[i]
		if !r.ActuallyDeleted || !present[r.Snapshot.ID] {
			continue
		}
		r.ActuallyDeleted = false
		r.FailureReason = StillPresentReason
		log.Error("Reconciliation mismatch: deleted snapshot still present",
			"snapshot_id", r.Snapshot.ID, "snapshot_name", r.Snapshot.Name, "vm", r.Snapshot.VMName)
	}

	return remaining, nil
}
