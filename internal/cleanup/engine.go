package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pmohandas/vsphere-snapjanitor/internal/policy"
)

// Engine runs the classify → delete → reconcile → report pipeline for one
// scope. Classification and the report build are pure; only the executor and
// the two enumerations touch the outside world, all through Service.
type Engine struct {
	Service SnapshotService
	Policy  policy.RetentionPolicy
	// Overrides maps VM ids to per-VM retention policies that replace Policy
	// for that VM's snapshots. Callers must pass only validated policies.
	Overrides map[string]policy.RetentionPolicy

	// DryRun computes and reports intended deletions without performing them.
	DryRun bool
	// Endpoint identifies the management endpoint in the report headline.
	Endpoint string
	// Workers bounds the parallel delete attempts. Values below 1 mean
	// sequential execution.
	Workers int
	// CallTimeout limits each individual delete call; exceeding it records a
	// timeout failure for that snapshot instead of hanging the batch.
	CallTimeout time.Duration

	// Now is the injected clock; defaults to time.Now (UTC).
	Now func() time.Time
	// RunID correlates log lines and the report; generated when empty.
	RunID string

	Logger *slog.Logger
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Run executes one full cleanup pass over the scope and returns its report.
//
// Error semantics follow the per-snapshot isolation rule: individual delete
// failures are recorded in the report, never returned. Only enumeration
// failures (pre- or post-batch) are fatal for the scope and surface as an
// error with no report.
func (e *Engine) Run(ctx context.Context, scope Scope) (*Report, error) {
	pol := e.Policy
	if err := pol.Normalize(); err != nil {
		return nil, fmt.Errorf("retention policy rejected: %w", err)
	}

	runID := e.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-%s", uuid.New().String())
	}
	now := e.now()
	log := e.logger().With("run_id", runID, "datacenter", scope.Datacenter, "folder", scope.Folder, "dry_run", e.DryRun)

	// 1. Enumerate the current snapshot population.
	observed, err := e.Service.ListSnapshots(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("snapshot enumeration failed for scope %s/%s: %w", scope.Datacenter, scope.Folder, err)
	}
	log.Info("Snapshot enumeration completed", "count", len(observed))

	// 2. Classify. Pure map over the observed list; retained-in-window
	// snapshots drop out of the report's deleted/kept sets entirely.
	var eligible, keepFlagged []Snapshot
	for _, snap := range observed {
		effective := pol
		if override, ok := e.Overrides[snap.VMID]; ok {
			effective = override
		}
		verdict := effective.Classify(now, snap.CreatedAt, snap.Name)
		switch verdict {
		case policy.DeleteEligible:
			eligible = append(eligible, snap)
		case policy.KeepFlagged:
			keepFlagged = append(keepFlagged, snap)
			log.Info("Snapshot kept by marker, flagged for review",
				"snapshot_id", snap.ID, "snapshot_name", snap.Name, "vm", snap.VMName)
		}
	}
	log.Info("Classification completed",
		"eligible", len(eligible), "kept_flagged", len(keepFlagged),
		"retained_in_window", len(observed)-len(eligible)-len(keepFlagged))

	// 3. Delete pass. deleteBatch joins all workers before returning, which
	// is the barrier the reconciliation step depends on for a stable view.
	results := e.deleteBatch(ctx, eligible, log)

	// 4. Reconcile against a fresh enumeration. Runs in dry-run mode too:
	// it is what fills RemainingAfterRun, and with nothing actually deleted
	// the reclassification is a natural no-op there.
	remaining, err := e.reconcile(ctx, scope, results, log)
	if err != nil {
		return nil, err
	}

	report := BuildReport(RunMeta{
		RunID:      runID,
		Endpoint:   e.Endpoint,
		Scope:      scope,
		Timestamp:  now,
		DryRun:     e.DryRun,
		NoneInAge:  len(eligible) == 0 && len(keepFlagged) == 0,
		ScannedPre: len(observed),
	}, keepFlagged, results, remaining)

	log.Info("Cleanup run completed",
		"deleted_or_would_delete", len(report.DeletedOrWouldDelete),
		"kept_flagged", len(report.KeptFlagged),
		"failed", len(report.Failed),
		"remaining", len(report.RemainingAfterRun))

	return report, nil
}
