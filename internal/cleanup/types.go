package cleanup

import (
	"context"
	"time"
)

// Snapshot is one point-in-time VM snapshot as observed at enumeration time.
// The live system may mutate or delete it concurrently with this view.
type Snapshot struct {
	// ID is the opaque unique snapshot identifier from the management plane.
	ID string `json:"id"`
	// VMID and VMName are a non-owning back-reference to the owning VM.
	VMID   string `json:"vm_id"`
	VMName string `json:"vm_name"`

	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	SizeMB    int64     `json:"size_mb"`
}

// Scope identifies the inventory slice one cleanup run operates on.
type Scope struct {
	Datacenter string `json:"datacenter"`
	Folder     string `json:"folder"`
}

// SnapshotService is the external collaborator the engine drives. Enumeration
// is called twice per run (pre- and post-batch); deletion once per eligible
// snapshot.
type SnapshotService interface {
	ListSnapshots(ctx context.Context, scope Scope) ([]Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// ExecutionResult is the per-snapshot outcome of one attempted deletion.
//
// WouldDelete and ActuallyDeleted are deliberately separate: in dry-run mode
// a snapshot is slated (WouldDelete) without any destructive call ever being
// made, and in live mode a delete call that "succeeded" may later be revoked
// by reconciliation, clearing ActuallyDeleted again.
type ExecutionResult struct {
	Snapshot        Snapshot `json:"snapshot"`
	WouldDelete     bool     `json:"would_delete"`
	ActuallyDeleted bool     `json:"actually_deleted"`
	// FailureReason is empty on success; set it and the result counts as
	// failed regardless of the other flags.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Failed reports whether this attempt ended in a recorded failure.
func (r ExecutionResult) Failed() bool {
	return r.FailureReason != ""
}

// FailedSnapshot pairs a snapshot with the captured failure detail for the
// report.
type FailedSnapshot struct {
	Snapshot Snapshot `json:"snapshot"`
	Reason   string   `json:"reason"`
}

// Report is the structured summary of one cleanup run. The four snapshot
// sets are disjoint; finalization guarantees no id appears in both
// DeletedOrWouldDelete and RemainingAfterRun in live mode.
type Report struct {
	RunID      string    `json:"run_id"`
	Endpoint   string    `json:"endpoint"`
	Datacenter string    `json:"datacenter"`
	Folder     string    `json:"folder"`
	Timestamp  time.Time `json:"timestamp"`
	DryRun     bool      `json:"dry_run"`

	// Headline summarizes the run outcome, parameterized by datacenter and
	// endpoint; carries the explicit nothing-found message when no snapshot
	// was past the age threshold at all.
	Headline string `json:"headline"`

	DeletedOrWouldDelete []Snapshot       `json:"deleted_or_would_delete"`
	KeptFlagged          []Snapshot       `json:"kept_flagged"`
	Failed               []FailedSnapshot `json:"failed"`
	RemainingAfterRun    []Snapshot       `json:"remaining_after_run"`

	// ScannedTotal counts every snapshot seen in the pre-batch enumeration,
	// including those retained as too young.
	ScannedTotal int `json:"scanned_total"`
	// ReclaimedMB sums the sizes of confirmed deletions (or would-be
	// deletions in dry-run mode).
	ReclaimedMB int64 `json:"reclaimed_mb"`
}
