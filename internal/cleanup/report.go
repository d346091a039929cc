package cleanup

import (
	"fmt"
	"sort"
	"time"
)

// RunMeta carries the run metadata the report builder cannot derive from the
// snapshot sets themselves.
type RunMeta struct {
	RunID      string
	Endpoint   string
	Scope      Scope
	Timestamp  time.Time
	DryRun     bool
	// NoneInAge is true when classification found nothing past the age
	// threshold at all (neither eligible nor keep-flagged).
	NoneInAge  bool
	ScannedPre int
}

// BuildReport aggregates classifier and executor/reconciler outputs into the
// final report. Pure and deterministic: no I/O, same inputs same report. Sets
// are sorted by snapshot id for stable output.
//
// Finalization re-enforces the reconciliation invariant as a last line of
// defense: in live mode a snapshot cannot sit in both DeletedOrWouldDelete
// and RemainingAfterRun, so any such contradiction is moved to Failed here
// even if the caller skipped the reconcile step.
func BuildReport(meta RunMeta, keepFlagged []Snapshot, results []ExecutionResult, remaining []Snapshot) *Report {
	report := &Report{
		RunID:             meta.RunID,
		Endpoint:          meta.Endpoint,
		Datacenter:        meta.Scope.Datacenter,
		Folder:            meta.Scope.Folder,
		Timestamp:         meta.Timestamp,
		DryRun:            meta.DryRun,
		KeptFlagged:       append([]Snapshot(nil), keepFlagged...),
		RemainingAfterRun: append([]Snapshot(nil), remaining...),
		ScannedTotal:      meta.ScannedPre,
	}

	present := make(map[string]bool, len(remaining))
	for _, snap := range remaining {
		present[snap.ID] = true
	}

	for _, r := range results {
		switch {
		case r.Failed():
			report.Failed = append(report.Failed, FailedSnapshot{Snapshot: r.Snapshot, Reason: r.FailureReason})
		case !meta.DryRun && r.ActuallyDeleted && present[r.Snapshot.ID]:
			report.Failed = append(report.Failed, FailedSnapshot{Snapshot: r.Snapshot, Reason: StillPresentReason})
		case r.WouldDelete:
			report.DeletedOrWouldDelete = append(report.DeletedOrWouldDelete, r.Snapshot)
			report.ReclaimedMB += r.Snapshot.SizeMB
		}
	}

	sort.Slice(report.DeletedOrWouldDelete, func(i, j int) bool {
		return report.DeletedOrWouldDelete[i].ID < report.DeletedOrWouldDelete[j].ID
	})
	sort.Slice(report.KeptFlagged, func(i, j int) bool {
		return report.KeptFlagged[i].ID < report.KeptFlagged[j].ID
	})
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Snapshot.ID < report.Failed[j].Snapshot.ID
	})
	sort.Slice(report.RemainingAfterRun, func(i, j int) bool {
		return report.RemainingAfterRun[i].ID < report.RemainingAfterRun[j].ID
	})

	report.Headline = headline(meta, len(report.DeletedOrWouldDelete))
	return report
}

// headline selects the report subject line.
func headline(meta RunMeta, deletedCount int) string {
	where := fmt.Sprintf("datacenter %s (%s)", meta.Scope.Datacenter, meta.Endpoint)

	switch {
	case meta.NoneInAge:
		return fmt.Sprintf("no snapshots found past the age threshold in %s", where)
	case meta.DryRun && deletedCount > 0:
		return fmt.Sprintf("would have deleted %d snapshot(s) in %s", deletedCount, where)
	case !meta.DryRun && deletedCount > 0:
		return fmt.Sprintf("deleted %d snapshot(s) in %s", deletedCount, where)
	default:
		return fmt.Sprintf("no snapshots were deleted in %s", where)
	}
}
