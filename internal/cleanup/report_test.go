package cleanup

import (
	"strings"
	"testing"
	"time"
)

func reportMeta(dryRun, noneInAge bool) RunMeta {
	return RunMeta{
		RunID:     "run-test",
		Endpoint:  "vc01.example.com",
		Scope:     Scope{Datacenter: "dc01", Folder: "production"},
		Timestamp: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		DryRun:    dryRun,
		NoneInAge: noneInAge,
	}
}

func TestBuildReport_Headline(t *testing.T) {
	deleted := ExecutionResult{Snapshot: snap("snapshot-1", "nightly", 20), WouldDelete: true, ActuallyDeleted: true}
	would := ExecutionResult{Snapshot: snap("snapshot-1", "nightly", 20), WouldDelete: true}

	tests := []struct {
		name    string
		meta    RunMeta
		results []ExecutionResult
		want    string
	}{
		{
			name:    "Live With Deletions",
			meta:    reportMeta(false, false),
			results: []ExecutionResult{deleted},
			want:    "deleted 1 snapshot(s) in datacenter dc01 (vc01.example.com)",
		},
		{
			name:    "Dry Run With Would-Deletions",
			meta:    reportMeta(true, false),
			results: []ExecutionResult{would},
			want:    "would have deleted 1 snapshot(s) in datacenter dc01 (vc01.example.com)",
		},
		{
			name:    "Eligible But All Failed",
			meta:    reportMeta(false, false),
			results: []ExecutionResult{{Snapshot: snap("snapshot-1", "nightly", 20), WouldDelete: true, FailureReason: "boom"}},
			want:    "no snapshots were deleted in datacenter dc01 (vc01.example.com)",
		},
		{
			name: "Nothing Past Threshold",
			meta: reportMeta(false, true),
			want: "no snapshots found past the age threshold in datacenter dc01 (vc01.example.com)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := BuildReport(tt.meta, nil, tt.results, nil)
			if report.Headline != tt.want {
				t.Errorf("Headline = %q, want %q", report.Headline, tt.want)
			}
		})
	}
}

func TestBuildReport_ContradictionMovedToFailed(t *testing.T) {
	ghost := snap("snapshot-9", "nightly", 20)
	results := []ExecutionResult{
		{Snapshot: ghost, WouldDelete: true, ActuallyDeleted: true},
	}
	// The snapshot claimed deleted is still in the remaining set and the
	// caller never ran reconciliation.
	report := BuildReport(reportMeta(false, false), nil, results, []Snapshot{ghost})

	if len(report.DeletedOrWouldDelete) != 0 {
		t.Errorf("DeletedOrWouldDelete = %v, want empty", ids(report.DeletedOrWouldDelete))
	}
	if len(report.Failed) != 1 || report.Failed[0].Reason != StillPresentReason {
		t.Fatalf("Failed = %+v, want one still-present failure", report.Failed)
	}
}

func TestBuildReport_DryRunKeepsRemainingOverlap(t *testing.T) {
	s := snap("snapshot-1", "nightly", 20)
	results := []ExecutionResult{{Snapshot: s, WouldDelete: true}}

	// In dry-run mode the snapshot legitimately appears in both the
	// would-delete set and the remaining set; that is not a contradiction.
	report := BuildReport(reportMeta(true, false), nil, results, []Snapshot{s})

	if len(report.DeletedOrWouldDelete) != 1 {
		t.Errorf("DeletedOrWouldDelete = %v, want the would-delete entry", ids(report.DeletedOrWouldDelete))
	}
	if len(report.Failed) != 0 {
		t.Errorf("Failed = %+v, want empty", report.Failed)
	}
}

func TestBuildReport_SetsAreSorted(t *testing.T) {
	results := []ExecutionResult{
		{Snapshot: snap("snapshot-3", "nightly", 20), WouldDelete: true, ActuallyDeleted: true},
		{Snapshot: snap("snapshot-1", "nightly", 20), WouldDelete: true, ActuallyDeleted: true},
	}
	report := BuildReport(reportMeta(false, false), nil, results, nil)

	got := strings.Join(ids(report.DeletedOrWouldDelete), ",")
	if got != "snapshot-1,snapshot-3" {
		t.Errorf("DeletedOrWouldDelete order = %s, want snapshot-1,snapshot-3", got)
	}
}
