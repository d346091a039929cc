package policy

import (
	"fmt"
	"strings"
	"time"
)

// DefaultKeepMarker is the name token that exempts a snapshot from deletion
// while it is inside the normal retention window.
const DefaultKeepMarker = "keep"

// Classification is the retention verdict for one snapshot. It is recomputed
// on every run from the current time and policy; never persisted.
type Classification int

const (
	// RetainInWindow means the snapshot is too young to be considered at all.
	RetainInWindow Classification = iota
	// KeepFlagged means the snapshot is old enough to delete but carries the
	// keep marker in its name. Surfaced for human review, not silently kept.
	KeepFlagged
	// DeleteEligible means the snapshot should be deleted this run.
	DeleteEligible
)

func (c Classification) String() string {
	switch c {
	case KeepFlagged:
		return "keep-flagged"
	case DeleteEligible:
		return "delete-eligible"
	default:
		return "retain-in-window"
	}
}

// RetentionPolicy decides which snapshots are old enough to remove.
//
// Fields:
//   - Days: minimum age in days before a snapshot becomes delete-eligible.
//   - MaxDays: hard ceiling; past this age a snapshot is deleted regardless
//     of the keep marker.
//   - KeepMarker: case-insensitive substring that exempts a snapshot from
//     deletion while its age is between Days and MaxDays.
//
// The JSON tags double as the custom-attribute keys for per-VM overrides.
type RetentionPolicy struct {
	Days       int    `json:"x-snapjanitor-days"`
	MaxDays    int    `json:"x-snapjanitor-max-days"`
	KeepMarker string `json:"x-snapjanitor-keep-marker"`
}

// Normalize validates the policy and applies defaults.
//
// Days >= MaxDays is rejected outright: it would make the keep-marker window
// unreachable and silently turn the marker into a no-op, which is exactly the
// kind of configuration surprise a destructive tool should refuse to run with.
func (p *RetentionPolicy) Normalize() error {
	if p.KeepMarker == "" {
		p.KeepMarker = DefaultKeepMarker
	}
	if p.Days <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", p.Days)
	}
	if p.MaxDays <= 0 {
		return fmt.Errorf("retention max-days must be positive, got %d", p.MaxDays)
	}
	if p.Days >= p.MaxDays {
		return fmt.Errorf("retention days (%d) must be strictly below max-days (%d)", p.Days, p.MaxDays)
	}
	return nil
}

// Classify maps one snapshot to its retention verdict.
//
// Evaluation order matters and is fixed:
//  1. Ceiling: older than MaxDays is delete-eligible unconditionally; the
//     keep marker is deliberately ignored past the ceiling.
//  2. Window, unmarked: older than Days without the marker is delete-eligible.
//  3. Window, marked: older than Days with the marker is keep-flagged.
//  4. Anything younger stays retain-in-window.
//
// Boundaries are strict: a snapshot aged exactly Days or exactly MaxDays has
// not yet crossed; one second over flips the verdict.
func (p RetentionPolicy) Classify(now time.Time, created time.Time, name string) Classification {
	age := now.Sub(created)
	floor := time.Duration(p.Days) * 24 * time.Hour
	ceiling := time.Duration(p.MaxDays) * 24 * time.Hour

	switch {
	case age > ceiling:
		return DeleteEligible
	case age > floor && !p.hasKeepMarker(name):
		return DeleteEligible
	case age > floor:
		return KeepFlagged
	default:
		return RetainInWindow
	}
}

// hasKeepMarker reports whether the snapshot name contains the keep marker,
// case-insensitively. An empty marker never matches (strings.Contains would
// otherwise match every name).
func (p RetentionPolicy) hasKeepMarker(name string) bool {
	if p.KeepMarker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(p.KeepMarker))
}
