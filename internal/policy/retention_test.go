package policy

import (
	"testing"
	"time"
)

func TestRetentionPolicy_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		input      RetentionPolicy
		wantErr    bool
		wantMarker string
	}{
		{
			name:       "Happy Path",
			input:      RetentionPolicy{Days: 15, MaxDays: 30, KeepMarker: "KEEP"},
			wantErr:    false,
			wantMarker: "KEEP",
		},
		{
			name:       "Default Keep Marker",
			input:      RetentionPolicy{Days: 15, MaxDays: 30},
			wantErr:    false,
			wantMarker: "keep",
		},
		{
			name:    "Zero Days",
			input:   RetentionPolicy{Days: 0, MaxDays: 30},
			wantErr: true,
		},
		{
			name:    "Zero MaxDays",
			input:   RetentionPolicy{Days: 15, MaxDays: 0},
			wantErr: true,
		},
		{
			name:    "Days Equal MaxDays",
			input:   RetentionPolicy{Days: 30, MaxDays: 30},
			wantErr: true,
		},
		{
			name:    "Days Above MaxDays",
			input:   RetentionPolicy{Days: 45, MaxDays: 30},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.input
			err := policy.Normalize()

			if (err != nil) != tt.wantErr {
				t.Errorf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && policy.KeepMarker != tt.wantMarker {
				t.Errorf("KeepMarker = %q, want %q", policy.KeepMarker, tt.wantMarker)
			}
		})
	}
}

func TestRetentionPolicy_Classify(t *testing.T) {
	// Fixed reference time; snapshots are expressed as ages relative to it.
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	policy := RetentionPolicy{Days: 15, MaxDays: 30, KeepMarker: "keep"}
	if err := policy.Normalize(); err != nil {
		t.Fatalf("Normalize() failed: %v", err)
	}

	tests := []struct {
		name     string
		age      time.Duration
		snapName string
		want     Classification
	}{
		{
			name:     "Young Snapshot Inside Window",
			age:      10 * 24 * time.Hour,
			snapName: "nightly",
			want:     RetainInWindow,
		},
		{
			name:     "Aged Out Unmarked",
			age:      20 * 24 * time.Hour,
			snapName: "nightly",
			want:     DeleteEligible,
		},
		{
			name:     "Aged Out With Keep Marker",
			age:      20 * 24 * time.Hour,
			snapName: "KEEP-before-patch",
			want:     KeepFlagged,
		},
		{
			name:     "Past Ceiling Overrides Keep Marker",
			age:      35 * 24 * time.Hour,
			snapName: "KEEP-before-patch",
			want:     DeleteEligible,
		},
		{
			name:     "Exactly Days Old Is Not Eligible",
			age:      15 * 24 * time.Hour,
			snapName: "nightly",
			want:     RetainInWindow,
		},
		{
			name:     "One Second Past Days Flips",
			age:      15*24*time.Hour + time.Second,
			snapName: "nightly",
			want:     DeleteEligible,
		},
		{
			name:     "Exactly MaxDays Old With Marker Stays Flagged",
			age:      30 * 24 * time.Hour,
			snapName: "keep-forever",
			want:     KeepFlagged,
		},
		{
			name:     "One Second Past MaxDays Ignores Marker",
			age:      30*24*time.Hour + time.Second,
			snapName: "keep-forever",
			want:     DeleteEligible,
		},
		{
			name:     "Marker Match Is Case Insensitive",
			age:      20 * 24 * time.Hour,
			snapName: "pre-upgrade-Keep-me",
			want:     KeepFlagged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := now.Add(-tt.age)
			got := policy.Classify(now, created, tt.snapName)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}

			// Classification is a pure function; a second call with identical
			// inputs must agree.
			if again := policy.Classify(now, created, tt.snapName); again != got {
				t.Errorf("Classify() not deterministic: first %v, second %v", got, again)
			}
		})
	}
}

func TestRetentionPolicy_FromAttributes(t *testing.T) {
	base := RetentionPolicy{Days: 15, MaxDays: 30, KeepMarker: "keep"}

	tests := []struct {
		name    string
		attrs   map[string]string
		want    RetentionPolicy
		wantErr bool
	}{
		{
			name:  "No Overrides",
			attrs: map[string]string{"unrelated": "value"},
			want:  base,
		},
		{
			name:  "Override Days And Marker",
			attrs: map[string]string{"x-snapjanitor-days": "7", "x-snapjanitor-keep-marker": "pin"},
			want:  RetentionPolicy{Days: 7, MaxDays: 30, KeepMarker: "pin"},
		},
		{
			name:    "Invalid Override Falls Back",
			attrs:   map[string]string{"x-snapjanitor-days": "90"},
			want:    base,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAttributes(base, tt.attrs)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromAttributes() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("FromAttributes() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
