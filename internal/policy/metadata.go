package policy

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// ParseJanitorMetadata is a generic helper to unmarshal a map[string]string
// into a strongly-typed policy struct using JSON tags.
// It uses weak typing to handle string-to-int/bool conversions.
func ParseJanitorMetadata[T any](metadata map[string]string) (*T, error) {
	var result T

	config := &mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
		TagName:          "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(metadata); err != nil {
		return nil, err
	}

	return &result, nil
}

// retentionOverride mirrors RetentionPolicy with pointer fields so absent
// custom-attribute keys can be told apart from explicit zero values.
type retentionOverride struct {
	Days       *int    `json:"x-snapjanitor-days"`
	MaxDays    *int    `json:"x-snapjanitor-max-days"`
	KeepMarker *string `json:"x-snapjanitor-keep-marker"`
}

// FromAttributes layers per-VM custom-attribute overrides on top of a base
// policy and validates the result. Attributes other than the x-snapjanitor-*
// keys are ignored. An invalid combined policy is returned as an error so the
// caller can fall back to the base policy rather than run with a broken one.
func FromAttributes(base RetentionPolicy, attrs map[string]string) (RetentionPolicy, error) {
	override, err := ParseJanitorMetadata[retentionOverride](attrs)
	if err != nil {
		return base, fmt.Errorf("parsing retention override attributes: %w", err)
	}

	merged := base
	if override.Days != nil {
		merged.Days = *override.Days
	}
	if override.MaxDays != nil {
		merged.MaxDays = *override.MaxDays
	}
	if override.KeepMarker != nil {
		merged.KeepMarker = *override.KeepMarker
	}

	if err := merged.Normalize(); err != nil {
		return base, fmt.Errorf("invalid retention override: %w", err)
	}
	return merged, nil
}
