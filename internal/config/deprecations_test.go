// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"testing"
)

func TestCheckDeprecationsStrict(t *testing.T) {
	raw := map[string]any{
		"gpu":     0,
		"command": "train",
	}

	err := CheckDeprecations(raw, true)
	if !errors.Is(err, ErrLegacyConfigField) {
		t.Fatalf("expected ErrLegacyConfigField, got %v", err)
	}
}

func TestCheckDeprecationsNonStrict(t *testing.T) {
	raw := map[string]any{"log_directory": "out"}

	if err := CheckDeprecations(raw, false); err != nil {
		t.Fatalf("non-strict mode must not error, got %v", err)
	}
}

func TestCheckDeprecationsCleanDocument(t *testing.T) {
	raw := map[string]any{
		"command":     "train",
		"gpu_ids":     []any{0},
		"path_output": "out",
	}

	if err := CheckDeprecations(raw, true); err != nil {
		t.Fatalf("clean document must pass, got %v", err)
	}
}

func TestCheckDeprecationsNestedKey(t *testing.T) {
	raw := map[string]any{
		"split_dataset": map[string]any{
			"method": "per_patient",
		},
	}

	err := CheckDeprecations(raw, true)
	if !errors.Is(err, ErrLegacyConfigField) {
		t.Fatalf("expected nested legacy key to be detected, got %v", err)
	}
}

func TestCheckDeprecationsIgnoresPrefixCollision(t *testing.T) {
	// A scalar where a section is expected must not match nested legacy keys.
	raw := map[string]any{"split_dataset": "oops"}

	if err := CheckDeprecations(raw, true); err != nil {
		t.Fatalf("expected no match, got %v", err)
	}
}

func TestDeprecationsRegistryComplete(t *testing.T) {
	for _, d := range Deprecations() {
		if d.OldField == "" || d.NewField == "" {
			t.Errorf("deprecation entry missing fields: %+v", d)
		}
		if d.DeprecatedSince == "" || d.RemovalVersion == "" {
			t.Errorf("deprecation %s missing version metadata", d.OldField)
		}
	}
}
