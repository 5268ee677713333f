// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"

	"github.com/ivadomed/ivadoconf/internal/log"
)

// Deprecation records a document key renamed in a previous config version.
type Deprecation struct {
	OldField        string
	NewField        string
	DeprecatedSince string
	RemovalVersion  string
}

// deprecations lists the v1 keys that v2 renamed. The migrate command applies
// exactly these renames; keep both in sync.
var deprecations = []Deprecation{
	{OldField: "gpu", NewField: "gpu_ids", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
	{OldField: "log_directory", NewField: "path_output", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
	{OldField: "bids_path", NewField: "loader_parameters.path_data", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
	{OldField: "loader_parameters.bids_path", NewField: "loader_parameters.path_data", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
	{OldField: "split_dataset.method", NewField: "split_dataset.split_method", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
	{OldField: "split_dataset.center_test", NewField: "split_dataset.data_testing.data_value", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
	{OldField: "eval_params", NewField: "evaluation_parameters", DeprecatedSince: "2.0", RemovalVersion: "3.0"},
}

// Deprecations returns the registered key renames, oldest first.
func Deprecations() []Deprecation {
	out := make([]Deprecation, len(deprecations))
	copy(out, deprecations)
	return out
}

// CheckDeprecations scans a raw document for legacy keys. In strict mode any
// hit is an error pointing at ivadoconf-migrate; otherwise each hit is logged
// as a warning and loading continues.
func CheckDeprecations(raw map[string]any, strict bool) error {
	var hits []Deprecation
	for _, d := range deprecations {
		if rawHasPath(raw, d.OldField) {
			hits = append(hits, d)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	if strict {
		names := make([]string, len(hits))
		for i, d := range hits {
			names[i] = fmt.Sprintf("%s (renamed to %s)", d.OldField, d.NewField)
		}
		return fmt.Errorf("%w: %s; run `ivadoconf-migrate` to update the document",
			ErrLegacyConfigField, strings.Join(names, ", "))
	}

	logger := log.WithComponent("config")
	for _, d := range hits {
		logger.Warn().
			Str(log.FieldField, d.OldField).
			Str("replacement", d.NewField).
			Str("removal_version", d.RemovalVersion).
			Msg("deprecated config key, run ivadoconf-migrate")
	}
	return nil
}

// rawHasPath reports whether a dotted key path exists in a raw document.
func rawHasPath(raw map[string]any, path string) bool {
	parts := strings.Split(path, ".")
	curr := raw
	for i, p := range parts {
		val, ok := curr[p]
		if !ok {
			return false
		}
		if i == len(parts)-1 {
			return true
		}
		next, ok := val.(map[string]any)
		if !ok {
			return false
		}
		curr = next
	}
	return false
}
