// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
)

// MigrationChange describes one rewrite applied to a document.
type MigrationChange struct {
	Field   string `json:"field"`
	Action  string `json:"action"` // "renamed", "converted", "stamped"
	Old     string `json:"old,omitempty"`
	New     string `json:"new,omitempty"`
	Message string `json:"message,omitempty"`
}

// MigrateDocument rewrites a raw v1 document in place to the current schema
// and returns the list of changes. Running it on an already-current document
// is a no-op (the returned list is empty when nothing but the version stamp
// was already present).
func MigrateDocument(raw map[string]any) ([]MigrationChange, error) {
	var changes []MigrationChange

	// gpu (scalar or list) -> gpu_ids (list)
	if v, ok := raw["gpu"]; ok {
		ids, err := coerceIntList(v)
		if err != nil {
			return nil, fmt.Errorf("migrate gpu: %w", err)
		}
		raw["gpu_ids"] = ids
		delete(raw, "gpu")
		changes = append(changes, MigrationChange{
			Field: "gpu", Action: "converted", New: "gpu_ids",
			Message: "scalar device id becomes a one-element list",
		})
	}

	// log_directory -> path_output
	if v, ok := raw["log_directory"]; ok {
		raw["path_output"] = v
		delete(raw, "log_directory")
		changes = append(changes, MigrationChange{Field: "log_directory", Action: "renamed", New: "path_output"})
	}

	// bids_path (string) -> loader_parameters.path_data ([string]).
	// The legacy key appeared both at the root and inside loader_parameters.
	if v, ok := raw["bids_path"]; ok {
		if err := liftBidsPath(raw, v); err != nil {
			return nil, err
		}
		delete(raw, "bids_path")
		changes = append(changes, MigrationChange{
			Field: "bids_path", Action: "converted", New: "loader_parameters.path_data",
			Message: "single dataset root becomes a one-element list",
		})
	}
	if loader, ok := raw["loader_parameters"].(map[string]any); ok {
		if v, ok := loader["bids_path"]; ok {
			if err := liftBidsPath(raw, v); err != nil {
				return nil, err
			}
			delete(loader, "bids_path")
			changes = append(changes, MigrationChange{
				Field: "loader_parameters.bids_path", Action: "converted",
				New: "loader_parameters.path_data",
			})
		}
	}

	if split, ok := raw["split_dataset"].(map[string]any); ok {
		// method -> split_method
		if v, ok := split["method"]; ok {
			split["split_method"] = v
			delete(split, "method")
			changes = append(changes, MigrationChange{
				Field: "split_dataset.method", Action: "renamed", New: "split_dataset.split_method",
			})
		}
		// center_test -> data_testing.data_value (data_type pinned to institution_id)
		if v, ok := split["center_test"]; ok {
			dt := ensureSection(split, "data_testing")
			if _, exists := dt["data_value"]; !exists {
				dt["data_value"] = v
			}
			if _, exists := dt["data_type"]; !exists {
				dt["data_type"] = "institution_id"
			}
			delete(split, "center_test")
			changes = append(changes, MigrationChange{
				Field: "split_dataset.center_test", Action: "converted",
				New: "split_dataset.data_testing.data_value",
			})
		}
	}

	// eval_params -> evaluation_parameters
	if v, ok := raw["eval_params"]; ok {
		raw["evaluation_parameters"] = v
		delete(raw, "eval_params")
		changes = append(changes, MigrationChange{Field: "eval_params", Action: "renamed", New: "evaluation_parameters"})
	}

	if version, _ := raw["config_version"].(string); version != CurrentConfigVersion {
		raw["config_version"] = CurrentConfigVersion
		changes = append(changes, MigrationChange{
			Field: "config_version", Action: "stamped",
			Old: version, New: CurrentConfigVersion,
		})
	}

	return changes, nil
}

func liftBidsPath(raw map[string]any, v any) error {
	path, ok := v.(string)
	if !ok {
		return fmt.Errorf("migrate bids_path: expected string, got %T", v)
	}
	loader := ensureSection(raw, "loader_parameters")
	if _, exists := loader["path_data"]; !exists {
		loader["path_data"] = []any{path}
	}
	return nil
}

func ensureSection(raw map[string]any, key string) map[string]any {
	if section, ok := raw[key].(map[string]any); ok {
		return section
	}
	section := make(map[string]any)
	raw[key] = section
	return section
}

// coerceIntList accepts a JSON number, a numeric string, or a list of numbers.
func coerceIntList(v any) ([]any, error) {
	switch n := v.(type) {
	case float64:
		return []any{int(n)}, nil
	case int:
		return []any{n}, nil
	case string:
		ids, err := ParseGPUIDs(n)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = id
		}
		return out, nil
	case []any:
		return n, nil
	default:
		return nil, fmt.Errorf("expected number, string or list, got %T", v)
	}
}

// SummarizeChanges renders the change list for terminal output.
func SummarizeChanges(changes []MigrationChange) string {
	if len(changes) == 0 {
		return "document already current, no changes"
	}
	lines := make([]string, len(changes))
	for i, c := range changes {
		switch c.Action {
		case "stamped":
			lines[i] = fmt.Sprintf("%s: %q -> %q", c.Field, c.Old, c.New)
		default:
			lines[i] = fmt.Sprintf("%s -> %s", c.Field, c.New)
		}
	}
	return strings.Join(lines, "\n")
}
