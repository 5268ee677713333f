// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"path/filepath"
)

// Snapshot is the immutable view handed to the training engine: the effective
// config plus the values derived from it. Derivations live here so the engine
// never recomputes them inconsistently.
type Snapshot struct {
	App     AppConfig      `json:"config"`
	Runtime RuntimeDerived `json:"runtime"`
}

// RuntimeDerived holds values computed from the effective config.
type RuntimeDerived struct {
	// Devices are torch-style device strings ("cuda:0") or ["cpu"] when no
	// GPU is assigned.
	Devices []string `json:"devices"`

	// ValidationFraction is whatever train and test leave over.
	ValidationFraction float64 `json:"validation_fraction"`

	// ModelDir is path_output/model_name, where weights and the frozen
	// config copy land.
	ModelDir string `json:"model_dir"`

	// DataPaths are the dataset roots resolved to absolute paths.
	DataPaths []string `json:"data_paths"`
}

// NewSnapshot derives the runtime view from a validated config.
func NewSnapshot(cfg *AppConfig) (*Snapshot, error) {
	devices := make([]string, 0, len(cfg.GPUIDs))
	for _, id := range cfg.GPUIDs {
		devices = append(devices, fmt.Sprintf("cuda:%d", id))
	}
	if len(devices) == 0 {
		devices = []string{"cpu"}
	}

	dataPaths := make([]string, 0, len(cfg.Loader.PathData))
	for _, p := range cfg.Loader.PathData {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve data path %q: %w", p, err)
		}
		dataPaths = append(dataPaths, abs)
	}

	return &Snapshot{
		App: *cfg,
		Runtime: RuntimeDerived{
			Devices:            devices,
			ValidationFraction: 1 - cfg.Split.TrainFraction - cfg.Split.TestFraction,
			ModelDir:           filepath.Join(cfg.PathOutput, cfg.ModelName),
			DataPaths:          dataPaths,
		},
	}, nil
}

// Masked returns a copy safe to serialize to logs or HTTP responses.
func (s *Snapshot) Masked() Snapshot {
	out := *s
	out.App = MaskSecrets(s.App)
	return out
}
