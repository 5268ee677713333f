// SPDX-License-Identifier: MIT

package config

const (
	// CurrentConfigVersion is the document schema version this toolkit
	// produces and validates. Documents without a config_version are
	// treated as current once they pass the legacy-key check.
	CurrentConfigVersion = "2.0"
)

// EffectiveConfigVersion returns a stable config version for serialization.
func EffectiveConfigVersion(cfg AppConfig) string {
	if cfg.ConfigVersion != "" {
		return cfg.ConfigVersion
	}
	return CurrentConfigVersion
}
