// SPDX-License-Identifier: MIT

package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrLegacyConfigField classifies documents that still carry keys renamed
	// in a previous config version. Running `ivadoconf-migrate` fixes them.
	ErrLegacyConfigField = errors.New("legacy config field")

	// ErrUnsupportedFormat is returned for config files that are neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)
