// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Configuration fields
	FieldConfigPath    = "config_path"
	FieldConfigVersion = "config_version"
	FieldField         = "field"
	FieldCommand       = "command"
	FieldModel         = "model"
	FieldKey           = "key"
	FieldSource        = "source"
)
