// SPDX-License-Identifier: MIT

// Package config loads, validates and serves the ivadomed training
// configuration document.
//
// The effective configuration is assembled in three layers with increasing
// precedence: registry defaults, the JSON/YAML document, and IVADO_*
// environment variables. Unknown document keys are rejected; keys renamed in
// earlier schema versions produce an error pointing at ivadoconf-migrate.
//
// The registry (registry.go) is the single inventory of every option:
// document path, environment variable, runtime field and default. A test
// asserts that every AppConfig field is registered, so adding a field without
// deciding its default and env mapping fails CI.
package config
