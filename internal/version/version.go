// SPDX-License-Identifier: MIT

// Package version carries build metadata injected via -ldflags.
package version

var (
	// Version is the semantic version of the build ("dev" for local builds).
	Version = "dev"
	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)
