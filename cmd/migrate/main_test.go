// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDoc = `{
  "gpu": 2,
  "log_directory": "runs/exp1",
  "bids_path": "/data/bids",
  "split_dataset": {"method": "per_patient"}
}`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readRaw(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	raw := make(map[string]any)
	require.NoError(t, json.Unmarshal(data, &raw))
	return raw
}

func TestMigrateInPlace(t *testing.T) {
	path := writeDoc(t, "config.json", legacyDoc)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	raw := readRaw(t, path)
	assert.NotContains(t, raw, "gpu")
	assert.NotContains(t, raw, "log_directory")
	assert.Equal(t, []any{float64(2)}, raw["gpu_ids"])
	assert.Equal(t, "runs/exp1", raw["path_output"])
	assert.Equal(t, "2.0", raw["config_version"])

	split := raw["split_dataset"].(map[string]any)
	assert.Equal(t, "per_patient", split["split_method"])
	assert.NotContains(t, split, "method")
}

func TestMigrateToSeparateOutput(t *testing.T) {
	path := writeDoc(t, "config.json", legacyDoc)
	outPath := filepath.Join(filepath.Dir(path), "migrated.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path, "-o", outPath}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	// Source untouched, output migrated.
	source := readRaw(t, path)
	assert.Contains(t, source, "gpu")

	migrated := readRaw(t, outPath)
	assert.Contains(t, migrated, "gpu_ids")
}

func TestMigrateDryRun(t *testing.T) {
	path := writeDoc(t, "config.json", legacyDoc)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path, "-dry-run"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	assert.Contains(t, stdout.String(), "gpu_ids")
	assert.NotContains(t, stdout.String(), "wrote")

	raw := readRaw(t, path)
	assert.Contains(t, raw, "gpu", "dry-run must not touch the file")
}

func TestMigrateCurrentDocument(t *testing.T) {
	path := writeDoc(t, "config.json", `{"command": "train", "config_version": "2.0"}`)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "no changes")
}

func TestMigrateRejectsUnparseableDocument(t *testing.T) {
	path := writeDoc(t, "config.json", "not json at all")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestMigrateUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "usage")
}
