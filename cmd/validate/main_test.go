// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validDoc = `{
  "command": "train",
  "gpu_ids": [0],
  "path_output": "out",
  "model_name": "cli_model",
  "loader_parameters": {
    "path_data": ["data"],
    "target_suffix": ["_seg-manual"],
    "contrast_params": {"training_validation": ["T2w"], "testing": ["T2w"]}
  }
}`

func TestRunValidDocument(t *testing.T) {
	path := writeDoc(t, validDoc)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, nil, &stdout, &stderr)

	assert.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "valid")
}

func TestRunInvalidDocument(t *testing.T) {
	path := writeDoc(t, `{
	  "command": "deploy",
	  "loader_parameters": {"path_data": ["data"], "target_suffix": ["_seg"]}
	}`)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "command")
}

func TestRunUnknownField(t *testing.T) {
	path := writeDoc(t, `{"comand": "train"}`)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "comand")
}

func TestRunLegacyDocument(t *testing.T) {
	path := writeDoc(t, `{"gpu": 0}`)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path}, nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "ivadoconf-migrate")
}

func TestRunMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", filepath.Join(t.TempDir(), "nope.json")}, nil, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestRunNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, nil, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "usage")
}

func TestRunEffectiveOutput(t *testing.T) {
	path := writeDoc(t, validDoc)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path, "-effective"}, nil, &stdout, &stderr)

	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), `"cli_model"`)
	assert.Contains(t, stdout.String(), `"DiceLoss"`)
}

func TestRunStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "-"}, strings.NewReader(validDoc), &stdout, &stderr)

	assert.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "valid")
}

func TestRunStdinYAML(t *testing.T) {
	doc := `
command: segment
path_output: out
model_name: seg_model
`
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "-", "-format", "yaml"}, strings.NewReader(doc), &stdout, &stderr)
	assert.Equal(t, 0, code, "stderr: %s", stderr.String())
}

func TestRunQuiet(t *testing.T) {
	path := writeDoc(t, validDoc)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", path, "-quiet"}, nil, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
}
