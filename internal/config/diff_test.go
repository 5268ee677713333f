// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffNoChanges(t *testing.T) {
	a := baseConfig(t)
	b := baseConfig(t)

	summary := Diff(a, b)
	assert.Empty(t, summary.ChangedFields)
	assert.False(t, summary.RestartRequired)
	assert.Equal(t, "no changes", summary.String())
}

func TestDiffHotReloadableChange(t *testing.T) {
	a := baseConfig(t)
	b := baseConfig(t)
	b.LogLevel = "debug"
	b.Postprocessing.BinarizePredictionThr = 0.7

	summary := Diff(a, b)
	assert.ElementsMatch(t,
		[]string{"LogLevel", "Postprocessing.BinarizePredictionThr"},
		summary.ChangedFields)
	assert.False(t, summary.RestartRequired)
}

func TestDiffRestartRequired(t *testing.T) {
	a := baseConfig(t)
	b := baseConfig(t)
	b.Training.BatchSize = 4

	summary := Diff(a, b)
	require.Contains(t, summary.ChangedFields, "Training.BatchSize")
	assert.True(t, summary.RestartRequired)
}

func TestDiffMixedChanges(t *testing.T) {
	a := baseConfig(t)
	b := baseConfig(t)
	b.Debugging = true           // hot
	b.Model.Name = "FiLMedUnet"  // restart
	b.WandB.RunName = "exp-0042" // hot

	summary := Diff(a, b)
	assert.Len(t, summary.ChangedFields, 3)
	assert.True(t, summary.RestartRequired)
}

func TestDiffDetectsSliceAndMapChanges(t *testing.T) {
	a := baseConfig(t)
	b := baseConfig(t)
	b.GPUIDs = []int{0, 1}
	b.Transformation = map[string]TransformParams{"RandomAffine": {}}

	summary := Diff(a, b)
	assert.Contains(t, summary.ChangedFields, "GPUIDs")
	assert.Contains(t, summary.ChangedFields, "Transformation")
	assert.True(t, summary.RestartRequired)
}
