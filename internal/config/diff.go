// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
)

// ChangeSummary describes the difference between two effective configs.
type ChangeSummary struct {
	ChangedFields   []string `json:"changed_fields"`
	RestartRequired bool     `json:"restart_required"`
}

// hotReloadAllowlist names the fields confd may apply without a restart of
// the training engine. Everything else (dataset layout, model architecture,
// optimizer settings) is baked into a running job and needs a fresh start.
var hotReloadAllowlist = map[string]bool{
	"LogLevel":  true,
	"Debugging": true,

	"Postprocessing.RemoveNoiseThr":        true,
	"Postprocessing.BinarizePredictionThr": true,
	"Postprocessing.KeepLargest":           true,
	"Postprocessing.FillHoles":             true,
	"Postprocessing.RemoveSmall.Unit":      true,
	"Postprocessing.RemoveSmall.Thr":       true,
	"Postprocessing.Uncertainty.Thr":       true,
	"Postprocessing.Uncertainty.Suffix":    true,

	"Uncertainty.Epistemic": true,
	"Uncertainty.Aleatoric": true,
	"Uncertainty.NIt":       true,

	"WandB.ProjectName": true,
	"WandB.GroupName":   true,
	"WandB.RunName":     true,
	"WandB.LogGradHist": true,
}

// Diff compares two effective configs field by field.
func Diff(prev, next *AppConfig) ChangeSummary {
	var summary ChangeSummary
	compareStruct("", reflect.ValueOf(*prev), reflect.ValueOf(*next), &summary.ChangedFields)

	for _, f := range summary.ChangedFields {
		if !hotReloadAllowlist[f] {
			summary.RestartRequired = true
			break
		}
	}
	return summary
}

func compareStruct(prefix string, prev, next reflect.Value, changed *[]string) {
	t := prev.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if prefix != "" {
			fieldPath = prefix + "." + f.Name
		}

		ov, nv := prev.Field(i), next.Field(i)
		if f.Type.Kind() == reflect.Struct {
			compareStruct(fieldPath, ov, nv, changed)
			continue
		}

		if !reflect.DeepEqual(ov.Interface(), nv.Interface()) {
			*changed = append(*changed, fieldPath)
		}
	}
}

// String renders the summary for logs.
func (s ChangeSummary) String() string {
	if len(s.ChangedFields) == 0 {
		return "no changes"
	}
	verdict := "hot-reloadable"
	if s.RestartRequired {
		verdict = "restart required"
	}
	return fmt.Sprintf("%d field(s) changed (%s)", len(s.ChangedFields), verdict)
}
