// SPDX-License-Identifier: MIT

package config

import (
	"strings"
	"testing"
)

// baseConfig returns a config that passes validation: registry defaults plus
// the dataset fields no default can supply.
func baseConfig(t *testing.T) *AppConfig {
	t.Helper()

	reg, err := GetRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cfg := &AppConfig{}
	if err := reg.ApplyDefaults(cfg); err != nil {
		t.Fatalf("apply defaults: %v", err)
	}

	cfg.Loader.PathData = []string{"data"}
	cfg.Loader.TargetSuffix = []string{"_seg-manual"}
	cfg.Loader.ContrastParams.TrainingValidation = []string{"T2w"}
	cfg.Loader.ContrastParams.Testing = []string{"T2w"}
	return cfg
}

func TestValidateBaseConfig(t *testing.T) {
	if err := Validate(baseConfig(t)); err != nil {
		t.Fatalf("base config must validate, got: %v", err)
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{
			name:    "unknown command",
			mutate:  func(c *AppConfig) { c.Command = "deploy" },
			wantErr: "command",
		},
		{
			name:    "empty gpu list",
			mutate:  func(c *AppConfig) { c.GPUIDs = nil },
			wantErr: "gpu_ids",
		},
		{
			name:    "negative gpu id",
			mutate:  func(c *AppConfig) { c.GPUIDs = []int{-1} },
			wantErr: "non-negative",
		},
		{
			name:    "duplicate gpu id",
			mutate:  func(c *AppConfig) { c.GPUIDs = []int{0, 0} },
			wantErr: "duplicate device id",
		},
		{
			name:    "empty path_output",
			mutate:  func(c *AppConfig) { c.PathOutput = "" },
			wantErr: "path_output",
		},
		{
			name:    "path traversal in path_output",
			mutate:  func(c *AppConfig) { c.PathOutput = "../../etc" },
			wantErr: "path traversal",
		},
		{
			name:    "missing dataset path",
			mutate:  func(c *AppConfig) { c.Loader.PathData = nil },
			wantErr: "path_data",
		},
		{
			name:    "missing target suffix",
			mutate:  func(c *AppConfig) { c.Loader.TargetSuffix = nil },
			wantErr: "target_suffix",
		},
		{
			name:    "unknown slice axis",
			mutate:  func(c *AppConfig) { c.Loader.SliceAxis = "diagonal" },
			wantErr: "slice_axis",
		},
		{
			name: "subject selection length mismatch",
			mutate: func(c *AppConfig) {
				c.Loader.SubjectSelection = SubjectSelectionSettings{
					N:        []int{5, 10},
					Metadata: []string{"disease"},
					Value:    []string{"ms"},
				}
			},
			wantErr: "equal length",
		},
		{
			name: "contrast balance weight out of range",
			mutate: func(c *AppConfig) {
				c.Loader.ContrastParams.Balance = map[string]float64{"T1w": 1.5}
			},
			wantErr: "(0, 1]",
		},
		{
			name: "contrast balance weights exceed one in total",
			mutate: func(c *AppConfig) {
				c.Loader.ContrastParams.Balance = map[string]float64{"T1w": 0.7, "T2w": 0.6}
			},
			wantErr: "must not exceed 1 in total",
		},
		{
			name:    "extension without leading dot",
			mutate:  func(c *AppConfig) { c.Loader.Extensions = []string{"nii.gz"} },
			wantErr: "extensions",
		},
		{
			name: "training without contrasts",
			mutate: func(c *AppConfig) {
				c.Loader.ContrastParams.TrainingValidation = nil
			},
			wantErr: "training_validation",
		},
		{
			name: "segment command does not require a dataset",
			mutate: func(c *AppConfig) {
				c.Command = CommandSegment
				c.Loader.PathData = nil
				c.Loader.TargetSuffix = nil
				c.Loader.ContrastParams.TrainingValidation = nil
			},
			wantErr: "",
		},
		{
			name:    "unknown split method",
			mutate:  func(c *AppConfig) { c.Split.SplitMethod = "per_site" },
			wantErr: "split_method",
		},
		{
			name:    "train fraction above one",
			mutate:  func(c *AppConfig) { c.Split.TrainFraction = 1.2 },
			wantErr: "train_fraction",
		},
		{
			name: "fractions exceed one",
			mutate: func(c *AppConfig) {
				c.Split.TrainFraction = 0.8
				c.Split.TestFraction = 0.3
			},
			wantErr: "must not exceed 1",
		},
		{
			name: "per_center without test centers",
			mutate: func(c *AppConfig) {
				c.Split.SplitMethod = SplitPerCenter
				c.Split.TestFraction = 0
			},
			wantErr: "per_center",
		},
		{
			name: "test centers on per_patient split",
			mutate: func(c *AppConfig) {
				c.Split.SplitMethod = SplitPerPatient
				c.Split.DataTesting.DataType = "institution_id"
				c.Split.DataTesting.DataValue = []string{"site-01"}
			},
			wantErr: "only honored with split_method per_center",
		},
		{
			name: "data_value without data_type",
			mutate: func(c *AppConfig) {
				c.Split.DataTesting.DataValue = []string{"site-01"}
			},
			wantErr: "data_type",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *AppConfig) { c.Training.BatchSize = 0 },
			wantErr: "batch_size",
		},
		{
			name:    "unknown loss",
			mutate:  func(c *AppConfig) { c.Training.Loss.Name = "SuperLoss" },
			wantErr: "loss.name",
		},
		{
			name:    "zero epochs",
			mutate:  func(c *AppConfig) { c.Training.TrainingTime.NumEpochs = 0 },
			wantErr: "num_epochs",
		},
		{
			name:    "non-positive learning rate",
			mutate:  func(c *AppConfig) { c.Training.Scheduler.InitialLR = 0 },
			wantErr: "initial_lr",
		},
		{
			name:    "unknown scheduler",
			mutate:  func(c *AppConfig) { c.Training.Scheduler.LRScheduler.Name = "StepLR" },
			wantErr: "lr_scheduler",
		},
		{
			name: "CyclicLR without base_lr",
			mutate: func(c *AppConfig) {
				c.Training.Scheduler.LRScheduler.Name = "CyclicLR"
				c.Training.Scheduler.LRScheduler.MaxLR = 0.01
			},
			wantErr: "base_lr",
		},
		{
			name: "CyclicLR with inverted bounds",
			mutate: func(c *AppConfig) {
				c.Training.Scheduler.LRScheduler.Name = "CyclicLR"
				c.Training.Scheduler.LRScheduler.BaseLR = 0.01
				c.Training.Scheduler.LRScheduler.MaxLR = 0.001
			},
			wantErr: "max_lr",
		},
		{
			name: "balance samples with unknown type",
			mutate: func(c *AppConfig) {
				c.Training.BalanceSamples.Applied = true
				c.Training.BalanceSamples.Type = "random"
			},
			wantErr: "balance_samples.type",
		},
		{
			name: "retrain fraction out of range",
			mutate: func(c *AppConfig) {
				c.Training.TransferLearning.RetrainModel = "pretrained.pt"
				c.Training.TransferLearning.RetrainFraction = 0
			},
			wantErr: "retrain_fraction",
		},
		{
			name: "retrain fraction checked without a retrain model",
			mutate: func(c *AppConfig) {
				c.Training.TransferLearning.RetrainFraction = 1.5
			},
			wantErr: "retrain_fraction",
		},
		{
			name:    "unknown model",
			mutate:  func(c *AppConfig) { c.Model.Name = "ResNet" },
			wantErr: "default_model.name",
		},
		{
			name:    "3d model on 2d slices",
			mutate:  func(c *AppConfig) { c.Model.Name = "Modified3DUNet" },
			wantErr: "is_2d",
		},
		{
			name:    "dropout out of range",
			mutate:  func(c *AppConfig) { c.Model.DropoutRate = 1.5 },
			wantErr: "dropout_rate",
		},
		{
			name:    "unknown final activation",
			mutate:  func(c *AppConfig) { c.Model.FinalActivation = "tanh" },
			wantErr: "final_activation",
		},
		{
			name: "uncertainty without iterations",
			mutate: func(c *AppConfig) {
				c.Uncertainty.Epistemic = true
				c.Uncertainty.NIt = 0
			},
			wantErr: "n_it",
		},
		{
			name:    "binarize threshold out of range",
			mutate:  func(c *AppConfig) { c.Postprocessing.BinarizePredictionThr = 1.5 },
			wantErr: "binarize_prediction",
		},
		{
			name:    "threshold disabled with -1 is accepted",
			mutate:  func(c *AppConfig) { c.Postprocessing.BinarizePredictionThr = -1 },
			wantErr: "",
		},
		{
			name: "remove_small with unknown unit",
			mutate: func(c *AppConfig) {
				c.Postprocessing.RemoveSmall.Unit = "ml"
				c.Postprocessing.RemoveSmall.Thr = 3
			},
			wantErr: "remove_small.unit",
		},
		{
			name: "uncertainty postprocessing without suffix",
			mutate: func(c *AppConfig) {
				c.Postprocessing.Uncertainty.Thr = 0.4
				c.Postprocessing.Uncertainty.Suffix = ""
			},
			wantErr: "suffix",
		},
		{
			name:    "unknown evaluation unit",
			mutate:  func(c *AppConfig) { c.Evaluation.Overlap.Unit = "cm" },
			wantErr: "overlap.unit",
		},
		{
			name:    "non-increasing size buckets",
			mutate:  func(c *AppConfig) { c.Evaluation.TargetSize.Thr = []int{100, 20} },
			wantErr: "strictly increasing",
		},
		{
			name: "unknown transform",
			mutate: func(c *AppConfig) {
				c.Transformation = map[string]TransformParams{"Teleport": {}}
			},
			wantErr: "unknown transform",
		},
		{
			name: "transform applied to unknown stream",
			mutate: func(c *AppConfig) {
				c.Transformation = map[string]TransformParams{
					"RandomAffine": {"applied_to": []any{"im", "labels"}},
				}
			},
			wantErr: "applied_to",
		},
		{
			name: "known transform with valid streams",
			mutate: func(c *AppConfig) {
				c.Transformation = map[string]TransformParams{
					"CenterCrop": {"size": []any{128.0, 128.0}, "applied_to": []any{"im", "gt"}},
				}
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Command = "deploy"
	cfg.Training.BatchSize = -1
	cfg.Model.Name = "ResNet"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"command", "batch_size", "default_model.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}
