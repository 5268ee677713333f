// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"fmt"
)

// FileConfig mirrors the on-disk training configuration document.
// JSON is the canonical syntax; the same document is accepted as YAML.
// Optional scalars use pointers to distinguish "not set" from an explicit
// zero value.
type FileConfig struct {
	ConfigVersion string `json:"config_version,omitempty" yaml:"config_version,omitempty"`
	Command       string `json:"command,omitempty" yaml:"command,omitempty"`
	GPUIDs        []int  `json:"gpu_ids,omitempty" yaml:"gpu_ids,omitempty"`
	PathOutput    string `json:"path_output,omitempty" yaml:"path_output,omitempty"`
	ModelName     string `json:"model_name,omitempty" yaml:"model_name,omitempty"`
	Debugging     *bool  `json:"debugging,omitempty" yaml:"debugging,omitempty"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	LoaderParameters     *LoaderFileConfig          `json:"loader_parameters,omitempty" yaml:"loader_parameters,omitempty"`
	SplitDataset         *SplitFileConfig           `json:"split_dataset,omitempty" yaml:"split_dataset,omitempty"`
	TrainingParameters   *TrainingFileConfig        `json:"training_parameters,omitempty" yaml:"training_parameters,omitempty"`
	DefaultModel         *ModelFileConfig           `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	Uncertainty          *UncertaintyFileConfig     `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
	Postprocessing       *PostprocessingFileConfig  `json:"postprocessing,omitempty" yaml:"postprocessing,omitempty"`
	EvaluationParameters *EvaluationFileConfig      `json:"evaluation_parameters,omitempty" yaml:"evaluation_parameters,omitempty"`
	Transformation       map[string]TransformParams `json:"transformation,omitempty" yaml:"transformation,omitempty"`
	WandB                *WandBFileConfig           `json:"wandb,omitempty" yaml:"wandb,omitempty"`
}

// TransformParams carries a transform's parameter payload opaquely.
// Transform names are validated against the known set; the payload schema
// belongs to the external training engine.
type TransformParams map[string]any

// LoaderFileConfig holds dataset location and filtering settings.
type LoaderFileConfig struct {
	PathData          []string               `json:"path_data,omitempty" yaml:"path_data,omitempty"`
	SubjectSelection  *SubjectSelectionFile  `json:"subject_selection,omitempty" yaml:"subject_selection,omitempty"`
	TargetSuffix      []string               `json:"target_suffix,omitempty" yaml:"target_suffix,omitempty"`
	Extensions        []string               `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	ROIParams         *ROIFileConfig         `json:"roi_params,omitempty" yaml:"roi_params,omitempty"`
	ContrastParams    *ContrastFileConfig    `json:"contrast_params,omitempty" yaml:"contrast_params,omitempty"`
	SliceFilterParams *SliceFilterFileConfig `json:"slice_filter_params,omitempty" yaml:"slice_filter_params,omitempty"`
	SliceAxis         string                 `json:"slice_axis,omitempty" yaml:"slice_axis,omitempty"`
	Multichannel      *bool                  `json:"multichannel,omitempty" yaml:"multichannel,omitempty"`
	SoftGroundTruth   *bool                  `json:"soft_gt,omitempty" yaml:"soft_gt,omitempty"`
}

// SubjectSelectionFile narrows the dataset to subjects matching metadata values.
type SubjectSelectionFile struct {
	N        []int    `json:"n,omitempty" yaml:"n,omitempty"`
	Metadata []string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Value    []string `json:"value,omitempty" yaml:"value,omitempty"`
}

// ROIFileConfig holds region-of-interest filtering settings.
type ROIFileConfig struct {
	Suffix         *string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	SliceFilterROI *int    `json:"slice_filter_roi,omitempty" yaml:"slice_filter_roi,omitempty"`
}

// ContrastFileConfig selects the imaging contrasts used per phase.
type ContrastFileConfig struct {
	TrainingValidation []string           `json:"training_validation,omitempty" yaml:"training_validation,omitempty"`
	Testing            []string           `json:"testing,omitempty" yaml:"testing,omitempty"`
	Balance            map[string]float64 `json:"balance,omitempty" yaml:"balance,omitempty"`
}

// SliceFilterFileConfig controls which 2D slices are kept.
type SliceFilterFileConfig struct {
	FilterEmptyMask  *bool `json:"filter_empty_mask,omitempty" yaml:"filter_empty_mask,omitempty"`
	FilterEmptyInput *bool `json:"filter_empty_input,omitempty" yaml:"filter_empty_input,omitempty"`
}

// SplitFileConfig holds the train/validation/test partitioning policy.
type SplitFileConfig struct {
	FnameSplit    string           `json:"fname_split,omitempty" yaml:"fname_split,omitempty"`
	RandomSeed    *int             `json:"random_seed,omitempty" yaml:"random_seed,omitempty"`
	SplitMethod   string           `json:"split_method,omitempty" yaml:"split_method,omitempty"`
	DataTesting   *DataTestingFile `json:"data_testing,omitempty" yaml:"data_testing,omitempty"`
	Balance       string           `json:"balance,omitempty" yaml:"balance,omitempty"`
	TrainFraction *float64         `json:"train_fraction,omitempty" yaml:"train_fraction,omitempty"`
	TestFraction  *float64         `json:"test_fraction,omitempty" yaml:"test_fraction,omitempty"`
}

// DataTestingFile pins the test partition to explicit metadata values
// (per-center splitting).
type DataTestingFile struct {
	DataType  string   `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	DataValue []string `json:"data_value,omitempty" yaml:"data_value,omitempty"`
}

// TrainingFileConfig holds optimization hyperparameters.
type TrainingFileConfig struct {
	BatchSize        *int                    `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	Loss             *LossFileConfig         `json:"loss,omitempty" yaml:"loss,omitempty"`
	TrainingTime     *TrainingTimeFileConfig `json:"training_time,omitempty" yaml:"training_time,omitempty"`
	Scheduler        *SchedulerFileConfig    `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`
	BalanceSamples   *BalanceSamplesFile     `json:"balance_samples,omitempty" yaml:"balance_samples,omitempty"`
	MixupAlpha       *float64                `json:"mixup_alpha,omitempty" yaml:"mixup_alpha,omitempty"`
	TransferLearning *TransferLearningFile   `json:"transfer_learning,omitempty" yaml:"transfer_learning,omitempty"`
}

// LossFileConfig selects the loss function. The document inlines extra
// numeric parameters next to "name" (e.g. {"name": "FocalLoss", "gamma": 0.2}),
// so decoding collects everything but "name" into Params.
type LossFileConfig struct {
	Name   string             `json:"-" yaml:"-"`
	Params map[string]float64 `json:"-" yaml:"-"`
}

// UnmarshalJSON decodes {"name": ..., <param>: <number>, ...}.
func (l *LossFileConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return l.fromRaw(func(msg json.RawMessage, dst any) error {
		return json.Unmarshal(msg, dst)
	}, raw)
}

// UnmarshalYAML decodes the YAML form of the same structure.
func (l *LossFileConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	l.Params = make(map[string]float64)
	for k, v := range raw {
		if k == "name" {
			name, ok := v.(string)
			if !ok {
				return fmt.Errorf("loss name must be a string, got %T", v)
			}
			l.Name = name
			continue
		}
		switch n := v.(type) {
		case float64:
			l.Params[k] = n
		case int:
			l.Params[k] = float64(n)
		default:
			return fmt.Errorf("loss parameter %q must be numeric, got %T", k, v)
		}
	}
	return nil
}

// MarshalJSON restores the inline document form.
func (l LossFileConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Params)+1)
	for k, v := range l.Params {
		out[k] = v
	}
	out["name"] = l.Name
	return json.Marshal(out)
}

func (l *LossFileConfig) fromRaw(unmarshal func(json.RawMessage, any) error, raw map[string]json.RawMessage) error {
	l.Params = make(map[string]float64)
	for k, msg := range raw {
		if k == "name" {
			if err := unmarshal(msg, &l.Name); err != nil {
				return fmt.Errorf("loss name: %w", err)
			}
			continue
		}
		var f float64
		if err := unmarshal(msg, &f); err != nil {
			return fmt.Errorf("loss parameter %q must be numeric: %w", k, err)
		}
		l.Params[k] = f
	}
	return nil
}

// TrainingTimeFileConfig bounds the training run.
type TrainingTimeFileConfig struct {
	NumEpochs             *int     `json:"num_epochs,omitempty" yaml:"num_epochs,omitempty"`
	EarlyStoppingPatience *int     `json:"early_stopping_patience,omitempty" yaml:"early_stopping_patience,omitempty"`
	EarlyStoppingEpsilon  *float64 `json:"early_stopping_epsilon,omitempty" yaml:"early_stopping_epsilon,omitempty"`
}

// SchedulerFileConfig holds learning-rate scheduling settings.
type SchedulerFileConfig struct {
	InitialLR   *float64               `json:"initial_lr,omitempty" yaml:"initial_lr,omitempty"`
	LRScheduler *LRSchedulerFileConfig `json:"lr_scheduler,omitempty" yaml:"lr_scheduler,omitempty"`
}

// LRSchedulerFileConfig selects the scheduler and its bounds.
type LRSchedulerFileConfig struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	BaseLR *float64 `json:"base_lr,omitempty" yaml:"base_lr,omitempty"`
	MaxLR  *float64 `json:"max_lr,omitempty" yaml:"max_lr,omitempty"`
}

// BalanceSamplesFile controls sampler balancing.
type BalanceSamplesFile struct {
	Applied *bool  `json:"applied,omitempty" yaml:"applied,omitempty"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
}

// TransferLearningFile configures fine-tuning from a pretrained model.
type TransferLearningFile struct {
	RetrainModel    string   `json:"retrain_model,omitempty" yaml:"retrain_model,omitempty"`
	RetrainFraction *float64 `json:"retrain_fraction,omitempty" yaml:"retrain_fraction,omitempty"`
	Reset           *bool    `json:"reset,omitempty" yaml:"reset,omitempty"`
}

// ModelFileConfig selects the architecture and its structural knobs.
type ModelFileConfig struct {
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	DropoutRate     *float64 `json:"dropout_rate,omitempty" yaml:"dropout_rate,omitempty"`
	BNMomentum      *float64 `json:"bn_momentum,omitempty" yaml:"bn_momentum,omitempty"`
	FinalActivation string   `json:"final_activation,omitempty" yaml:"final_activation,omitempty"`
	Depth           *int     `json:"depth,omitempty" yaml:"depth,omitempty"`
	Is2D            *bool    `json:"is_2d,omitempty" yaml:"is_2d,omitempty"`
}

// UncertaintyFileConfig toggles epistemic/aleatoric uncertainty estimation.
type UncertaintyFileConfig struct {
	Epistemic *bool `json:"epistemic,omitempty" yaml:"epistemic,omitempty"`
	Aleatoric *bool `json:"aleatoric,omitempty" yaml:"aleatoric,omitempty"`
	NIt       *int  `json:"n_it,omitempty" yaml:"n_it,omitempty"`
}

// PostprocessingFileConfig holds prediction post-processing toggles.
// keep_largest and fill_holes are presence toggles: an empty object enables them.
type PostprocessingFileConfig struct {
	RemoveNoise        *ThresholdFile        `json:"remove_noise,omitempty" yaml:"remove_noise,omitempty"`
	BinarizePrediction *ThresholdFile        `json:"binarize_prediction,omitempty" yaml:"binarize_prediction,omitempty"`
	KeepLargest        *struct{}             `json:"keep_largest,omitempty" yaml:"keep_largest,omitempty"`
	FillHoles          *struct{}             `json:"fill_holes,omitempty" yaml:"fill_holes,omitempty"`
	RemoveSmall        *RemoveSmallFile      `json:"remove_small,omitempty" yaml:"remove_small,omitempty"`
	Uncertainty        *UncertaintyPostFile  `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
}

// ThresholdFile is a single-threshold post-processing step. -1 disables it.
type ThresholdFile struct {
	Thr *float64 `json:"thr,omitempty" yaml:"thr,omitempty"`
}

// RemoveSmallFile drops connected components below a size threshold.
type RemoveSmallFile struct {
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Thr  *int   `json:"thr,omitempty" yaml:"thr,omitempty"`
}

// UncertaintyPostFile masks out voxels above an uncertainty threshold.
type UncertaintyPostFile struct {
	Thr    *float64 `json:"thr,omitempty" yaml:"thr,omitempty"`
	Suffix string   `json:"suffix,omitempty" yaml:"suffix,omitempty"`
}

// EvaluationFileConfig holds lesion-wise evaluation settings.
type EvaluationFileConfig struct {
	TargetSize *TargetSizeFile `json:"target_size,omitempty" yaml:"target_size,omitempty"`
	Overlap    *OverlapFile    `json:"overlap,omitempty" yaml:"overlap,omitempty"`
}

// TargetSizeFile buckets lesions by size for per-bucket metrics.
type TargetSizeFile struct {
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Thr  []int  `json:"thr,omitempty" yaml:"thr,omitempty"`
}

// OverlapFile sets the minimum overlap for a detected lesion to count.
type OverlapFile struct {
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Thr  *int   `json:"thr,omitempty" yaml:"thr,omitempty"`
}

// WandBFileConfig holds Weights & Biases experiment tracking settings.
type WandBFileConfig struct {
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	ProjectName string `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	GroupName   string `json:"group_name,omitempty" yaml:"group_name,omitempty"`
	RunName     string `json:"run_name,omitempty" yaml:"run_name,omitempty"`
	LogGradHist *bool  `json:"log_grad_hist,omitempty" yaml:"log_grad_hist,omitempty"`
}
