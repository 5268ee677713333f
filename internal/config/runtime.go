// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"fmt"
)

// AppConfig is the effective runtime configuration handed to the training
// engine: fully defaulted, merged from file and environment, and validated.
type AppConfig struct {
	Version       string
	ConfigVersion string
	ConfigStrict  bool
	LogLevel      string
	LogService    string

	Command    string
	GPUIDs     []int
	PathOutput string
	ModelName  string
	Debugging  bool

	// confd sidecar settings (ENV only, not part of the document)
	APIListenAddr  string
	MetricsEnabled bool

	Loader         LoaderSettings
	Split          SplitSettings
	Training       TrainingSettings
	Model          ModelSettings
	Uncertainty    UncertaintySettings
	Postprocessing PostprocessingSettings
	Evaluation     EvaluationSettings
	Transformation map[string]TransformParams
	WandB          WandBSettings
}

// LoaderSettings is the runtime form of loader_parameters.
type LoaderSettings struct {
	PathData          []string
	SubjectSelection  SubjectSelectionSettings
	TargetSuffix      []string
	Extensions        []string
	ROIParams         ROISettings
	ContrastParams    ContrastSettings
	SliceFilterParams SliceFilterSettings
	SliceAxis         string
	Multichannel      bool
	SoftGroundTruth   bool
}

// SubjectSelectionSettings narrows the dataset to matching subjects.
type SubjectSelectionSettings struct {
	N        []int
	Metadata []string
	Value    []string
}

// ROISettings is the runtime form of roi_params.
type ROISettings struct {
	Suffix         string
	SliceFilterROI int
}

// ContrastSettings is the runtime form of contrast_params.
type ContrastSettings struct {
	TrainingValidation []string
	Testing            []string
	Balance            map[string]float64
}

// SliceFilterSettings is the runtime form of slice_filter_params.
type SliceFilterSettings struct {
	FilterEmptyMask  bool
	FilterEmptyInput bool
}

// SplitSettings is the runtime form of split_dataset.
type SplitSettings struct {
	FnameSplit    string
	RandomSeed    int
	SplitMethod   string
	DataTesting   DataTestingSettings
	Balance       string
	TrainFraction float64
	TestFraction  float64
}

// DataTestingSettings pins the test partition for per-center splits.
type DataTestingSettings struct {
	DataType  string
	DataValue []string
}

// TrainingSettings is the runtime form of training_parameters.
type TrainingSettings struct {
	BatchSize        int
	Loss             LossSettings
	TrainingTime     TrainingTimeSettings
	Scheduler        SchedulerSettings
	BalanceSamples   BalanceSamplesSettings
	MixupAlpha       float64 // 0 disables mixup
	TransferLearning TransferLearningSettings
}

// LossSettings selects the loss function and its numeric parameters.
type LossSettings struct {
	Name   string
	Params map[string]float64
}

// TrainingTimeSettings bounds the training run.
type TrainingTimeSettings struct {
	NumEpochs             int
	EarlyStoppingPatience int
	EarlyStoppingEpsilon  float64
}

// SchedulerSettings is the runtime form of scheduler.
type SchedulerSettings struct {
	InitialLR   float64
	LRScheduler LRSchedulerSettings
}

// LRSchedulerSettings selects the learning-rate scheduler.
type LRSchedulerSettings struct {
	Name   string
	BaseLR float64
	MaxLR  float64
}

// BalanceSamplesSettings controls sampler balancing.
type BalanceSamplesSettings struct {
	Applied bool
	Type    string
}

// TransferLearningSettings configures fine-tuning.
type TransferLearningSettings struct {
	RetrainModel    string
	RetrainFraction float64
	Reset           bool
}

// ModelSettings is the runtime form of default_model.
type ModelSettings struct {
	Name            string
	DropoutRate     float64
	BNMomentum      float64
	FinalActivation string
	Depth           int
	Is2D            bool
}

// UncertaintySettings is the runtime form of uncertainty.
type UncertaintySettings struct {
	Epistemic bool
	Aleatoric bool
	NIt       int
}

// PostprocessingSettings is the runtime form of postprocessing.
type PostprocessingSettings struct {
	RemoveNoiseThr        float64 // -1 disables
	BinarizePredictionThr float64 // -1 disables
	KeepLargest           bool
	FillHoles             bool
	RemoveSmall           RemoveSmallSettings
	Uncertainty           UncertaintyPostSettings
}

// RemoveSmallSettings drops connected components below a size threshold.
type RemoveSmallSettings struct {
	Unit string
	Thr  int // 0 disables
}

// UncertaintyPostSettings masks voxels above an uncertainty threshold.
type UncertaintyPostSettings struct {
	Thr    float64 // -1 disables
	Suffix string
}

// EvaluationSettings is the runtime form of evaluation_parameters.
type EvaluationSettings struct {
	TargetSize TargetSizeSettings
	Overlap    OverlapSettings
}

// TargetSizeSettings buckets lesions by size.
type TargetSizeSettings struct {
	Unit string
	Thr  []int
}

// OverlapSettings sets the minimum detection overlap.
type OverlapSettings struct {
	Unit string
	Thr  int
}

// WandBSettings holds experiment tracking settings. APIKey is a secret and
// must never appear unmasked in logs or API responses.
type WandBSettings struct {
	APIKey      string
	ProjectName string
	GroupName   string
	RunName     string
	LogGradHist bool
}

const maskedValue = "***"

// MaskSecrets returns a copy of cfg with sensitive values replaced.
func MaskSecrets(cfg AppConfig) AppConfig {
	if cfg.WandB.APIKey != "" {
		cfg.WandB.APIKey = maskedValue
	}
	return cfg
}

// String implements fmt.Stringer with secrets redacted, so the config can be
// logged without leaking the wandb key.
func (c AppConfig) String() string {
	masked := MaskSecrets(c)
	data, err := json.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("%+v", masked)
	}
	return string(data)
}
