// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"

	"github.com/ivadomed/ivadoconf/internal/validate"
)

// Commands the training engine accepts.
const (
	CommandTrain   = "train"
	CommandTest    = "test"
	CommandSegment = "segment"
)

// Split methods.
const (
	SplitPerPatient = "per_patient"
	SplitPerCenter  = "per_center"
)

var knownCommands = []string{CommandTrain, CommandTest, CommandSegment}

var knownSliceAxes = []string{"sagittal", "coronal", "axial"}

var knownSplitMethods = []string{SplitPerPatient, SplitPerCenter}

var knownLosses = []string{
	"DiceLoss",
	"FocalLoss",
	"FocalDiceLoss",
	"GeneralizedDiceLoss",
	"MultiClassDiceLoss",
	"BinaryCrossEntropyLoss",
	"L2Loss",
	"AdapWingLoss",
	"LossCombination",
}

var knownLRSchedulers = []string{
	"CosineAnnealingLR",
	"CosineAnnealingWarmRestarts",
	"CyclicLR",
}

var knownModels = []string{
	"Unet",
	"FiLMedUnet",
	"HeMISUnet",
	"Modified3DUNet",
	"Countception",
}

var knownActivations = []string{"sigmoid", "softmax", "relu"}

var knownBalanceTypes = []string{"gt", "metadata"}

var knownSizeUnits = []string{"vox", "mm3"}

// knownTransforms is the transform vocabulary the training engine exposes.
// Parameter payloads are opaque here except applied_to, which is checked
// against the image/ground-truth/ROI streams.
var knownTransforms = map[string]struct{}{
	"NumpyToTensor":         {},
	"Resample":              {},
	"CenterCrop":            {},
	"ROICrop":               {},
	"NormalizeInstance":     {},
	"RandomAffine":          {},
	"RandomTranslation":     {},
	"RandomRotation":        {},
	"RandomShear":           {},
	"RandomScale":           {},
	"ElasticTransform":      {},
	"AdditiveGaussianNoise": {},
	"DilateGT":              {},
	"HistogramClipping":     {},
	"Clahe":                 {},
	"RandomReverse":         {},
	"RandomGamma":           {},
	"RandomBiasField":       {},
	"RandomBlur":            {},
	"CroppableArray":        {},
	"BoundingBoxCrop":       {},
}

var knownAppliedTo = map[string]struct{}{
	"im":  {},
	"gt":  {},
	"roi": {},
}

// Validate checks the effective configuration against the semantic rules of
// the training engine. All violations are accumulated so the operator sees
// every problem in one run.
func Validate(cfg *AppConfig) error {
	v := validate.New()

	v.OneOf("command", cfg.Command, knownCommands)

	if len(cfg.GPUIDs) == 0 {
		v.AddError("gpu_ids", "at least one device required (use [0] for single-GPU)", cfg.GPUIDs)
	}
	seen := make(map[int]struct{}, len(cfg.GPUIDs))
	for _, id := range cfg.GPUIDs {
		if id < 0 {
			v.AddError("gpu_ids", "device ids must be non-negative", id)
		}
		if _, dup := seen[id]; dup {
			v.AddError("gpu_ids", fmt.Sprintf("duplicate device id %d", id), id)
		}
		seen[id] = struct{}{}
	}

	// The output directory is created by the training engine, so it only has
	// to be usable here.
	v.Directory("path_output", cfg.PathOutput, false)
	v.NotEmpty("model_name", cfg.ModelName)

	validateLoader(v, &cfg.Loader, cfg.Command)
	validateSplit(v, &cfg.Split)
	validateTraining(v, &cfg.Training)
	validateModel(v, &cfg.Model)
	validateUncertainty(v, &cfg.Uncertainty)
	validatePostprocessing(v, &cfg.Postprocessing)
	validateEvaluation(v, &cfg.Evaluation)
	validateTransformation(v, cfg.Transformation)

	return v.Err()
}

func validateLoader(v *validate.Validator, l *LoaderSettings, command string) {
	// Training needs the dataset up front; segment resolves its inputs at
	// call time.
	if command == CommandTrain || command == CommandTest {
		if len(l.PathData) == 0 {
			v.AddError("loader_parameters.path_data", "at least one dataset path required", l.PathData)
		}
		if len(l.TargetSuffix) == 0 {
			v.AddError("loader_parameters.target_suffix", "at least one ground-truth suffix required", l.TargetSuffix)
		}
	}
	if command == CommandTrain && len(l.ContrastParams.TrainingValidation) == 0 {
		v.AddError("loader_parameters.contrast_params.training_validation",
			"training requires at least one contrast", l.ContrastParams.TrainingValidation)
	}
	for i, p := range l.PathData {
		v.Path(fmt.Sprintf("loader_parameters.path_data[%d]", i), p)
	}
	if len(l.Extensions) == 0 {
		v.AddError("loader_parameters.extensions", "at least one file extension required", l.Extensions)
	}
	for i, ext := range l.Extensions {
		if !strings.HasPrefix(ext, ".") {
			v.AddError(fmt.Sprintf("loader_parameters.extensions[%d]", i),
				`extensions must start with "."`, ext)
		}
	}
	v.OneOf("loader_parameters.slice_axis", l.SliceAxis, knownSliceAxes)

	ss := l.SubjectSelection
	if len(ss.N) > 0 || len(ss.Metadata) > 0 || len(ss.Value) > 0 {
		if len(ss.N) != len(ss.Metadata) || len(ss.Metadata) != len(ss.Value) {
			v.AddError("loader_parameters.subject_selection",
				fmt.Sprintf("n, metadata and value must have equal length, got %d/%d/%d",
					len(ss.N), len(ss.Metadata), len(ss.Value)), nil)
		}
		for i, n := range ss.N {
			v.Positive(fmt.Sprintf("loader_parameters.subject_selection.n[%d]", i), n)
		}
	}

	var balanceSum float64
	for contrast, weight := range l.ContrastParams.Balance {
		if weight <= 0 || weight > 1 {
			v.AddError(fmt.Sprintf("loader_parameters.contrast_params.balance[%s]", contrast),
				"weight must be in (0, 1]", weight)
		}
		balanceSum += weight
	}
	if balanceSum > 1 {
		v.AddError("loader_parameters.contrast_params.balance",
			fmt.Sprintf("weights must not exceed 1 in total, got %g", balanceSum), balanceSum)
	}
	v.NonNegative("loader_parameters.roi_params.slice_filter_roi", l.ROIParams.SliceFilterROI)
}

func validateSplit(v *validate.Validator, s *SplitSettings) {
	v.OneOf("split_dataset.split_method", s.SplitMethod, knownSplitMethods)
	v.FractionPair("split_dataset.train_fraction", s.TrainFraction,
		"split_dataset.test_fraction", s.TestFraction)

	if s.SplitMethod == SplitPerCenter && len(s.DataTesting.DataValue) == 0 && s.TestFraction == 0 {
		v.AddError("split_dataset.data_testing.data_value",
			"per_center split requires test centers or a non-zero test_fraction", s.DataTesting.DataValue)
	}
	if s.SplitMethod != SplitPerCenter && len(s.DataTesting.DataValue) > 0 {
		v.AddError("split_dataset.data_testing",
			fmt.Sprintf("test centers are only honored with split_method %s", SplitPerCenter),
			s.SplitMethod)
	}
	if len(s.DataTesting.DataValue) > 0 && s.DataTesting.DataType == "" {
		v.AddError("split_dataset.data_testing.data_type",
			"data_type required when data_value is set", s.DataTesting.DataType)
	}
	if s.FnameSplit != "" {
		v.Path("split_dataset.fname_split", s.FnameSplit)
	}
}

func validateTraining(v *validate.Validator, t *TrainingSettings) {
	v.Positive("training_parameters.batch_size", t.BatchSize)
	v.OneOf("training_parameters.loss.name", t.Loss.Name, knownLosses)
	v.Positive("training_parameters.training_time.num_epochs", t.TrainingTime.NumEpochs)
	v.NonNegative("training_parameters.training_time.early_stopping_patience", t.TrainingTime.EarlyStoppingPatience)
	if t.TrainingTime.EarlyStoppingEpsilon < 0 {
		v.AddError("training_parameters.training_time.early_stopping_epsilon",
			"must be non-negative", t.TrainingTime.EarlyStoppingEpsilon)
	}

	if t.Scheduler.InitialLR <= 0 {
		v.AddError("training_parameters.scheduler.initial_lr", "must be positive", t.Scheduler.InitialLR)
	}
	lrs := t.Scheduler.LRScheduler
	v.OneOf("training_parameters.scheduler.lr_scheduler.name", lrs.Name, knownLRSchedulers)
	if lrs.Name == "CyclicLR" {
		if lrs.BaseLR <= 0 {
			v.AddError("training_parameters.scheduler.lr_scheduler.base_lr",
				"CyclicLR requires a positive base_lr", lrs.BaseLR)
		}
		if lrs.MaxLR <= lrs.BaseLR {
			v.AddError("training_parameters.scheduler.lr_scheduler.max_lr",
				fmt.Sprintf("CyclicLR requires max_lr > base_lr (%g)", lrs.BaseLR), lrs.MaxLR)
		}
	}

	if t.BalanceSamples.Applied {
		v.OneOf("training_parameters.balance_samples.type", t.BalanceSamples.Type, knownBalanceTypes)
	}
	if t.MixupAlpha < 0 {
		v.AddError("training_parameters.mixup_alpha", "must be non-negative", t.MixupAlpha)
	}

	tl := t.TransferLearning
	if tl.RetrainFraction <= 0 || tl.RetrainFraction > 1 {
		v.AddError("training_parameters.transfer_learning.retrain_fraction",
			"must be in (0, 1]", tl.RetrainFraction)
	}
	if tl.RetrainModel != "" {
		v.Path("training_parameters.transfer_learning.retrain_model", tl.RetrainModel)
	}
}

func validateModel(v *validate.Validator, m *ModelSettings) {
	v.OneOf("default_model.name", m.Name, knownModels)
	if m.DropoutRate < 0 || m.DropoutRate >= 1 {
		v.AddError("default_model.dropout_rate", "must be in [0, 1)", m.DropoutRate)
	}
	if m.BNMomentum <= 0 || m.BNMomentum >= 1 {
		v.AddError("default_model.bn_momentum", "must be in (0, 1)", m.BNMomentum)
	}
	v.OneOf("default_model.final_activation", m.FinalActivation, knownActivations)
	v.Positive("default_model.depth", m.Depth)

	// 3D architectures cannot run on 2D slices.
	if m.Name == "Modified3DUNet" && m.Is2D {
		v.AddError("default_model.is_2d", "Modified3DUNet requires is_2d=false", m.Is2D)
	}
}

func validateUncertainty(v *validate.Validator, u *UncertaintySettings) {
	if (u.Epistemic || u.Aleatoric) && u.NIt < 1 {
		v.AddError("uncertainty.n_it",
			"uncertainty estimation requires at least one Monte Carlo iteration", u.NIt)
	}
	v.NonNegative("uncertainty.n_it", u.NIt)
}

func validatePostprocessing(v *validate.Validator, p *PostprocessingSettings) {
	validateThresholdOrDisabled(v, "postprocessing.remove_noise.thr", p.RemoveNoiseThr)
	validateThresholdOrDisabled(v, "postprocessing.binarize_prediction.thr", p.BinarizePredictionThr)
	validateThresholdOrDisabled(v, "postprocessing.uncertainty.thr", p.Uncertainty.Thr)

	if p.RemoveSmall.Thr != 0 {
		v.OneOf("postprocessing.remove_small.unit", p.RemoveSmall.Unit, knownSizeUnits)
		v.Positive("postprocessing.remove_small.thr", p.RemoveSmall.Thr)
	}
	if p.Uncertainty.Thr >= 0 && p.Uncertainty.Suffix == "" {
		v.AddError("postprocessing.uncertainty.suffix",
			"suffix required when uncertainty thresholding is enabled", p.Uncertainty.Suffix)
	}
}

// validateThresholdOrDisabled accepts either -1 (step disabled) or [0, 1].
func validateThresholdOrDisabled(v *validate.Validator, field string, thr float64) {
	if thr == -1 {
		return
	}
	if thr < 0 || thr > 1 {
		v.AddError(field, "must be in [0, 1], or -1 to disable", thr)
	}
}

func validateEvaluation(v *validate.Validator, e *EvaluationSettings) {
	v.OneOf("evaluation_parameters.target_size.unit", e.TargetSize.Unit, knownSizeUnits)
	v.OneOf("evaluation_parameters.overlap.unit", e.Overlap.Unit, knownSizeUnits)
	v.Positive("evaluation_parameters.overlap.thr", e.Overlap.Thr)

	prev := 0
	for i, thr := range e.TargetSize.Thr {
		if thr <= prev {
			v.AddError(fmt.Sprintf("evaluation_parameters.target_size.thr[%d]", i),
				"size buckets must be strictly increasing positive values", thr)
		}
		prev = thr
	}
}

func validateTransformation(v *validate.Validator, transforms map[string]TransformParams) {
	for name, params := range transforms {
		if _, ok := knownTransforms[name]; !ok {
			v.AddError("transformation."+name, "unknown transform", name)
			continue
		}
		appliedTo, ok := params["applied_to"]
		if !ok {
			continue
		}
		list, ok := appliedTo.([]any)
		if !ok {
			v.AddError("transformation."+name+".applied_to", "must be a list of streams", appliedTo)
			continue
		}
		for _, item := range list {
			stream, ok := item.(string)
			if !ok {
				v.AddError("transformation."+name+".applied_to", "stream names must be strings", item)
				continue
			}
			if _, known := knownAppliedTo[stream]; !known {
				v.AddError("transformation."+name+".applied_to",
					`must be one of "im", "gt", "roi"`, stream)
			}
		}
	}
}
