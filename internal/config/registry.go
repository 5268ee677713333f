// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Profile defines the operator persona for a configuration option.
type Profile string

const (
	ProfileSimple   Profile = "Simple"
	ProfileAdvanced Profile = "Advanced"
	ProfileInternal Profile = "Internal"
)

// Status defines the lifecycle state of a configuration option.
type Status string

const (
	StatusActive     Status = "Active"
	StatusDeprecated Status = "Deprecated"
	StatusInternal   Status = "Internal"
)

// ConfigEntry defines a single configuration option's metadata.
type ConfigEntry struct {
	Path      string  // Document path (e.g. "split_dataset.train_fraction")
	Env       string  // Environment variable (e.g. "IVADO_TRAIN_FRACTION")
	FieldPath string  // AppConfig field path (e.g. "Split.TrainFraction")
	Profile   Profile // Operator profile
	Status    Status  // Lifecycle status
	Default   any     // Default value
}

// Registry manages the configuration surface inventory.
type Registry struct {
	ByPath  map[string]ConfigEntry
	ByField map[string]ConfigEntry
	ByEnv   map[string]ConfigEntry
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the global configuration registry.
// It returns an error if the registry contains duplicates or is otherwise invalid.
// Thread-safe via sync.Once.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry()
	})
	return globalRegistry, globalRegistryErr
}

func buildRegistry() (*Registry, error) {
	r := &Registry{
		ByPath:  make(map[string]ConfigEntry),
		ByField: make(map[string]ConfigEntry),
		ByEnv:   make(map[string]ConfigEntry),
	}

	entries := []ConfigEntry{
		// --- CORE ---
		{FieldPath: "Version", Profile: ProfileInternal, Status: StatusInternal},
		{Path: "config_version", FieldPath: "ConfigVersion", Profile: ProfileInternal, Status: StatusInternal, Default: CurrentConfigVersion},
		{Env: "IVADO_CONFIG_STRICT", FieldPath: "ConfigStrict", Profile: ProfileAdvanced, Status: StatusActive, Default: true},
		{Path: "log_level", Env: "IVADO_LOG_LEVEL", FieldPath: "LogLevel", Profile: ProfileSimple, Status: StatusActive, Default: "info"},
		{Env: "IVADO_LOG_SERVICE", FieldPath: "LogService", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "command", Env: "IVADO_COMMAND", FieldPath: "Command", Profile: ProfileSimple, Status: StatusActive, Default: "train"},
		{Path: "gpu_ids", Env: "IVADO_GPU_IDS", FieldPath: "GPUIDs", Profile: ProfileSimple, Status: StatusActive, Default: []int{0}},
		{Path: "path_output", Env: "IVADO_PATH_OUTPUT", FieldPath: "PathOutput", Profile: ProfileSimple, Status: StatusActive, Default: "output"},
		{Path: "model_name", Env: "IVADO_MODEL_NAME", FieldPath: "ModelName", Profile: ProfileSimple, Status: StatusActive, Default: "seg_model"},
		{Path: "debugging", Env: "IVADO_DEBUGGING", FieldPath: "Debugging", Profile: ProfileAdvanced, Status: StatusActive, Default: false},

		// --- SIDECAR (ENV only) ---
		{Env: "IVADO_LISTEN", FieldPath: "APIListenAddr", Profile: ProfileAdvanced, Status: StatusActive, Default: ":8675"},
		{Env: "IVADO_METRICS_ENABLED", FieldPath: "MetricsEnabled", Profile: ProfileAdvanced, Status: StatusActive, Default: true},

		// --- LOADER ---
		{Path: "loader_parameters.path_data", FieldPath: "Loader.PathData", Profile: ProfileSimple, Status: StatusActive},
		{Path: "loader_parameters.subject_selection.n", FieldPath: "Loader.SubjectSelection.N", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "loader_parameters.subject_selection.metadata", FieldPath: "Loader.SubjectSelection.Metadata", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "loader_parameters.subject_selection.value", FieldPath: "Loader.SubjectSelection.Value", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "loader_parameters.target_suffix", FieldPath: "Loader.TargetSuffix", Profile: ProfileSimple, Status: StatusActive},
		{Path: "loader_parameters.extensions", FieldPath: "Loader.Extensions", Profile: ProfileSimple, Status: StatusActive, Default: []string{".nii.gz"}},
		{Path: "loader_parameters.roi_params.suffix", FieldPath: "Loader.ROIParams.Suffix", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "loader_parameters.roi_params.slice_filter_roi", FieldPath: "Loader.ROIParams.SliceFilterROI", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "loader_parameters.contrast_params.training_validation", FieldPath: "Loader.ContrastParams.TrainingValidation", Profile: ProfileSimple, Status: StatusActive},
		{Path: "loader_parameters.contrast_params.testing", FieldPath: "Loader.ContrastParams.Testing", Profile: ProfileSimple, Status: StatusActive},
		{Path: "loader_parameters.contrast_params.balance", FieldPath: "Loader.ContrastParams.Balance", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "loader_parameters.slice_filter_params.filter_empty_mask", FieldPath: "Loader.SliceFilterParams.FilterEmptyMask", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "loader_parameters.slice_filter_params.filter_empty_input", FieldPath: "Loader.SliceFilterParams.FilterEmptyInput", Profile: ProfileAdvanced, Status: StatusActive, Default: true},
		{Path: "loader_parameters.slice_axis", FieldPath: "Loader.SliceAxis", Profile: ProfileSimple, Status: StatusActive, Default: "axial"},
		{Path: "loader_parameters.multichannel", FieldPath: "Loader.Multichannel", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "loader_parameters.soft_gt", FieldPath: "Loader.SoftGroundTruth", Profile: ProfileAdvanced, Status: StatusActive, Default: false},

		// --- SPLIT ---
		{Path: "split_dataset.fname_split", FieldPath: "Split.FnameSplit", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "split_dataset.random_seed", Env: "IVADO_RANDOM_SEED", FieldPath: "Split.RandomSeed", Profile: ProfileSimple, Status: StatusActive, Default: 6},
		{Path: "split_dataset.split_method", FieldPath: "Split.SplitMethod", Profile: ProfileSimple, Status: StatusActive, Default: SplitPerPatient},
		{Path: "split_dataset.data_testing.data_type", FieldPath: "Split.DataTesting.DataType", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "split_dataset.data_testing.data_value", FieldPath: "Split.DataTesting.DataValue", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "split_dataset.balance", FieldPath: "Split.Balance", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "split_dataset.train_fraction", Env: "IVADO_TRAIN_FRACTION", FieldPath: "Split.TrainFraction", Profile: ProfileSimple, Status: StatusActive, Default: 0.6},
		{Path: "split_dataset.test_fraction", Env: "IVADO_TEST_FRACTION", FieldPath: "Split.TestFraction", Profile: ProfileSimple, Status: StatusActive, Default: 0.2},

		// --- TRAINING ---
		{Path: "training_parameters.batch_size", Env: "IVADO_BATCH_SIZE", FieldPath: "Training.BatchSize", Profile: ProfileSimple, Status: StatusActive, Default: 18},
		{Path: "training_parameters.loss.name", FieldPath: "Training.Loss.Name", Profile: ProfileSimple, Status: StatusActive, Default: "DiceLoss"},
		{FieldPath: "Training.Loss.Params", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "training_parameters.training_time.num_epochs", Env: "IVADO_NUM_EPOCHS", FieldPath: "Training.TrainingTime.NumEpochs", Profile: ProfileSimple, Status: StatusActive, Default: 100},
		{Path: "training_parameters.training_time.early_stopping_patience", FieldPath: "Training.TrainingTime.EarlyStoppingPatience", Profile: ProfileAdvanced, Status: StatusActive, Default: 50},
		{Path: "training_parameters.training_time.early_stopping_epsilon", FieldPath: "Training.TrainingTime.EarlyStoppingEpsilon", Profile: ProfileAdvanced, Status: StatusActive, Default: 0.001},
		{Path: "training_parameters.scheduler.initial_lr", Env: "IVADO_INITIAL_LR", FieldPath: "Training.Scheduler.InitialLR", Profile: ProfileSimple, Status: StatusActive, Default: 0.001},
		{Path: "training_parameters.scheduler.lr_scheduler.name", FieldPath: "Training.Scheduler.LRScheduler.Name", Profile: ProfileAdvanced, Status: StatusActive, Default: "CosineAnnealingLR"},
		{Path: "training_parameters.scheduler.lr_scheduler.base_lr", FieldPath: "Training.Scheduler.LRScheduler.BaseLR", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "training_parameters.scheduler.lr_scheduler.max_lr", FieldPath: "Training.Scheduler.LRScheduler.MaxLR", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "training_parameters.balance_samples.applied", FieldPath: "Training.BalanceSamples.Applied", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "training_parameters.balance_samples.type", FieldPath: "Training.BalanceSamples.Type", Profile: ProfileAdvanced, Status: StatusActive, Default: "gt"},
		{Path: "training_parameters.mixup_alpha", FieldPath: "Training.MixupAlpha", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "training_parameters.transfer_learning.retrain_model", FieldPath: "Training.TransferLearning.RetrainModel", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "training_parameters.transfer_learning.retrain_fraction", FieldPath: "Training.TransferLearning.RetrainFraction", Profile: ProfileAdvanced, Status: StatusActive, Default: 1.0},
		{Path: "training_parameters.transfer_learning.reset", FieldPath: "Training.TransferLearning.Reset", Profile: ProfileAdvanced, Status: StatusActive, Default: true},

		// --- MODEL ---
		{Path: "default_model.name", FieldPath: "Model.Name", Profile: ProfileSimple, Status: StatusActive, Default: "Unet"},
		{Path: "default_model.dropout_rate", FieldPath: "Model.DropoutRate", Profile: ProfileAdvanced, Status: StatusActive, Default: 0.3},
		{Path: "default_model.bn_momentum", FieldPath: "Model.BNMomentum", Profile: ProfileAdvanced, Status: StatusActive, Default: 0.1},
		{Path: "default_model.final_activation", FieldPath: "Model.FinalActivation", Profile: ProfileAdvanced, Status: StatusActive, Default: "sigmoid"},
		{Path: "default_model.depth", FieldPath: "Model.Depth", Profile: ProfileAdvanced, Status: StatusActive, Default: 3},
		{Path: "default_model.is_2d", FieldPath: "Model.Is2D", Profile: ProfileAdvanced, Status: StatusActive, Default: true},

		// --- UNCERTAINTY ---
		{Path: "uncertainty.epistemic", FieldPath: "Uncertainty.Epistemic", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "uncertainty.aleatoric", FieldPath: "Uncertainty.Aleatoric", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "uncertainty.n_it", FieldPath: "Uncertainty.NIt", Profile: ProfileAdvanced, Status: StatusActive, Default: 0},

		// --- POSTPROCESSING ---
		{Path: "postprocessing.remove_noise.thr", FieldPath: "Postprocessing.RemoveNoiseThr", Profile: ProfileAdvanced, Status: StatusActive, Default: -1.0},
		{Path: "postprocessing.binarize_prediction.thr", FieldPath: "Postprocessing.BinarizePredictionThr", Profile: ProfileSimple, Status: StatusActive, Default: 0.5},
		{Path: "postprocessing.keep_largest", FieldPath: "Postprocessing.KeepLargest", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "postprocessing.fill_holes", FieldPath: "Postprocessing.FillHoles", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "postprocessing.remove_small.unit", FieldPath: "Postprocessing.RemoveSmall.Unit", Profile: ProfileAdvanced, Status: StatusActive, Default: "vox"},
		{Path: "postprocessing.remove_small.thr", FieldPath: "Postprocessing.RemoveSmall.Thr", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "postprocessing.uncertainty.thr", FieldPath: "Postprocessing.Uncertainty.Thr", Profile: ProfileAdvanced, Status: StatusActive, Default: -1.0},
		{Path: "postprocessing.uncertainty.suffix", FieldPath: "Postprocessing.Uncertainty.Suffix", Profile: ProfileAdvanced, Status: StatusActive, Default: "_unc-vox.nii.gz"},

		// --- EVALUATION ---
		{Path: "evaluation_parameters.target_size.unit", FieldPath: "Evaluation.TargetSize.Unit", Profile: ProfileAdvanced, Status: StatusActive, Default: "vox"},
		{Path: "evaluation_parameters.target_size.thr", FieldPath: "Evaluation.TargetSize.Thr", Profile: ProfileAdvanced, Status: StatusActive, Default: []int{20, 100}},
		{Path: "evaluation_parameters.overlap.unit", FieldPath: "Evaluation.Overlap.Unit", Profile: ProfileAdvanced, Status: StatusActive, Default: "vox"},
		{Path: "evaluation_parameters.overlap.thr", FieldPath: "Evaluation.Overlap.Thr", Profile: ProfileAdvanced, Status: StatusActive, Default: 3},

		// --- TRANSFORMATION ---
		{Path: "transformation", FieldPath: "Transformation", Profile: ProfileAdvanced, Status: StatusActive},

		// --- WANDB ---
		{Path: "wandb.api_key", Env: "IVADO_WANDB_API_KEY", FieldPath: "WandB.APIKey", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "wandb.project_name", FieldPath: "WandB.ProjectName", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "wandb.group_name", FieldPath: "WandB.GroupName", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "wandb.run_name", FieldPath: "WandB.RunName", Profile: ProfileAdvanced, Status: StatusActive},
		{Path: "wandb.log_grad_hist", FieldPath: "WandB.LogGradHist", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
	}

	for _, e := range entries {
		if e.Path != "" {
			if _, dup := r.ByPath[e.Path]; dup {
				return nil, fmt.Errorf("duplicate registry path: %s", e.Path)
			}
			r.ByPath[e.Path] = e
		}
		if e.FieldPath != "" {
			if _, dup := r.ByField[e.FieldPath]; dup {
				return nil, fmt.Errorf("duplicate registry field: %s", e.FieldPath)
			}
			r.ByField[e.FieldPath] = e
		}
		if e.Env != "" {
			if _, dup := r.ByEnv[e.Env]; dup {
				return nil, fmt.Errorf("duplicate registry env: %s", e.Env)
			}
			r.ByEnv[e.Env] = e
		}
	}

	return r, nil
}

// ValidateFieldCoverage uses reflection to ensure every field in AppConfig is registered.
func (r *Registry) ValidateFieldCoverage(cfg AppConfig) error {
	t := reflect.TypeOf(cfg)
	return r.validateStruct("", t)
}

func (r *Registry) validateStruct(prefix string, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		fieldPath := f.Name
		if prefix != "" {
			fieldPath = prefix + "." + f.Name
		}

		fieldType := f.Type
		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		if fieldType.Kind() == reflect.Struct {
			if err := r.validateStruct(fieldPath, fieldType); err != nil {
				return err
			}
			continue
		}

		if _, ok := r.ByField[fieldPath]; !ok {
			return fmt.Errorf("field %q is not registered in the config registry", fieldPath)
		}
	}
	return nil
}

// ApplyDefaults applies registered default values to the given AppConfig.
// Returns an error if any default cannot be set (indicates registry misconfiguration).
func (r *Registry) ApplyDefaults(cfg *AppConfig) error {
	v := reflect.ValueOf(cfg).Elem()
	for _, entry := range r.ByField {
		if entry.Default == nil {
			continue
		}

		if err := setField(v, entry.FieldPath, entry.Default); err != nil {
			return fmt.Errorf("failed to set default for %s: %w", entry.FieldPath, err)
		}
	}
	return nil
}

func setField(v reflect.Value, fieldPath string, value any) error {
	parts := strings.Split(fieldPath, ".")
	curr := v
	for i, p := range parts {
		if curr.Kind() == reflect.Ptr {
			if curr.IsNil() {
				curr.Set(reflect.New(curr.Type().Elem()))
			}
			curr = curr.Elem()
		}

		f := curr.FieldByName(p)
		if !f.IsValid() {
			return fmt.Errorf("field %s not found", p)
		}

		if i == len(parts)-1 {
			val := reflect.ValueOf(value)
			if f.Type() != val.Type() {
				if !val.Type().ConvertibleTo(f.Type()) {
					return fmt.Errorf("type mismatch for %s: expected %v, got %v", fieldPath, f.Type(), val.Type())
				}
				f.Set(val.Convert(f.Type()))
				return nil
			}
			f.Set(val)
			return nil
		}
		curr = f
	}
	return nil
}
