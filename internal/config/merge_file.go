// SPDX-License-Identifier: MIT

package config

// mergeFileConfig overlays a parsed document onto the defaulted AppConfig.
// Only fields the document actually carries are applied; pointer optionals
// distinguish an explicit zero from an absent key.
func mergeFileConfig(cfg *AppConfig, fc *FileConfig) error {
	if fc == nil {
		return nil
	}

	if fc.ConfigVersion != "" {
		cfg.ConfigVersion = fc.ConfigVersion
	}
	if fc.Command != "" {
		cfg.Command = fc.Command
	}
	if fc.GPUIDs != nil {
		cfg.GPUIDs = fc.GPUIDs
	}
	if fc.PathOutput != "" {
		cfg.PathOutput = fc.PathOutput
	}
	if fc.ModelName != "" {
		cfg.ModelName = fc.ModelName
	}
	if fc.Debugging != nil {
		cfg.Debugging = *fc.Debugging
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}

	mergeLoaderSection(&cfg.Loader, fc.LoaderParameters)
	mergeSplitSection(&cfg.Split, fc.SplitDataset)
	mergeTrainingSection(&cfg.Training, fc.TrainingParameters)
	mergeModelSection(&cfg.Model, fc.DefaultModel)
	mergeUncertaintySection(&cfg.Uncertainty, fc.Uncertainty)
	mergePostprocessingSection(&cfg.Postprocessing, fc.Postprocessing)
	mergeEvaluationSection(&cfg.Evaluation, fc.EvaluationParameters)

	if fc.Transformation != nil {
		cfg.Transformation = fc.Transformation
	}
	mergeWandBSection(&cfg.WandB, fc.WandB)

	return nil
}

func mergeLoaderSection(dst *LoaderSettings, src *LoaderFileConfig) {
	if src == nil {
		return
	}
	if src.PathData != nil {
		dst.PathData = src.PathData
	}
	if src.SubjectSelection != nil {
		dst.SubjectSelection = SubjectSelectionSettings{
			N:        src.SubjectSelection.N,
			Metadata: src.SubjectSelection.Metadata,
			Value:    src.SubjectSelection.Value,
		}
	}
	if src.TargetSuffix != nil {
		dst.TargetSuffix = src.TargetSuffix
	}
	if src.Extensions != nil {
		dst.Extensions = src.Extensions
	}
	if src.ROIParams != nil {
		if src.ROIParams.Suffix != nil {
			dst.ROIParams.Suffix = *src.ROIParams.Suffix
		}
		if src.ROIParams.SliceFilterROI != nil {
			dst.ROIParams.SliceFilterROI = *src.ROIParams.SliceFilterROI
		}
	}
	if src.ContrastParams != nil {
		if src.ContrastParams.TrainingValidation != nil {
			dst.ContrastParams.TrainingValidation = src.ContrastParams.TrainingValidation
		}
		if src.ContrastParams.Testing != nil {
			dst.ContrastParams.Testing = src.ContrastParams.Testing
		}
		if src.ContrastParams.Balance != nil {
			dst.ContrastParams.Balance = src.ContrastParams.Balance
		}
	}
	if src.SliceFilterParams != nil {
		if src.SliceFilterParams.FilterEmptyMask != nil {
			dst.SliceFilterParams.FilterEmptyMask = *src.SliceFilterParams.FilterEmptyMask
		}
		if src.SliceFilterParams.FilterEmptyInput != nil {
			dst.SliceFilterParams.FilterEmptyInput = *src.SliceFilterParams.FilterEmptyInput
		}
	}
	if src.SliceAxis != "" {
		dst.SliceAxis = src.SliceAxis
	}
	if src.Multichannel != nil {
		dst.Multichannel = *src.Multichannel
	}
	if src.SoftGroundTruth != nil {
		dst.SoftGroundTruth = *src.SoftGroundTruth
	}
}

func mergeSplitSection(dst *SplitSettings, src *SplitFileConfig) {
	if src == nil {
		return
	}
	if src.FnameSplit != "" {
		dst.FnameSplit = src.FnameSplit
	}
	if src.RandomSeed != nil {
		dst.RandomSeed = *src.RandomSeed
	}
	if src.SplitMethod != "" {
		dst.SplitMethod = src.SplitMethod
	}
	if src.DataTesting != nil {
		dst.DataTesting = DataTestingSettings{
			DataType:  src.DataTesting.DataType,
			DataValue: src.DataTesting.DataValue,
		}
	}
	if src.Balance != "" {
		dst.Balance = src.Balance
	}
	if src.TrainFraction != nil {
		dst.TrainFraction = *src.TrainFraction
	}
	if src.TestFraction != nil {
		dst.TestFraction = *src.TestFraction
	}
}

func mergeTrainingSection(dst *TrainingSettings, src *TrainingFileConfig) {
	if src == nil {
		return
	}
	if src.BatchSize != nil {
		dst.BatchSize = *src.BatchSize
	}
	if src.Loss != nil {
		if src.Loss.Name != "" {
			dst.Loss.Name = src.Loss.Name
		}
		if len(src.Loss.Params) > 0 {
			dst.Loss.Params = src.Loss.Params
		}
	}
	if src.TrainingTime != nil {
		if src.TrainingTime.NumEpochs != nil {
			dst.TrainingTime.NumEpochs = *src.TrainingTime.NumEpochs
		}
		if src.TrainingTime.EarlyStoppingPatience != nil {
			dst.TrainingTime.EarlyStoppingPatience = *src.TrainingTime.EarlyStoppingPatience
		}
		if src.TrainingTime.EarlyStoppingEpsilon != nil {
			dst.TrainingTime.EarlyStoppingEpsilon = *src.TrainingTime.EarlyStoppingEpsilon
		}
	}
	if src.Scheduler != nil {
		if src.Scheduler.InitialLR != nil {
			dst.Scheduler.InitialLR = *src.Scheduler.InitialLR
		}
		if src.Scheduler.LRScheduler != nil {
			if src.Scheduler.LRScheduler.Name != "" {
				dst.Scheduler.LRScheduler.Name = src.Scheduler.LRScheduler.Name
			}
			if src.Scheduler.LRScheduler.BaseLR != nil {
				dst.Scheduler.LRScheduler.BaseLR = *src.Scheduler.LRScheduler.BaseLR
			}
			if src.Scheduler.LRScheduler.MaxLR != nil {
				dst.Scheduler.LRScheduler.MaxLR = *src.Scheduler.LRScheduler.MaxLR
			}
		}
	}
	if src.BalanceSamples != nil {
		if src.BalanceSamples.Applied != nil {
			dst.BalanceSamples.Applied = *src.BalanceSamples.Applied
		}
		if src.BalanceSamples.Type != "" {
			dst.BalanceSamples.Type = src.BalanceSamples.Type
		}
	}
	if src.MixupAlpha != nil {
		dst.MixupAlpha = *src.MixupAlpha
	}
	if src.TransferLearning != nil {
		if src.TransferLearning.RetrainModel != "" {
			dst.TransferLearning.RetrainModel = src.TransferLearning.RetrainModel
		}
		if src.TransferLearning.RetrainFraction != nil {
			dst.TransferLearning.RetrainFraction = *src.TransferLearning.RetrainFraction
		}
		if src.TransferLearning.Reset != nil {
			dst.TransferLearning.Reset = *src.TransferLearning.Reset
		}
	}
}

func mergeModelSection(dst *ModelSettings, src *ModelFileConfig) {
	if src == nil {
		return
	}
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.DropoutRate != nil {
		dst.DropoutRate = *src.DropoutRate
	}
	if src.BNMomentum != nil {
		dst.BNMomentum = *src.BNMomentum
	}
	if src.FinalActivation != "" {
		dst.FinalActivation = src.FinalActivation
	}
	if src.Depth != nil {
		dst.Depth = *src.Depth
	}
	if src.Is2D != nil {
		dst.Is2D = *src.Is2D
	}
}

func mergeUncertaintySection(dst *UncertaintySettings, src *UncertaintyFileConfig) {
	if src == nil {
		return
	}
	if src.Epistemic != nil {
		dst.Epistemic = *src.Epistemic
	}
	if src.Aleatoric != nil {
		dst.Aleatoric = *src.Aleatoric
	}
	if src.NIt != nil {
		dst.NIt = *src.NIt
	}
}

func mergePostprocessingSection(dst *PostprocessingSettings, src *PostprocessingFileConfig) {
	if src == nil {
		return
	}
	if src.RemoveNoise != nil && src.RemoveNoise.Thr != nil {
		dst.RemoveNoiseThr = *src.RemoveNoise.Thr
	}
	if src.BinarizePrediction != nil && src.BinarizePrediction.Thr != nil {
		dst.BinarizePredictionThr = *src.BinarizePrediction.Thr
	}
	if src.KeepLargest != nil {
		dst.KeepLargest = true
	}
	if src.FillHoles != nil {
		dst.FillHoles = true
	}
	if src.RemoveSmall != nil {
		if src.RemoveSmall.Unit != "" {
			dst.RemoveSmall.Unit = src.RemoveSmall.Unit
		}
		if src.RemoveSmall.Thr != nil {
			dst.RemoveSmall.Thr = *src.RemoveSmall.Thr
		}
	}
	if src.Uncertainty != nil {
		if src.Uncertainty.Thr != nil {
			dst.Uncertainty.Thr = *src.Uncertainty.Thr
		}
		if src.Uncertainty.Suffix != "" {
			dst.Uncertainty.Suffix = src.Uncertainty.Suffix
		}
	}
}

func mergeEvaluationSection(dst *EvaluationSettings, src *EvaluationFileConfig) {
	if src == nil {
		return
	}
	if src.TargetSize != nil {
		if src.TargetSize.Unit != "" {
			dst.TargetSize.Unit = src.TargetSize.Unit
		}
		if src.TargetSize.Thr != nil {
			dst.TargetSize.Thr = src.TargetSize.Thr
		}
	}
	if src.Overlap != nil {
		if src.Overlap.Unit != "" {
			dst.Overlap.Unit = src.Overlap.Unit
		}
		if src.Overlap.Thr != nil {
			dst.Overlap.Thr = *src.Overlap.Thr
		}
	}
}

func mergeWandBSection(dst *WandBSettings, src *WandBFileConfig) {
	if src == nil {
		return
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.ProjectName != "" {
		dst.ProjectName = src.ProjectName
	}
	if src.GroupName != "" {
		dst.GroupName = src.GroupName
	}
	if src.RunName != "" {
		dst.RunName = src.RunName
	}
	if src.LogGradHist != nil {
		dst.LogGradHist = *src.LogGradHist
	}
}
