// SPDX-License-Identifier: MIT

package config

import (
	"os"

	"github.com/ivadomed/ivadoconf/internal/log"
)

// mergeEnvConfig overlays IVADO_* environment variables. Environment wins
// over file and defaults; this is how container deployments inject the
// per-node bits (GPU assignment, output path, secrets) without editing the
// shared document.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	l.ParseString("IVADO_COMMAND", &cfg.Command)
	l.ParseString("IVADO_PATH_OUTPUT", &cfg.PathOutput)
	l.ParseString("IVADO_MODEL_NAME", &cfg.ModelName)
	l.ParseBool("IVADO_DEBUGGING", &cfg.Debugging)
	l.ParseString("IVADO_LOG_LEVEL", &cfg.LogLevel)
	l.ParseString("IVADO_LOG_SERVICE", &cfg.LogService)
	l.ParseBool("IVADO_CONFIG_STRICT", &cfg.ConfigStrict)

	l.ParseString("IVADO_LISTEN", &cfg.APIListenAddr)
	l.ParseBool("IVADO_METRICS_ENABLED", &cfg.MetricsEnabled)

	l.ParseInt("IVADO_RANDOM_SEED", &cfg.Split.RandomSeed)
	l.ParseFloat("IVADO_TRAIN_FRACTION", &cfg.Split.TrainFraction)
	l.ParseFloat("IVADO_TEST_FRACTION", &cfg.Split.TestFraction)
	l.ParseInt("IVADO_BATCH_SIZE", &cfg.Training.BatchSize)
	l.ParseInt("IVADO_NUM_EPOCHS", &cfg.Training.TrainingTime.NumEpochs)
	l.ParseFloat("IVADO_INITIAL_LR", &cfg.Training.Scheduler.InitialLR)

	l.ParseString("IVADO_WANDB_API_KEY", &cfg.WandB.APIKey)

	if v := os.Getenv("IVADO_GPU_IDS"); v != "" {
		ids, err := ParseGPUIDs(v)
		if err != nil {
			logger := log.WithComponent("config")
			logger.Warn().
				Str(log.FieldKey, "IVADO_GPU_IDS").
				Str("value", v).
				Err(err).
				Msg("invalid gpu list in environment, ignoring")
		} else {
			cfg.GPUIDs = ids
			l.consumeEnv("IVADO_GPU_IDS")
		}
	}
}
