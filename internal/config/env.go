// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"

	"github.com/ivadomed/ivadoconf/internal/log"
)

// ParseString reads a string environment variable and records the override.
func (l *Loader) ParseString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
		l.consumeEnv(key)
	}
}

// ParseBool reads a boolean environment variable. Invalid values are logged
// and ignored so a typo never silently flips a flag.
func (l *Loader) ParseBool(key string, target *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str(log.FieldKey, key).
			Str("value", v).
			Msg("invalid boolean in environment, ignoring")
		return
	}
	*target = parsed
	l.consumeEnv(key)
}

// ParseInt reads an integer environment variable.
func (l *Loader) ParseInt(key string, target *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str(log.FieldKey, key).
			Str("value", v).
			Msg("invalid integer in environment, ignoring")
		return
	}
	*target = parsed
	l.consumeEnv(key)
}

// ParseFloat reads a float environment variable.
func (l *Loader) ParseFloat(key string, target *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str(log.FieldKey, key).
			Str("value", v).
			Msg("invalid float in environment, ignoring")
		return
	}
	*target = parsed
	l.consumeEnv(key)
}

func (l *Loader) consumeEnv(key string) {
	l.ConsumedEnvKeys = append(l.ConsumedEnvKeys, key)
	logger := log.WithComponent("config")
	logger.Debug().
		Str(log.FieldKey, key).
		Str(log.FieldSource, "env").
		Msg("environment override applied")
}
