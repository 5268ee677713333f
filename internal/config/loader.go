// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivadomed/ivadoconf/internal/log"
)

// Loader assembles the effective AppConfig with the precedence
// Defaults < File < Environment.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys records which IVADO_* variables actually overrode a
	// value, for the startup log and the /api/v1/config endpoint.
	ConsumedEnvKeys []string
}

// NewLoader returns a Loader for the given document path.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load runs the full pipeline and returns the validated effective config.
func (l *Loader) Load() (*AppConfig, error) {
	cfg, err := l.setDefaults()
	if err != nil {
		return nil, err
	}

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return nil, err
		}
		if err := mergeFileConfig(cfg, fileCfg); err != nil {
			return nil, err
		}
	}

	l.mergeEnvConfig(cfg)

	if cfg.PathOutput != "" && !filepath.IsAbs(cfg.PathOutput) {
		abs, err := filepath.Abs(cfg.PathOutput)
		if err != nil {
			return nil, fmt.Errorf("resolve path_output: %w", err)
		}
		cfg.PathOutput = abs
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	logger := log.WithComponent("config")
	logger.Info().
		Str(log.FieldConfigPath, l.configPath).
		Str(log.FieldConfigVersion, EffectiveConfigVersion(*cfg)).
		Str(log.FieldCommand, cfg.Command).
		Str(log.FieldModel, cfg.Model.Name).
		Int("env_overrides", len(l.ConsumedEnvKeys)).
		Msg("configuration loaded")

	return cfg, nil
}

// LoadBytes runs the pipeline on an in-memory document. format is "json" or
// "yaml". Used by the validation API, which never touches the filesystem.
func (l *Loader) LoadBytes(data []byte, format string) (*AppConfig, error) {
	cfg, err := l.setDefaults()
	if err != nil {
		return nil, err
	}

	fileCfg, err := l.parseDocument(data, format)
	if err != nil {
		return nil, err
	}
	if err := mergeFileConfig(cfg, fileCfg); err != nil {
		return nil, err
	}

	l.mergeEnvConfig(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) setDefaults() (*AppConfig, error) {
	reg, err := GetRegistry()
	if err != nil {
		return nil, fmt.Errorf("config registry: %w", err)
	}

	cfg := &AppConfig{}
	if err := reg.ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	cfg.Version = l.version
	return cfg, nil
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		format = "yaml"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	return l.parseDocument(data, format)
}

func (l *Loader) parseDocument(data []byte, format string) (*FileConfig, error) {
	// Legacy keys are detected on the raw document first, so a v1 config
	// gets a migration hint instead of an opaque unknown-field error.
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, err
	}
	if err := CheckDeprecations(raw, l.strict()); err != nil {
		return nil, err
	}

	var fileCfg FileConfig
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fileCfg); err != nil {
			return nil, classifyDecodeError(err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fileCfg); err != nil {
			return nil, classifyDecodeError(err)
		}
		var extra FileConfig
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config file contains multiple YAML documents")
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return &fileCfg, nil
}

// strict reports whether legacy keys abort loading. Strictness has to be
// known before the merged config exists, so it is read from the environment
// directly (default on).
func (l *Loader) strict() bool {
	if v := os.Getenv("IVADO_CONFIG_STRICT"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return true
}

func decodeRaw(data []byte, format string) (map[string]any, error) {
	raw := make(map[string]any)
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return raw, nil
}

// classifyDecodeError wraps unknown-field decode errors with
// ErrUnknownConfigField so callers can branch without string matching.
func classifyDecodeError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unknown field") || strings.Contains(msg, "not found in type") {
		return fmt.Errorf("%w: %s", ErrUnknownConfigField, msg)
	}
	return fmt.Errorf("parse config: %w", err)
}
