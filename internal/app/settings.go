package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/vk/stagegraph/internal/pipeline"
)

// EnvPrefix prefixes environment variables overriding settings. A double
// underscore separates nested keys: STAGEGRAPH_LOG__LEVEL sets log.level.
const EnvPrefix = "STAGEGRAPH_"

// Settings holds everything an App run needs.
type Settings struct {
	// Definitions is the engine's JSON definitions export.
	Definitions string `koanf:"definitions"`
	// Blueprint is an HCL file or a directory of them.
	Blueprint string `koanf:"blueprint"`
	// Output is the export path; "-" writes to the app output.
	Output string `koanf:"output"`
	// Base is an optional export to start from instead of an empty skeleton.
	Base   string `koanf:"base"`
	KeepID bool   `koanf:"keep_id"`
	// FragmentsDir resolves relative fragment paths. When empty they are
	// resolved against the blueprint file declaring them.
	FragmentsDir  string `koanf:"fragments_dir"`
	SchemaVersion int    `koanf:"schema_version"`
	ValidateOnly  bool   `koanf:"validate"`

	Engine EngineSettings `koanf:"engine"`
	Log    LogSettings    `koanf:"log"`
}

// EngineSettings describes the engine the export targets.
type EngineSettings struct {
	Version string `koanf:"version"`
}

// LogSettings configures the application logger.
type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var defaultSettings = map[string]any{
	"output":         "-",
	"schema_version": pipeline.DefaultSchemaVersion,
	"log.level":      "info",
	"log.format":     "text",
}

// LoadSettings layers the built-in defaults, the optional YAML file at path,
// STAGEGRAPH_* environment variables and overrides, later layers winning.
// Override keys use the dotted koanf form, e.g. "log.level".
func LoadSettings(path string, overrides map[string]any) (*Settings, error) {
	k := koanf.New(".")
	for key, v := range defaultSettings {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load settings file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load settings from environment: %w", err)
	}

	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.Log.Level = strings.ToLower(s.Log.Level)
	s.Log.Format = strings.ToLower(s.Log.Format)
	return &s, nil
}

// Validate reports settings an App cannot run with.
func (s *Settings) Validate() error {
	var errs []error
	if s.Blueprint == "" {
		errs = append(errs, errors.New("blueprint is a required setting and cannot be empty"))
	}
	if s.Definitions == "" {
		errs = append(errs, errors.New("definitions is a required setting and cannot be empty"))
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, errors.New("invalid log level: must be 'debug', 'info', 'warn', or 'error'"))
	}
	if s.Log.Format != "text" && s.Log.Format != "json" {
		errs = append(errs, errors.New("invalid log format: must be 'text' or 'json'"))
	}
	if s.SchemaVersion < 1 {
		errs = append(errs, fmt.Errorf("invalid schema version %d", s.SchemaVersion))
	}
	return errors.Join(errs...)
}
