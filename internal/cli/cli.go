package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/stagegraph/internal/app"
	"github.com/vk/stagegraph/internal/pipeline"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flagKeys maps each flag to the settings key it overrides. Shorthands share
// the key of their long form.
var flagKeys = map[string]string{
	"definitions":    "definitions",
	"d":              "definitions",
	"output":         "output",
	"o":              "output",
	"base":           "base",
	"keep-id":        "keep_id",
	"fragments-dir":  "fragments_dir",
	"schema-version": "schema_version",
	"engine-version": "engine.version",
	"validate":       "validate",
	"log-format":     "log.format",
	"log-level":      "log.level",
}

// Parse processes command-line arguments. It returns the layered settings,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Only flags given explicitly override the settings file and environment.
func Parse(args []string, output io.Writer) (*app.Settings, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("stagegraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
stagegraph - Builds engine pipeline exports from declarative blueprints.

Usage:
  stagegraph [options] [BLUEPRINT]

Arguments:
  BLUEPRINT
    Path to a single .hcl file or a directory containing .hcl files.

Settings are read from the -config file, then STAGEGRAPH_* environment
variables (STAGEGRAPH_LOG__LEVEL for log.level), then these options.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a YAML settings file.")
	definitions := flagSet.String("definitions", "", "Path to the engine definitions JSON export.")
	flagSet.StringVar(definitions, "d", "", "Path to the engine definitions JSON export (shorthand).")
	outputFlag := flagSet.String("output", "-", "Path of the export to write. '-' writes to standard output.")
	flagSet.StringVar(outputFlag, "o", "-", "Path of the export to write (shorthand).")
	baseFlag := flagSet.String("base", "", "Export to start from instead of an empty pipeline.")
	keepIDFlag := flagSet.Bool("keep-id", false, "Keep the id of the -base export.")
	fragmentsFlag := flagSet.String("fragments-dir", "", "Directory relative fragment paths are resolved against.")
	schemaFlag := flagSet.Int("schema-version", pipeline.DefaultSchemaVersion, "Schema version of new documents.")
	engineFlag := flagSet.String("engine-version", "", "Engine version the export targets, e.g. 3.19.0.")
	validateFlag := flagSet.Bool("validate", false, "Only build and report warnings; write no export.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	values := map[string]any{
		"definitions":    *definitions,
		"output":         *outputFlag,
		"base":           *baseFlag,
		"keep_id":        *keepIDFlag,
		"fragments_dir":  *fragmentsFlag,
		"schema_version": *schemaFlag,
		"engine.version": *engineFlag,
		"validate":       *validateFlag,
		"log.format":     *logFormatFlag,
		"log.level":      *logLevelFlag,
	}
	overrides := make(map[string]any)
	flagSet.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = values[key]
		}
	})
	if flagSet.NArg() > 0 {
		overrides["blueprint"] = flagSet.Arg(0)
	}

	settings, err := app.LoadSettings(*configFlag, overrides)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if settings.Blueprint == "" {
		slog.Debug("No blueprint provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if err := settings.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "settings", settings)
	return settings, false, nil
}
