package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vk/stagegraph/internal/builder"
	"github.com/vk/stagegraph/internal/config"
	"github.com/vk/stagegraph/internal/ctxlog"
	"github.com/vk/stagegraph/internal/definitions"
	"github.com/vk/stagegraph/internal/pipeerr"
	"github.com/vk/stagegraph/internal/pipeline"
)

// App encapsulates the application's dependencies, settings and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	settings *Settings
	loader   config.Loader

	fragments map[string]*pipeline.Document
}

// NewApp is the constructor for the main application. Exports go to outW,
// logs to logW.
func NewApp(outW, logW io.Writer, settings *Settings, loader config.Loader) *App {
	logger := newLogger(settings.Log.Level, settings.Log.Format, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:      outW,
		logger:    logger,
		settings:  settings,
		loader:    loader,
		fragments: make(map[string]*pipeline.Document),
	}
}

// ValidationError is returned by a validating run whose build produced
// warnings.
type ValidationError struct {
	Warnings []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline has %d warning(s)", len(e.Warnings))
}

// Run loads the definitions and the blueprint, builds the document and
// writes its export, or only reports warnings when validating.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	s := a.settings
	a.logger.Debug("App.Run method started.", "blueprint", s.Blueprint, "definitions", s.Definitions)

	defs, err := definitions.LoadFile(ctx, s.Definitions)
	if err != nil {
		return err
	}

	bp, err := a.loader.Load(ctx, s.Blueprint)
	if err != nil {
		return fmt.Errorf("failed to load blueprint: %w", err)
	}
	a.logger.Info("Blueprint loaded.", "title", bp.Title, "nodes", len(bp.Nodes), "fragment", bp.Fragment)

	opts := []builder.Option{
		builder.WithEngineVersion(s.Engine.Version),
		builder.WithSchemaVersion(s.SchemaVersion),
	}
	if bp.Fragment {
		opts = append(opts, builder.AsFragment())
	}
	b, err := builder.New(defs, nil, opts...)
	if err != nil {
		return err
	}

	if s.Base != "" {
		exp, err := pipeline.ReadExportFile(s.Base)
		if err != nil {
			return err
		}
		if err := b.ImportPipeline(exp, !s.KeepID); err != nil {
			return fmt.Errorf("failed to import %s: %w", s.Base, err)
		}
		a.logger.Debug("Base export imported.", "path", s.Base, "keep_id", s.KeepID)
	}

	if err := b.Apply(ctx, bp, a.readFragment); err != nil {
		return fmt.Errorf("failed to apply blueprint %q: %w", bp.Title, err)
	}
	doc, err := b.Build(ctx, bp.Title)
	if err != nil {
		return fmt.Errorf("failed to build %q: %w", bp.Title, err)
	}

	if s.ValidateOnly {
		return a.report(doc, b.Warnings())
	}
	if err := a.write(b.Export()); err != nil {
		return err
	}

	a.logger.Info("Export written.", "id", doc.ID(), "output", s.Output, "warnings", len(b.Warnings()))
	a.logger.Debug("App.Run method finished.")
	return nil
}

// readFragment reads, once per path, the fragment export a blueprint node
// refers to.
func (a *App) readFragment(ctx context.Context, ref *config.FragmentRef) (*pipeline.Document, error) {
	path := ref.Path
	if !filepath.IsAbs(path) {
		base := ref.Dir
		if a.settings.FragmentsDir != "" {
			base = a.settings.FragmentsDir
		}
		path = filepath.Join(base, path)
	}
	if doc, ok := a.fragments[path]; ok {
		return doc, nil
	}

	exp, err := pipeline.ReadExportFile(path)
	if err != nil {
		return nil, err
	}
	doc, isFragment, _ := exp.Document()
	if !isFragment {
		return nil, &pipeerr.MalformedError{Subject: path, Reason: "holds a pipeline, expected a fragment"}
	}
	a.fragments[path] = doc
	ctxlog.FromContext(ctx).Debug("Fragment read.", "path", path, "title", doc.Title)
	return doc, nil
}

func (a *App) report(doc *pipeline.Document, warnings []error) error {
	for _, w := range warnings {
		fmt.Fprintf(a.outW, "warning: %s\n", w)
	}
	if len(warnings) > 0 {
		return &ValidationError{Warnings: warnings}
	}
	fmt.Fprintf(a.outW, "%s: %d stage(s), no warnings\n", doc.Title, len(doc.Stages))
	return nil
}

func (a *App) write(exp *pipeline.Export) error {
	if a.settings.Output == "" || a.settings.Output == "-" {
		return exp.Encode(a.outW)
	}

	f, err := os.Create(a.settings.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", a.settings.Output, err)
	}
	if err := exp.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
