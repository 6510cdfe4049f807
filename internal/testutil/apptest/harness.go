// Package apptest runs the application end to end against files written to a
// temporary directory.
package apptest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stagegraph/internal/app"
	"github.com/vk/stagegraph/internal/hcl"
	"github.com/vk/stagegraph/internal/pipeline"
	"github.com/vk/stagegraph/internal/testutil"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Result holds the outcomes of one run.
type Result struct {
	Dir       string
	Output    string
	LogOutput string
	Err       error
}

// Export decodes the export the run wrote to its output.
func (r *Result) Export(t *testing.T) *pipeline.Export {
	t.Helper()
	require.NoError(t, r.Err)
	exp, err := pipeline.ReadExport(bytes.NewBufferString(r.Output))
	require.NoError(t, err)
	return exp
}

// Run writes files under a temporary root next to definitions.json, which
// holds the shared fixture, and runs the app on the "pipeline" directory.
// configure may adjust the settings before the run; relative paths in them
// are resolved against the root.
func Run(t *testing.T, files map[string]string, configure func(dir string, s *app.Settings)) *Result {
	t.Helper()
	return RunWithContext(context.Background(), t, files, configure)
}

// RunWithContext is Run with a caller-provided context.
func RunWithContext(ctx context.Context, t *testing.T, files map[string]string, configure func(dir string, s *app.Settings)) *Result {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pipeline"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "definitions.json"), []byte(testutil.DefinitionsJSON), 0o644))
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	settings := &app.Settings{
		Definitions:   filepath.Join(dir, "definitions.json"),
		Blueprint:     filepath.Join(dir, "pipeline"),
		Output:        "-",
		SchemaVersion: pipeline.DefaultSchemaVersion,
		Log:           app.LogSettings{Level: "debug", Format: "text"},
	}
	if configure != nil {
		configure(dir, settings)
	}

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	err := app.NewApp(out, logs, settings, hcl.NewLoader()).Run(ctx)

	if os.Getenv("STAGEGRAPH_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}
	return &Result{Dir: dir, Output: out.String(), LogOutput: logs.String(), Err: err}
}
