package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vk/stagegraph/internal/pipeerr"
)

// Export is the envelope the engine imports: exactly one of PipelineConfig and
// PipelineFragmentConfig is set.
type Export struct {
	PipelineConfig         *Document `json:"pipelineConfig,omitempty"`
	PipelineFragmentConfig *Document `json:"pipelineFragmentConfig,omitempty"`
	PipelineRules          Rules     `json:"pipelineRules"`
	FragmentCommitIDs      []string  `json:"fragmentCommitIds,omitempty"`
}

// Document returns the wrapped document and whether it is a fragment.
func (e *Export) Document() (*Document, bool, error) {
	switch {
	case e.PipelineConfig != nil && e.PipelineFragmentConfig != nil:
		return nil, false, &pipeerr.MalformedError{Subject: "export", Reason: "holds both a pipeline and a fragment"}
	case e.PipelineFragmentConfig != nil:
		return e.PipelineFragmentConfig, true, nil
	case e.PipelineConfig != nil:
		return e.PipelineConfig, false, nil
	}
	return nil, false, &pipeerr.MalformedError{Subject: "export", Reason: "holds neither a pipeline nor a fragment"}
}

// Encode writes the export as indented JSON.
func (e *Export) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// ReadExport decodes an export envelope.
func ReadExport(r io.Reader) (*Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	if _, _, err := e.Document(); err != nil {
		return nil, err
	}
	return &e, nil
}

// ReadExportFile decodes the export envelope stored at path.
func ReadExportFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export %s: %w", path, err)
	}
	defer f.Close()

	e, err := ReadExport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// ReadFragment decodes an export that must hold a fragment.
func ReadFragment(r io.Reader) (*Document, error) {
	e, err := ReadExport(r)
	if err != nil {
		return nil, err
	}
	doc, fragment, _ := e.Document()
	if !fragment {
		return nil, &pipeerr.MalformedError{Subject: "export", Reason: "holds a pipeline, expected a fragment"}
	}
	return doc, nil
}
