package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"algoscope/internal/pipeline"
	"algoscope/internal/trace"
)

// BundleVersion is the trace file format version.
const BundleVersion = 1

// CompressedExt marks trace files that are zstd-compressed.
const CompressedExt = ".zst"

// Bundle is the content of a trace file.
type Bundle struct {
	Version    int          `json:"version"`
	Generated  string       `json:"generated"`
	AnalysisID string       `json:"analysis_id,omitempty"`
	Pattern    string       `json:"algorithm_pattern,omitempty"`
	Executor   string       `json:"executor,omitempty"`
	Truncated  bool         `json:"truncated"`
	StepCount  int          `json:"step_count"`
	Steps      []trace.Step `json:"execution_steps"`
}

// bundleHeader mirrors Bundle with the steps left raw for DecodeSteps.
type bundleHeader struct {
	Version    int             `json:"version"`
	Generated  string          `json:"generated"`
	AnalysisID string          `json:"analysis_id,omitempty"`
	Pattern    string          `json:"algorithm_pattern,omitempty"`
	Executor   string          `json:"executor,omitempty"`
	Truncated  bool            `json:"truncated"`
	StepCount  int             `json:"step_count"`
	Steps      json.RawMessage `json:"execution_steps"`
}

// NewBundle packages the steps of an analysis.
func NewBundle(a *pipeline.AlgorithmAnalysis) *Bundle {
	b := &Bundle{
		Version:    BundleVersion,
		Generated:  time.Now().UTC().Format(time.RFC3339),
		AnalysisID: a.ID,
		Pattern:    string(a.PrimaryPattern),
		StepCount:  len(a.Steps),
		Steps:      a.Steps,
	}
	if a.Summary != nil {
		b.Executor = a.Summary.Executor
		b.Truncated = a.Summary.Truncated
	}
	return b
}

// MarshalBundle renders a bundle as JSON.
func MarshalBundle(b *Bundle) ([]byte, error) {
	steps, err := EncodeSteps(b.Steps)
	if err != nil {
		return nil, err
	}
	return json.Marshal(bundleHeader{
		Version:    b.Version,
		Generated:  b.Generated,
		AnalysisID: b.AnalysisID,
		Pattern:    b.Pattern,
		Executor:   b.Executor,
		Truncated:  b.Truncated,
		StepCount:  len(b.Steps),
		Steps:      steps,
	})
}

// UnmarshalBundle parses the output of MarshalBundle.
func UnmarshalBundle(data []byte) (*Bundle, error) {
	var h bundleHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decoding trace bundle: %w", err)
	}
	if h.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported trace bundle version %d", h.Version)
	}
	steps, err := DecodeSteps(h.Steps)
	if err != nil {
		return nil, err
	}
	if len(steps) != h.StepCount {
		return nil, fmt.Errorf("trace bundle declares %d steps, holds %d", h.StepCount, len(steps))
	}
	return &Bundle{
		Version:    h.Version,
		Generated:  h.Generated,
		AnalysisID: h.AnalysisID,
		Pattern:    h.Pattern,
		Executor:   h.Executor,
		Truncated:  h.Truncated,
		StepCount:  h.StepCount,
		Steps:      steps,
	}, nil
}

// WriteTraceFile writes b to path through a temporary file and a rename. A path
// ending in CompressedExt is zstd-compressed.
func WriteTraceFile(path string, b *Bundle) error {
	data, err := MarshalBundle(b)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create trace directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".trace-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writePayload(tmp, data, compressed(path)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename trace file: %w", err)
	}
	return nil
}

func writePayload(w io.Writer, data []byte, zst bool) error {
	if !zst {
		_, err := w.Write(data)
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("compress trace: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

// ReadTraceFile reads a file written by WriteTraceFile.
func ReadTraceFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if compressed(path) {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		if data, err = io.ReadAll(dec); err != nil {
			return nil, fmt.Errorf("decompress trace: %w", err)
		}
	}
	return UnmarshalBundle(data)
}

func compressed(path string) bool {
	return strings.HasSuffix(path, CompressedExt)
}
