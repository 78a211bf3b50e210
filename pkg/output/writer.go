// Package output writes result and error artifacts.
//
// An artifact is a single JSON object, either {"result": [[...]]} or
// {"error": "..."}. It is written to a temporary file in the destination
// directory and renamed into place, so readers never observe a partial file.
// The destination extension selects compression as in package compression.
package output

import (
	"os"
	"path/filepath"

	"github.com/ajitpratap0/lae/pkg/compression"
	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/json"
)

// Artifact is the on-disk document.
type Artifact struct {
	Result [][]float64 `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Options controls how artifacts are encoded.
type Options struct {
	// Indent pretty-prints the JSON document
	Indent bool
	// Level is used when the path selects a compressed format
	Level compression.Level
	// Mode is the permission of the final file; 0 means 0644
	Mode os.FileMode
}

// Writer writes artifacts with fixed options.
type Writer struct {
	opts Options
}

// NewWriter returns a Writer using opts.
func NewWriter(opts Options) *Writer {
	if opts.Level == 0 {
		opts.Level = compression.Default
	}
	if opts.Mode == 0 {
		opts.Mode = 0o644
	}
	return &Writer{opts: opts}
}

// WriteResult writes {"result": matrix} to path.
func (w *Writer) WriteResult(path string, matrix [][]float64) error {
	if matrix == nil {
		matrix = [][]float64{}
	}
	return w.write(path, resultDocument{Result: matrix})
}

// WriteError writes {"error": message} to path.
func (w *Writer) WriteError(path, message string) error {
	return w.write(path, Artifact{Error: message})
}

// resultDocument keeps an empty result visible in the output.
type resultDocument struct {
	Result [][]float64 `json:"result"`
}

func (w *Writer) write(path string, doc interface{}) error {
	encoded, err := json.Encode(doc, w.opts.Indent)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode artifact")
	}

	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: compression.ForPath(path),
		Level:     w.opts.Level,
	})
	if err != nil {
		return err
	}
	data, err := comp.Compress(encoded)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to compress artifact").
			WithDetail("algorithm", string(comp.Algorithm()))
	}

	return writeAtomic(path, data, w.opts.Mode)
}

// writeAtomic replaces path with data through a temporary sibling file.
func writeAtomic(path string, data []byte, mode os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create temporary file").
			WithDetail("path", path)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write artifact").WithDetail("path", path)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to sync artifact").WithDetail("path", path)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close artifact").WithDetail("path", path)
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to set artifact mode").WithDetail("path", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to move artifact into place").WithDetail("path", path)
	}
	return nil
}

// ReadArtifact reads an artifact written by Writer, decompressing by extension.
func ReadArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read artifact").WithDetail("path", path)
	}
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: compression.ForPath(path)})
	if err != nil {
		return nil, err
	}
	data, err := comp.Decompress(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress artifact").WithDetail("path", path)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "malformed artifact").WithDetail("path", path)
	}
	return &a, nil
}
