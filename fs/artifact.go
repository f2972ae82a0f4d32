// Package fs provides file-based output for extracted page metadata.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/docsite"
)

// Ensure ArtifactWriter implements docsite.ArtifactWriter at compile time.
var _ docsite.ArtifactWriter = (*ArtifactWriter)(nil)

// ArtifactWriter writes page records as a JSON array with atomic update
// semantics. Records are saved to path.tmp and renamed to path on Commit.
type ArtifactWriter struct {
	path string
}

// NewArtifactWriter creates a new ArtifactWriter for the given output path.
func NewArtifactWriter(path string) *ArtifactWriter {
	return &ArtifactWriter{path: path}
}

func (w *ArtifactWriter) tempPath() string {
	return w.path + ".tmp"
}

// Save stages the records.
func (w *ArtifactWriter) Save(ctx context.Context, records []*docsite.PageRecord) error {
	if records == nil {
		records = []*docsite.PageRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(w.tempPath(), data, 0644)
}

// Commit replaces the output file with the staged records.
func (w *ArtifactWriter) Commit() error {
	return os.Rename(w.tempPath(), w.path)
}

// Abort discards the staged records.
func (w *ArtifactWriter) Abort() error {
	err := os.Remove(w.tempPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
