// Package snapshot keeps the latest batch of each domain as a JSON file next
// to its workbook.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/pkg/errors"
)

// Writer replaces the snapshot file at Path with each batch it is given.
type Writer struct {
	Path string
}

// NewWriter creates a writer for path.
func NewWriter(path string) *Writer {
	return &Writer{Path: path}
}

// Write stores batch at w.Path. The file is written to a temporary name in
// the same directory and renamed over the old one, so readers never see a
// partial snapshot.
func (w *Writer) Write(batch *price.Batch) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return errors.NewWrite(w.Path, "encoding snapshot", err)
	}

	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewWrite(w.Path, "creating snapshot directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".*")
	if err != nil {
		return errors.NewWrite(w.Path, "creating temporary snapshot", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.NewWrite(w.Path, "writing snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewWrite(w.Path, "syncing snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewWrite(w.Path, "closing snapshot", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return errors.NewWrite(w.Path, "replacing snapshot", err)
	}
	return nil
}

// Read loads the snapshot at path.
func Read(path string) (*price.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b price.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.NewParsing(path, "decoding snapshot", err)
	}
	return &b, nil
}
