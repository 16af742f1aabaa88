// Package export writes the finalized catalog to its outputs.
package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"sjsage522/catalogworker/internal/catalog"
)

// Sink receives the finalized catalog document
type Sink interface {
	// Name identifies the sink in logs and metrics
	Name() string

	// Write stores the document
	Write(ctx context.Context, doc *catalog.Document) error
}

// writeJSONAtomic encodes v with two-space indentation and replaces path with
// it in one rename, so readers never observe a partial file
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
