package export

import (
	"context"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/pkg/errors"
)

// CatalogSink writes the catalog document as indented JSON
type CatalogSink struct {
	Path string
}

// NewCatalogSink creates a new catalog JSON sink
func NewCatalogSink(path string) *CatalogSink {
	return &CatalogSink{Path: path}
}

// Name implements Sink
func (s *CatalogSink) Name() string {
	return "catalog"
}

// Write implements Sink
func (s *CatalogSink) Write(ctx context.Context, doc *catalog.Document) error {
	if err := writeJSONAtomic(s.Path, doc); err != nil {
		return errors.NewOutput(s.Name(), "failed to write "+s.Path, err)
	}
	return nil
}
