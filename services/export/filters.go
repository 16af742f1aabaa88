package export

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/pkg/errors"
)

// isoMillis is the UTC timestamp layout with milliseconds
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Filters is the brand filter sidecar read by the catalog front end
type Filters struct {
	LastUpdated string   `json:"lastUpdated"`
	Brands      []string `json:"brands"`
}

// FiltersSink writes the distinct brand list of the catalog
type FiltersSink struct {
	Path string
}

// NewFiltersSink creates a new brand filter sink
func NewFiltersSink(path string) *FiltersSink {
	return &FiltersSink{Path: path}
}

// Name implements Sink
func (s *FiltersSink) Name() string {
	return "filters"
}

// Write implements Sink
func (s *FiltersSink) Write(ctx context.Context, doc *catalog.Document) error {
	filters := Filters{
		LastUpdated: doc.GeneratedAt.UTC().Format(isoMillis),
		Brands:      Brands(doc.Data),
	}
	if err := writeJSONAtomic(s.Path, filters); err != nil {
		return errors.NewOutput(s.Name(), "failed to write "+s.Path, err)
	}
	return nil
}

// Brands returns the distinct, trimmed, non-empty brands in sorted order
func Brands(records []*catalog.Record) []string {
	seen := make(map[string]bool)
	brands := []string{}
	for _, r := range records {
		b := strings.TrimSpace(r.Brand)
		if b == "" || b == catalog.NotAvailable || seen[b] {
			continue
		}
		seen[b] = true
		brands = append(brands, b)
	}
	sort.Strings(brands)
	return brands
}

// ReadCatalog loads a previously written catalog document
func ReadCatalog(path string) (*catalog.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInput("catalog", "failed to read "+path, err)
	}
	var doc catalog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInput("catalog", "failed to parse "+path, err)
	}
	if doc.Data == nil {
		return nil, errors.NewInput("catalog", path+" has no data list", nil)
	}
	return &doc, nil
}
