package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"sjsage522/catalogworker/helpers"
	"sjsage522/catalogworker/pkg/errors"
)

const loadStage = "load"

// envelope is the response shape of the catalog API query
type envelope struct {
	Data *struct {
		AmazonProductCategory *struct {
			ProductResults *struct {
				Results json.RawMessage `json:"results"`
			} `json:"productResults"`
		} `json:"amazonProductCategory"`
	} `json:"data"`
	Results json.RawMessage `json:"results"`
}

// LoadFile reads and decodes the raw catalog document at path
func LoadFile(path string) ([]RawItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInput(loadStage, fmt.Sprintf("cannot read %s", path), err)
	}
	return Decode(data)
}

// Decode parses a raw catalog document. Accepted shapes are the API envelope
// (data.amazonProductCategory.productResults.results), an object with a
// top-level "results" list, or a bare list of products.
func Decode(data []byte) ([]RawItem, error) {
	data, err := helpers.ToUTF8(data, "application/json")
	if err != nil {
		return nil, errors.NewInput(loadStage, "cannot decode document text", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.NewInput(loadStage, "document is empty", nil)
	}

	var list json.RawMessage
	switch trimmed[0] {
	case '[':
		list = trimmed
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, errors.NewInput(loadStage, "malformed document", err)
		}
		switch {
		case env.Data != nil && env.Data.AmazonProductCategory != nil &&
			env.Data.AmazonProductCategory.ProductResults != nil &&
			len(env.Data.AmazonProductCategory.ProductResults.Results) > 0:
			list = env.Data.AmazonProductCategory.ProductResults.Results
		case len(env.Results) > 0:
			list = env.Results
		default:
			return nil, errors.NewInput(loadStage, "document has no product results list", nil)
		}
	default:
		return nil, errors.NewInput(loadStage, "document is neither an object nor a list", nil)
	}

	if bytes.Equal(bytes.TrimSpace(list), []byte("null")) {
		return nil, errors.NewInput(loadStage, "product results list is null", nil)
	}

	var items []RawItem
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, errors.NewInput(loadStage, "product results are not a list of products", err)
	}
	return items, nil
}
