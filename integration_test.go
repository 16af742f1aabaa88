package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/logger"
	"sjsage522/catalogworker/services/export"
)

// A raw export in the catalog API envelope. The second product has no
// price and must never reach the output under any identifier.
const integrationInput = `{
  "data": {
    "amazonProductCategory": {
      "productResults": {
        "results": [
          {
            "asin": "B016",
            "title": "Acme 16GB DDR4 3200MHz CL16 Black",
            "price": {"value": "$80.00", "symbol": "$"},
            "brand": "Acme",
            "url": "https://www.amazon.com/dp/B016?dib=abc&dib_tag=se",
            "technicalSpecifications": [
              {"name": "Color", "value": "Black"},
              {"name": "Voltage", "value": 1.2}
            ],
            "variants": [
              {"asin": "B032", "text": "32GB", "price": {"value": 140, "symbol": "$"}}
            ]
          },
          {
            "asin": "BFREE",
            "title": "Zeta 8GB DDR4 2666MHz",
            "brand": "Zeta",
            "variants": [{"asin": "BFREE2", "text": "16GB"}]
          }
        ]
      }
    }
  }
}`

func setupIntegration(t *testing.T) (input, output, filters string) {
	t.Helper()
	dir := t.TempDir()
	input = filepath.Join(dir, "amazon-query-result.json")
	output = filepath.Join(dir, "out", "memory-cards.json")
	filters = filepath.Join(dir, "out", "product-filters.json")
	require.NoError(t, os.WriteFile(input, []byte(integrationInput), 0o644))

	for _, key := range []string{"SQLITE_PATH", "XLSX_PATH", "DATABASE_URL", "REDIS_ADDR", "MEMCACHE_ADDR", "METRICS_PATH", "RUN_INTERVAL_SECONDS", "MERGE_POLICY", "DEFAULT_VOLTAGE", "FILTERS_PATH"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	logger.InitWithWriter(os.Stderr)
	return input, output, filters
}

func TestCatalogRunEndToEnd(t *testing.T) {
	input, output, filters := setupIntegration(t)
	sqlitePath := filepath.Join(filepath.Dir(output), "catalog.db")
	t.Setenv("SQLITE_PATH", sqlitePath)

	rootCmd.SetArgs([]string{"run", "--input", input, "--output", output, "--filters", filters})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var doc struct {
		Date  string                   `json:"date"`
		RunID string                   `json:"runId"`
		Data  []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Regexp(t, `^\d{2}/\d{2}/\d{4}, \d{2}:\d{2}$`, doc.Date)
	assert.NotEmpty(t, doc.RunID)
	require.Len(t, doc.Data, 2)

	first, second := doc.Data[0], doc.Data[1]
	assert.Equal(t, "B032", first["id"])
	assert.Equal(t, "Acme 32GB DDR4 3200MHz CL16 Black", first["title"])
	assert.Equal(t, 32.0, first["capacityGB"])
	assert.Equal(t, 4.38, first["pricePerUnitCapacity"])
	assert.Equal(t, "4.38", first["pricePerUnitCapacityFormatted"])

	assert.Equal(t, "B016", second["id"])
	assert.Equal(t, 16.0, second["capacityGB"])
	assert.Equal(t, 3200.0, second["speedMHz"])
	assert.Equal(t, "CL16", second["latency"])
	assert.Equal(t, "DDR4", second["memoryTechnology"])
	assert.Equal(t, "Black", second["color"])
	assert.Equal(t, 1.2, second["voltage"])
	assert.Equal(t, 5.0, second["pricePerUnitCapacity"])
	assert.Equal(t, "5.00", second["pricePerUnitCapacityFormatted"])
	assert.Equal(t, "https://www.amazon.com/dp/B016?tag=accentiofinde-20", second["url"])

	for _, r := range doc.Data {
		assert.NotContains(t, []interface{}{"BFREE", "BFREE2"}, r["id"])
	}

	var sidecar export.Filters
	raw, err := os.ReadFile(filters)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &sidecar))
	assert.Equal(t, []string{"Acme"}, sidecar.Brands)

	assert.FileExists(t, sqlitePath)
}

func TestFiltersCommand(t *testing.T) {
	input, output, filters := setupIntegration(t)

	rootCmd.SetArgs([]string{"run", "--input", input, "--output", output, "--filters", filters})
	require.NoError(t, rootCmd.Execute())
	require.NoError(t, os.Remove(filters))

	rootCmd.SetArgs([]string{"filters", "--output", output, "--filters", filters})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filters)
}

func TestCatalogRunMissingInput(t *testing.T) {
	_, output, filters := setupIntegration(t)

	rootCmd.SetArgs([]string{"run", "--input", filepath.Join(t.TempDir(), "missing.json"), "--output", output, "--filters", filters})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.NoFileExists(t, output)
}

func TestCatalogRunInvalidMergePolicy(t *testing.T) {
	input, output, filters := setupIntegration(t)

	rootCmd.SetArgs([]string{"run", "--input", input, "--output", output, "--filters", filters, "--merge-policy", "newest"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERGE_POLICY")
}
