package export

import (
	"strings"

	"sjsage522/catalogworker/internal/catalog"
)

// tableName is the relational table holding the catalog
const tableName = "memory_catalog"

// column describes one exported field of a record
type column struct {
	name    string
	sqlType string
	pgType  string
	value   func(r *catalog.Record) interface{}
}

// columns lists the exported fields in output order; id comes first
var columns = []column{
	{"id", "TEXT PRIMARY KEY", "TEXT PRIMARY KEY", func(r *catalog.Record) interface{} { return r.ID }},
	{"title", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.Title }},
	{"display_title", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.DisplayTitle }},
	{"brand", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.Brand }},
	{"price", "REAL", "DOUBLE PRECISION", func(r *catalog.Record) interface{} { return nullable(r.Price) }},
	{"symbol", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.Symbol }},
	{"capacity_gb", "INTEGER", "INTEGER", func(r *catalog.Record) interface{} { return r.CapacityGB }},
	{"speed_mhz", "INTEGER", "INTEGER", func(r *catalog.Record) interface{} { return nullable(r.SpeedMHz) }},
	{"latency", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.Latency }},
	{"memory_technology", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.MemoryTechnology }},
	{"form_factor", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.FormFactor }},
	{"color", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.Color }},
	{"voltage", "REAL", "DOUBLE PRECISION", func(r *catalog.Record) interface{} { return nullable(r.Voltage) }},
	{"compatible_devices", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.CompatibleDevices }},
	{"price_per_gb", "REAL", "DOUBLE PRECISION", func(r *catalog.Record) interface{} { return r.PricePerUnitCapacity }},
	{"xmp_ready", "INTEGER", "BOOLEAN", func(r *catalog.Record) interface{} { return r.XMPReady }},
	{"expo_ready", "INTEGER", "BOOLEAN", func(r *catalog.Record) interface{} { return r.EXPOReady }},
	{"rgb", "INTEGER", "BOOLEAN", func(r *catalog.Record) interface{} { return r.RGB }},
	{"ecc", "INTEGER", "BOOLEAN", func(r *catalog.Record) interface{} { return r.ECC }},
	{"rating", "REAL", "DOUBLE PRECISION", func(r *catalog.Record) interface{} { return nullable(r.Rating) }},
	{"ratings_total", "INTEGER", "INTEGER", func(r *catalog.Record) interface{} { return nullable(r.RatingsTotal) }},
	{"is_new", "INTEGER", "BOOLEAN", func(r *catalog.Record) interface{} { return nullable(r.IsNew) }},
	{"url", "TEXT", "TEXT", func(r *catalog.Record) interface{} { return r.URL }},
}

// nullable dereferences p, mapping nil to a NULL value
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func columnNames() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

func rowValues(r *catalog.Record) []interface{} {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c.value(r)
	}
	return values
}

// createTableSQL returns the CREATE TABLE statement using the sqlite or postgres types
func createTableSQL(postgres bool) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		t := c.sqlType
		if postgres {
			t = c.pgType
		}
		defs[i] = c.name + " " + t
	}
	return "CREATE TABLE IF NOT EXISTS " + tableName + " (" + strings.Join(defs, ", ") + ")"
}
