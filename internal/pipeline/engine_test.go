package pipeline

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/internal/extract"
)

func variant(asin, text string, p float64) catalog.Variant {
	return catalog.Variant{ASIN: asin, Text: text, Price: price(p)}
}

func TestEngineProductWithoutVariants(t *testing.T) {
	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.Reconcile([]catalog.RawItem{acmeProduct()})

	require.Equal(t, 1, engine.Store().Len())
	record, ok := engine.Store().Get("B016")
	require.True(t, ok)
	assert.Equal(t, 16, record.CapacityGB)
	assert.Equal(t, 3200, *record.SpeedMHz)
	assert.Equal(t, "CL16", record.Latency)
	assert.Equal(t, "DDR4", record.MemoryTechnology)
	assert.Equal(t, "Black", record.Color)
	assert.Equal(t, 5.0, record.PricePerUnitCapacity)
}

func TestEngineCapacityVariant(t *testing.T) {
	product := acmeProduct()
	product.Variants = []catalog.Variant{variant("B032", "32GB", 140)}

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	require.Equal(t, 2, engine.Store().Len())
	record, ok := engine.Store().Get("B032")
	require.True(t, ok)
	assert.Equal(t, "Acme 32GB DDR4 3200MHz CL16 Black", record.Title)
	assert.Equal(t, 32, record.CapacityGB)
	assert.Equal(t, 4.38, record.PricePerUnitCapacity)
	assert.Equal(t, "4.38", record.PricePerUnitCapacityFormatted)
	assert.Equal(t, "Acme", record.Brand, "brand inherited from parent")
	assert.Equal(t, "https://www.amazon.com/dp/B016?tag=accentiofinde-20", record.URL, "url inherited from parent")

	parent, ok := engine.Store().Get("B016")
	require.True(t, ok)
	assert.Equal(t, 16, parent.CapacityGB)

	assert.Equal(t, []string{"B032", "B016"}, ids(engine.Store().Records()))
}

func TestEngineVariantClaimsProductID(t *testing.T) {
	product := acmeProduct()
	product.Variants = []catalog.Variant{variant("B016", "16GB", 75)}

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	require.Equal(t, 1, engine.Store().Len())
	record, _ := engine.Store().Get("B016")
	assert.Equal(t, 75.0, *record.Price)
}

func TestEngineSkipsVariants(t *testing.T) {
	product := acmeProduct()
	product.Variants = []catalog.Variant{
		variant("B0FAN", "Cooling Fan", 20),
		variant("B0KIT", "RGB Light Kit", 25),
		variant("", "32GB", 140),
		variant("B032", "32GB", 140),
		variant("B016H", "16GB with Heatsink", 85),
	}

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	stats := engine.Stats()
	assert.Equal(t, 1, stats.Products)
	assert.Equal(t, 5, stats.Variants)
	assert.Equal(t, 3, stats.SkippedVariants)
	assert.Equal(t, 3, stats.Stored)
	assert.ElementsMatch(t, []string{"B032", "B016H", "B016"}, ids(engine.Store().Records()))
}

func TestEngineNoPriceNeverStored(t *testing.T) {
	product := acmeProduct()
	product.Price = nil
	product.Variants = []catalog.Variant{
		{ASIN: "B032", Text: "32GB"},
		variant("B064", "64GB", 0),
	}

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	assert.Equal(t, 0, engine.Store().Len())
	stats := engine.Stats()
	assert.Equal(t, 3, stats.Rejections[ReasonNoPrice])
	assert.Equal(t, 3, stats.Rejected())
}

func TestEngineProductWithoutID(t *testing.T) {
	product := acmeProduct()
	product.ASIN = ""

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	assert.Equal(t, 0, engine.Store().Len())
	assert.Equal(t, 1, engine.Stats().Rejections[ReasonNoID])
}

func TestEngineSharpensRepeatedVariant(t *testing.T) {
	product := acmeProduct()
	product.Variants = []catalog.Variant{
		variant("B1", "32GB", 140),
		variant("B1", "3600MHz", 150),
	}

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	record, ok := engine.Store().Get("B1")
	require.True(t, ok)
	assert.Equal(t, "Acme 32GB DDR4 3600MHz CL16 Black", record.Title)
	assert.Equal(t, 32, record.CapacityGB)
	assert.Equal(t, 3600, *record.SpeedMHz)
	assert.Equal(t, 150.0, *record.Price)
	assert.Equal(t, 4.69, record.PricePerUnitCapacity)
	assert.Equal(t, 1, engine.Stats().Updated)
}

func TestEngineMergePolicies(t *testing.T) {
	build := func() *catalog.RawItem {
		product := acmeProduct()
		product.Title = "Acme 16GB DDR4 3200MHz CL16"
		product.TechnicalSpecifications = nil
		product.Variants = []catalog.Variant{
			variant("B2", "Red", 100),
			variant("B2", "32GB", 140),
		}
		return &product
	}

	merged := NewEngine(newTestProcessor(), PolicyMerge, nil)
	merged.AddProduct(build())
	m, _ := merged.Store().Get("B2")

	replaced := NewEngine(newTestProcessor(), PolicyReplace, nil)
	replaced.AddProduct(build())
	r, _ := replaced.Store().Get("B2")

	assert.Equal(t, "Red", m.Color)
	assert.Equal(t, "N/A", r.Color)

	for _, record := range []*catalog.Record{m, r} {
		assert.Equal(t, "Acme 32GB DDR4 3200MHz CL16", record.Title)
		assert.Equal(t, 32, record.CapacityGB)
		assert.Equal(t, 4.38, record.PricePerUnitCapacity)
	}
}

// A parent whose title carries no capacity token still lists its own size
// in the spec table; a repeated variant id must keep the size its earlier
// descriptor named instead of falling back to the parent's spec row.
func TestEngineRepeatedVariantKeepsDescriptorCapacity(t *testing.T) {
	orders := map[string][]catalog.Variant{
		"capacity then speed": {variant("X", "32GB", 140), variant("X", "3600MHz", 140)},
		"speed then capacity": {variant("X", "3600MHz", 140), variant("X", "32GB", 140)},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			product := acmeProduct()
			product.Title = "Acme DDR4 RAM 3200MHz"
			product.TechnicalSpecifications = append(product.TechnicalSpecifications,
				catalog.Spec{Name: extract.SpecMemorySize, Value: "16 GB"})
			product.Variants = order

			engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
			engine.AddProduct(&product)

			record, ok := engine.Store().Get("X")
			require.True(t, ok)
			assert.Equal(t, "Acme DDR4 RAM 3600MHz", record.Title)
			assert.Equal(t, 32, record.CapacityGB)
			assert.Equal(t, 3600, *record.SpeedMHz)
			assert.Equal(t, 4.38, record.PricePerUnitCapacity)

			parent, ok := engine.Store().Get("B016")
			require.True(t, ok)
			assert.Equal(t, 16, parent.CapacityGB)
		})
	}
}

func TestEngineRepeatedVariantKeepsDescriptorColor(t *testing.T) {
	product := acmeProduct()
	product.Title = "Acme 16GB DDR4 3200MHz White"
	product.TechnicalSpecifications = catalog.Specs{{Name: extract.SpecColor, Value: "White"}}
	product.Variants = []catalog.Variant{
		variant("Y", "Black", 100),
		variant("Y", "32GB", 140),
	}

	engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
	engine.AddProduct(&product)

	record, ok := engine.Store().Get("Y")
	require.True(t, ok)
	assert.Equal(t, "Acme 32GB DDR4 3200MHz Black", record.Title)
	assert.Equal(t, "Black", record.Color)
	assert.Equal(t, 32, record.CapacityGB)

	parent, _ := engine.Store().Get("B016")
	assert.Equal(t, "White", parent.Color)
}

func TestEngineReplaceForgetsEarlierDescriptors(t *testing.T) {
	product := acmeProduct()
	product.Title = "Acme 16GB DDR4 3200MHz White"
	product.TechnicalSpecifications = catalog.Specs{{Name: extract.SpecColor, Value: "White"}}
	product.Variants = []catalog.Variant{
		variant("Y", "Black", 100),
		variant("Y", "32GB", 140),
	}

	engine := NewEngine(newTestProcessor(), PolicyReplace, nil)
	engine.AddProduct(&product)

	record, ok := engine.Store().Get("Y")
	require.True(t, ok)
	assert.Equal(t, "White", record.Color)
	assert.Equal(t, 32, record.CapacityGB)
}

// Interleaving variants of different ids while keeping each id's own order
// must not change any id's capacity, speed or latency.
func TestEngineMergeStable(t *testing.T) {
	sequences := map[string][]catalog.Variant{
		"A": {variant("A", "32GB", 140), variant("A", "3600MHz", 150)},
		"B": {variant("B", "CL18", 90), variant("B", "DDR4-3600", 95)},
		"C": {variant("C", "2x8GB", 70), variant("C", "White", 72), variant("C", "CL14", 74)},
	}

	run := func(order []catalog.Variant) map[string]*catalog.Record {
		product := acmeProduct()
		product.Variants = order
		engine := NewEngine(newTestProcessor(), PolicyMerge, nil)
		engine.AddProduct(&product)
		out := make(map[string]*catalog.Record)
		for _, r := range engine.Store().Records() {
			out[r.ID] = r
		}
		return out
	}

	var reference []catalog.Variant
	for _, id := range []string{"A", "B", "C"} {
		reference = append(reference, sequences[id]...)
	}
	want := run(reference)

	faker := gofakeit.New(11)
	for i := 0; i < 50; i++ {
		got := run(interleave(faker, sequences))
		for id, w := range want {
			g, ok := got[id]
			require.True(t, ok, id)
			assert.Equal(t, w.CapacityGB, g.CapacityGB, id)
			assert.Equal(t, w.SpeedMHz, g.SpeedMHz, id)
			assert.Equal(t, w.Latency, g.Latency, id)
		}
	}
}

func interleave(faker *gofakeit.Faker, sequences map[string][]catalog.Variant) []catalog.Variant {
	queues := make(map[string][]catalog.Variant, len(sequences))
	var total int
	for id, seq := range sequences {
		queues[id] = seq
		total += len(seq)
	}

	out := make([]catalog.Variant, 0, total)
	for len(out) < total {
		var open []string
		for _, id := range []string{"A", "B", "C"} {
			if len(queues[id]) > 0 {
				open = append(open, id)
			}
		}
		id := open[faker.Number(0, len(open)-1)]
		out = append(out, queues[id][0])
		queues[id] = queues[id][1:]
	}
	return out
}

func TestIsAccessory(t *testing.T) {
	assert.True(t, IsAccessory("Cooling Fan"))
	assert.True(t, IsAccessory("RGB Light Kit"))
	assert.True(t, IsAccessory("Heatsink"))
	assert.True(t, IsAccessory("Accessories"))
	assert.False(t, IsAccessory("16GB with Heatsink"))
	assert.False(t, IsAccessory("2x8GB + Cooling Fan"))
	assert.False(t, IsAccessory("DDR4-3600 Heatsink Edition"))
	assert.False(t, IsAccessory("CL16 with tool"))
	assert.False(t, IsAccessory("32GB"))
	assert.False(t, IsAccessory("Tooling-free 16GB"))
	assert.False(t, IsAccessory("Black"))
}

func TestMerge(t *testing.T) {
	speed := 3200
	dst := &catalog.Record{
		ID: "X", Title: "Old", Price: floatPtr(100), CapacityGB: 16, SpeedMHz: &speed,
		Latency: "CL16", Color: "Red", RGB: true,
	}
	src := &catalog.Record{
		ID: "X", Title: "New", Price: floatPtr(120), CapacityGB: 32,
		Latency: catalog.NotAvailable, Color: "", XMPReady: true,
	}

	Merge(dst, src)

	assert.Equal(t, "New", dst.Title)
	assert.Equal(t, 120.0, *dst.Price)
	assert.Equal(t, 32, dst.CapacityGB)
	assert.Equal(t, 3200, *dst.SpeedMHz)
	assert.Equal(t, "CL16", dst.Latency)
	assert.Equal(t, "Red", dst.Color)
	assert.True(t, dst.RGB)
	assert.True(t, dst.XMPReady)
	assert.Equal(t, 3.75, dst.PricePerUnitCapacity)
}

func ids(records []*catalog.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func floatPtr(f float64) *float64 {
	return &f
}
