package pipeline

import (
	"regexp"
	"strings"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/logger"
)

// MergePolicy decides how a repeated variant identifier updates its stored record
type MergePolicy string

const (
	// PolicyMerge combines field by field; new non-default values win
	PolicyMerge MergePolicy = "merge"
	// PolicyReplace replaces the stored record with the latest result
	PolicyReplace MergePolicy = "replace"
)

// accessoryRegex matches variant descriptors that are not a memory configuration
var accessoryRegex = regexp.MustCompile(`(?i)\b(?:fans?|coolers?|heatsinks?|light\s*kits?|adapters?|brackets?|cables?|tools?|accessor(?:y|ies))\b`)

// configurationRegex matches the capacity, speed or latency token of a memory configuration
var configurationRegex = regexp.MustCompile(`(?i)\b(?:\d+\s?x\s?)?\d+\s?(?:GB|MHz|MT/s)\b|\bCL\s?\d+\b|\bDDR\d-\d{4}\b`)

// IsAccessory reports whether a variant descriptor names a bundled accessory.
// A descriptor carrying a configuration token ("16GB with Heatsink") is a
// memory configuration, not an accessory.
func IsAccessory(descriptor string) bool {
	return accessoryRegex.MatchString(descriptor) && !configurationRegex.MatchString(descriptor)
}

// Stats counts what the engine saw and what it did with it
type Stats struct {
	Products        int
	Variants        int
	SkippedVariants int
	Stored          int
	Updated         int
	Rejections      map[string]int
}

// Rejected returns the total number of rejected observations
func (s Stats) Rejected() int {
	n := 0
	for _, c := range s.Rejections {
		n += c
	}
	return n
}

// Engine reconciles products and their variants into one record per identifier
type Engine struct {
	processor *Processor
	policy    MergePolicy
	store     *Store
	stats     Stats
	log       *logger.Logger

	// descriptors seen so far per variant id, oldest first
	descriptors map[string][]string
}

// NewEngine creates a new engine with an empty store
func NewEngine(processor *Processor, policy MergePolicy, log *logger.Logger) *Engine {
	if policy == "" {
		policy = PolicyMerge
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		processor:   processor,
		policy:      policy,
		store:       NewStore(),
		stats:       Stats{Rejections: make(map[string]int)},
		log:         log,
		descriptors: make(map[string][]string),
	}
}

// Store returns the engine's record store
func (e *Engine) Store() *Store {
	return e.store
}

// Stats returns a copy of the engine's counters
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Rejections = make(map[string]int, len(e.stats.Rejections))
	for k, v := range e.stats.Rejections {
		s.Rejections[k] = v
	}
	return s
}

// Reconcile feeds every product through the engine in input order
func (e *Engine) Reconcile(products []catalog.RawItem) {
	for i := range products {
		e.AddProduct(&products[i])
	}
}

// AddProduct processes product's variants in order, then the product itself.
// The product record is stored only when no variant already claimed its id.
func (e *Engine) AddProduct(product *catalog.RawItem) {
	e.stats.Products++

	for _, v := range product.Variants {
		e.stats.Variants++
		if v.ASIN == "" || IsAccessory(v.Text) {
			e.stats.SkippedVariants++
			e.log.Debug().
				Str("parent", product.ASIN).
				Str("variant", v.ASIN).
				Str("descriptor", v.Text).
				Msg("Skipping variant")
			continue
		}
		e.addVariant(product, v)
	}

	if product.ASIN == "" {
		e.reject(product.ASIN, ReasonNoID)
		return
	}
	if _, seen := e.store.Get(product.ASIN); seen {
		return
	}

	record, err := e.processor.Process(product)
	if err != nil {
		e.reject(product.ASIN, ReasonOf(err))
		return
	}
	e.store.Put(record)
	e.stats.Stored++
}

func (e *Engine) addVariant(product *catalog.RawItem, v catalog.Variant) {
	stored, seen := e.store.Get(v.ASIN)

	base := product.Title
	if seen {
		base = stored.Title
	}
	item := product.AsItem(v, extract.SynthesizeTitle(base, v.Text))
	if seen && e.policy == PolicyMerge {
		// Earlier descriptors keep outranking the parent's title and
		// specification table on every later sighting.
		item.EarlierVariantTexts = e.descriptors[v.ASIN]
	}

	record, err := e.processor.Process(&item)
	if err != nil {
		e.reject(v.ASIN, ReasonOf(err))
		return
	}

	if !seen {
		e.store.Put(record)
		e.descriptors[v.ASIN] = []string{v.Text}
		e.stats.Stored++
		return
	}

	if e.policy == PolicyReplace {
		e.store.Put(record)
		e.descriptors[v.ASIN] = []string{v.Text}
	} else {
		Merge(stored, record)
		e.descriptors[v.ASIN] = append(e.descriptors[v.ASIN], v.Text)
	}
	e.stats.Updated++
}

func (e *Engine) reject(id, reason string) {
	e.stats.Rejections[reason]++
	e.log.Debug().
		Str("id", id).
		Str("reason", reason).
		Msg("Item rejected")
}

// Merge folds src into dst. Values in src win unless they are unknown
// (0, nil, "" or "N/A"); feature flags are sticky once set. The price per GB
// is recomputed from the merged price and capacity.
func Merge(dst, src *catalog.Record) {
	mergeString(&dst.Title, src.Title)
	mergeString(&dst.Symbol, src.Symbol)
	mergeString(&dst.Latency, src.Latency)
	mergeString(&dst.MemoryTechnology, src.MemoryTechnology)
	mergeString(&dst.FormFactor, src.FormFactor)
	mergeString(&dst.Color, src.Color)
	mergeString(&dst.CompatibleDevices, src.CompatibleDevices)
	mergeString(&dst.Brand, src.Brand)
	mergeString(&dst.URL, src.URL)

	if src.Price != nil {
		dst.Price = src.Price
	}
	if src.CapacityGB > 0 {
		dst.CapacityGB = src.CapacityGB
	}
	if src.SpeedMHz != nil {
		dst.SpeedMHz = src.SpeedMHz
	}
	if src.Voltage != nil {
		dst.Voltage = src.Voltage
	}
	if src.Rating != nil {
		dst.Rating = src.Rating
	}
	if src.RatingsTotal != nil {
		dst.RatingsTotal = src.RatingsTotal
	}
	if src.IsNew != nil {
		dst.IsNew = src.IsNew
	}
	if len(src.FeatureBullets) > 0 {
		dst.FeatureBullets = src.FeatureBullets
	}

	dst.XMPReady = dst.XMPReady || src.XMPReady
	dst.EXPOReady = dst.EXPOReady || src.EXPOReady
	dst.RGB = dst.RGB || src.RGB
	dst.ECC = dst.ECC || src.ECC

	dst.UpdatePricePerUnit()
}

func mergeString(dst *string, src string) {
	if src = strings.TrimSpace(src); src != "" && src != catalog.NotAvailable {
		*dst = src
	}
}
