// Package pipeline turns raw catalog items into the deduplicated, validated catalog.
package pipeline

import (
	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/pkg/errors"
)

const stageProcess = "processor"

// Rejection reasons reported in validation errors and run statistics
const (
	ReasonNoID              = "no_id"
	ReasonNoPrice           = "no_price"
	ReasonContaminatedTitle = "contaminated_title"
	ReasonContaminatedBrand = "contaminated_brand"
	ReasonContaminatedURL   = "contaminated_url"
)

// Processor normalizes one raw item into a record
type Processor struct {
	Canonicalizer  *extract.Canonicalizer
	DefaultVoltage *float64
}

// NewProcessor creates a new item processor
func NewProcessor(canonicalizer *extract.Canonicalizer, defaultVoltage *float64) *Processor {
	return &Processor{
		Canonicalizer:  canonicalizer,
		DefaultVoltage: defaultVoltage,
	}
}

// Process validates item and composes its record. Items without a usable
// price, or whose title, brand or url cannot be salvaged, are rejected with
// a validation error whose message is the rejection reason.
func (p *Processor) Process(item *catalog.RawItem) (*catalog.Record, error) {
	price, ok := item.Price.Usable()
	if !ok {
		return nil, errors.NewValidation(stageProcess, ReasonNoPrice)
	}

	title, verdict := extract.Sanitize(item.Title)
	if verdict == extract.Rejected {
		return nil, errors.NewValidation(stageProcess, ReasonContaminatedTitle)
	}
	if verdict == extract.Clean {
		title = extract.CleanText(title)
	}

	brand, verdict := extract.Sanitize(item.Brand)
	if verdict == extract.Rejected {
		return nil, errors.NewValidation(stageProcess, ReasonContaminatedBrand)
	}
	if verdict == extract.Clean {
		brand = extract.CleanText(brand)
	}

	url, verdict := extract.Sanitize(item.URL)
	switch verdict {
	case extract.Rejected:
		return nil, errors.NewValidation(stageProcess, ReasonContaminatedURL)
	case extract.Salvaged:
		// device codes are not a link
		url = ""
	default:
		if p.Canonicalizer != nil {
			url = p.Canonicalizer.Canonicalize(url)
		}
	}

	x := extract.Item{
		Title:               title,
		VariantText:         item.VariantText,
		EarlierVariantTexts: item.EarlierVariantTexts,
		Specs:               item.TechnicalSpecifications,
	}
	flags := extract.FeatureFlags(title)

	record := &catalog.Record{
		ID:                item.ASIN,
		Title:             title,
		Price:             &price,
		Symbol:            item.Price.Symbol,
		CapacityGB:        extract.Capacity(x),
		SpeedMHz:          extract.Speed(x),
		Latency:           extract.Latency(x),
		MemoryTechnology:  extract.MemoryTechnology(x),
		FormFactor:        extract.FormFactor(x),
		Color:             extract.Color(x),
		Voltage:           extract.Voltage(x, p.DefaultVoltage),
		CompatibleDevices: extract.CompatibleDevices(x),
		XMPReady:          flags.XMP,
		EXPOReady:         flags.EXPO,
		RGB:               flags.RGB,
		ECC:               flags.ECC,
		FeatureBullets:    cleanBullets(item.FeatureBullets),
		Rating:            item.Rating,
		RatingsTotal:      item.RatingsTotal,
		Brand:             brand,
		IsNew:             item.IsNew,
		URL:               url,
	}
	record.UpdatePricePerUnit()

	return record, nil
}

// cleanBullets drops contaminated bullets and cleans the rest
func cleanBullets(bullets []string) []string {
	if len(bullets) == 0 {
		return nil
	}
	out := make([]string, 0, len(bullets))
	for _, b := range bullets {
		text, verdict := extract.Sanitize(b)
		if verdict != extract.Clean {
			continue
		}
		if text = extract.CleanText(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// ReasonOf returns the rejection reason carried by err
func ReasonOf(err error) string {
	if pe, ok := errors.As(err); ok && pe.Type == errors.ErrorTypeValidation {
		return pe.Message
	}
	return "error"
}
