// Package extract recovers structured memory attributes from noisy catalog text.
//
// Every attribute is read through an ordered chain of strategies: the variant
// descriptor first, then the title, then named technical-specification rows.
// The first strategy that matches wins and the rest are not tried. Variant
// descriptors use anchored patterns so that a descriptor like "16GB" is never
// read as some other attribute; titles use loose patterns and take the first
// plausible match.
package extract

import (
	"strconv"
	"strings"

	"sjsage522/catalogworker/internal/catalog"
)

// Item is the part of a raw item the extractors read
type Item struct {
	Title       string
	VariantText string
	// EarlierVariantTexts are descriptors from earlier sightings of the
	// same identifier, oldest first. They rank below VariantText.
	EarlierVariantTexts []string
	Specs               catalog.Specs
}

// FromRaw builds the extractor view of a raw item
func FromRaw(r *catalog.RawItem) Item {
	return Item{
		Title:               r.Title,
		VariantText:         strings.TrimSpace(r.VariantText),
		EarlierVariantTexts: r.EarlierVariantTexts,
		Specs:               r.TechnicalSpecifications,
	}
}

// descriptors returns the variant descriptors of item, newest first
func (item Item) descriptors() []string {
	out := make([]string, 0, len(item.EarlierVariantTexts)+1)
	if text := strings.TrimSpace(item.VariantText); text != "" {
		out = append(out, text)
	}
	for i := len(item.EarlierVariantTexts) - 1; i >= 0; i-- {
		if text := strings.TrimSpace(item.EarlierVariantTexts[i]); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// strategy tries to recover a value from one source of an item
type strategy[T any] func(Item) (T, bool)

// firstMatchOK applies strategies in order and returns the first successful result
func firstMatchOK[T any](item Item, strategies []strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(item); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// firstMatch is firstMatchOK with an explicit "not found" value
func firstMatch[T any](item Item, miss T, strategies []strategy[T]) T {
	if v, ok := firstMatchOK(item, strategies); ok {
		return v
	}
	return miss
}

// fromVariant tries every matcher on each variant descriptor, newest
// descriptor first, so a newer descriptor always outranks an older one
func fromVariant[T any](matches ...func(string) (T, bool)) strategy[T] {
	return func(item Item) (T, bool) {
		for _, text := range item.descriptors() {
			for _, match := range matches {
				if v, ok := match(text); ok {
					return v, true
				}
			}
		}
		var zero T
		return zero, false
	}
}

// fromTitle runs match on the title when there is one
func fromTitle[T any](match func(string) (T, bool)) strategy[T] {
	return func(item Item) (T, bool) {
		if item.Title == "" {
			var zero T
			return zero, false
		}
		return match(item.Title)
	}
}

// fromSpec runs match on the value of the named spec row when it exists
func fromSpec[T any](name string, match func(string) (T, bool)) strategy[T] {
	return func(item Item) (T, bool) {
		value, ok := item.Specs.Lookup(name)
		if !ok {
			var zero T
			return zero, false
		}
		return match(value)
	}
}

// fromSpecs expands to one fromSpec strategy per name, in order
func fromSpecs[T any](names []string, match func(string) (T, bool)) []strategy[T] {
	out := make([]strategy[T], 0, len(names))
	for _, name := range names {
		out = append(out, fromSpec(name, match))
	}
	return out
}

// atoi parses a captured digit run; overflow counts as a miss
func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
