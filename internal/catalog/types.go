package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Text is a JSON value read as text. Catalog exports are inconsistent about
// quoting spec values, so numbers and booleans are accepted and null becomes "".
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

var amountRegex = regexp.MustCompile(`-?[0-9][0-9,]*(?:\.[0-9]+)?`)

// Amount is a price value that may arrive as a JSON number or a formatted string such as "$1,299.99"
type Amount float64

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Amount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	match := amountRegex.FindString(s)
	if match == "" {
		*a = Amount(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		*a = Amount(math.NaN())
		return nil
	}
	*a = Amount(v)
	return nil
}

// Price is a price as received from the catalog API
type Price struct {
	Value  *Amount `json:"value"`
	Symbol string  `json:"symbol"`
}

// Usable returns the price value when it is present, finite and positive
func (p *Price) Usable() (float64, bool) {
	if p == nil || p.Value == nil {
		return 0, false
	}
	v := float64(*p.Value)
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Spec is one row of a technical specification table
type Spec struct {
	Name  string `json:"name"`
	Value Text   `json:"value"`
}

// Specs is a technical specification table. Row order carries no meaning.
type Specs []Spec

// Lookup returns the first non-empty value whose name matches case-insensitively
func (s Specs) Lookup(name string) (string, bool) {
	for _, spec := range s {
		if strings.EqualFold(strings.TrimSpace(spec.Name), name) {
			value := strings.TrimSpace(string(spec.Value))
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// Variant is a purchasable configuration listed under a product
type Variant struct {
	ASIN         string   `json:"asin"`
	Text         string   `json:"text"`
	Title        string   `json:"title,omitempty"`
	Price        *Price   `json:"price"`
	URL          string   `json:"url"`
	Rating       *float64 `json:"rating"`
	RatingsTotal *int     `json:"ratingsTotal"`
	IsNew        *bool    `json:"isNew"`
}

// RawItem is a product or a variant as received
type RawItem struct {
	ASIN                    string    `json:"asin"`
	Title                   string    `json:"title"`
	VariantText             string    `json:"_variantText,omitempty"`
	EarlierVariantTexts     []string  `json:"-"`
	Price                   *Price    `json:"price"`
	TechnicalSpecifications Specs     `json:"technicalSpecifications"`
	FeatureBullets          []string  `json:"featureBullets"`
	Brand                   string    `json:"brand"`
	URL                     string    `json:"url"`
	Rating                  *float64  `json:"rating"`
	RatingsTotal            *int      `json:"ratingsTotal"`
	IsNew                   *bool     `json:"isNew"`
	Variants                []Variant `json:"variants,omitempty"`
}

// HasVariants reports whether the product lists any variants
func (r *RawItem) HasVariants() bool {
	return len(r.Variants) > 0
}

// AsItem builds the RawItem for variant v, inheriting the parent's
// specification table, bullets, brand and, when v has none, url and ratings.
func (r *RawItem) AsItem(v Variant, title string) RawItem {
	item := RawItem{
		ASIN:                    v.ASIN,
		Title:                   title,
		VariantText:             v.Text,
		Price:                   v.Price,
		TechnicalSpecifications: r.TechnicalSpecifications,
		FeatureBullets:          r.FeatureBullets,
		Brand:                   r.Brand,
		URL:                     v.URL,
		Rating:                  v.Rating,
		RatingsTotal:            v.RatingsTotal,
		IsNew:                   v.IsNew,
	}
	if item.URL == "" {
		item.URL = r.URL
	}
	if item.Rating == nil {
		item.Rating = r.Rating
	}
	if item.RatingsTotal == nil {
		item.RatingsTotal = r.RatingsTotal
	}
	if item.IsNew == nil {
		item.IsNew = r.IsNew
	}
	return item
}
