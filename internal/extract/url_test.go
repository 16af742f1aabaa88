package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCanonicalizer() *Canonicalizer {
	return NewCanonicalizer("accentiofinde-20", []string{"dib", "dib_tag"}, nil)
}

func TestCanonicalize(t *testing.T) {
	c := newTestCanonicalizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"tracking removed and tag set",
			"https://www.amazon.com/dp/B0TEST?dib=abc&dib_tag=se&th=1",
			"https://www.amazon.com/dp/B0TEST?tag=accentiofinde-20&th=1",
		},
		{
			"existing tag overwritten",
			"https://www.amazon.com/dp/B0TEST?tag=someone-else-21",
			"https://www.amazon.com/dp/B0TEST?tag=accentiofinde-20",
		},
		{
			"no query",
			"https://www.amazon.com/dp/B0TEST",
			"https://www.amazon.com/dp/B0TEST?tag=accentiofinde-20",
		},
		{"relative kept", "/dp/B0TEST?dib=abc", "/dp/B0TEST?dib=abc"},
		{"malformed kept", "https://www.amazon.com/%zz?dib=1", "https://www.amazon.com/%zz?dib=1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Canonicalize(tt.raw))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := newTestCanonicalizer()
	once := c.Canonicalize("https://www.amazon.com/dp/B0TEST?dib=abc&psc=1")
	assert.Equal(t, once, c.Canonicalize(once))
}

func TestCanonicalizeWithoutAffiliateTag(t *testing.T) {
	c := NewCanonicalizer("", []string{"dib"}, nil)
	assert.Equal(t, "https://example.com/p?x=1", c.Canonicalize("https://example.com/p?dib=2&x=1"))
}
