package extract

import (
	"net/url"

	"sjsage522/catalogworker/logger"
)

// Canonicalizer normalizes outbound product links
type Canonicalizer struct {
	TrackingParams []string
	AffiliateTag   string
	log            *logger.Logger
}

// NewCanonicalizer creates a canonicalizer dropping trackingParams and setting tag=affiliateTag
func NewCanonicalizer(affiliateTag string, trackingParams []string, log *logger.Logger) *Canonicalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Canonicalizer{
		TrackingParams: trackingParams,
		AffiliateTag:   affiliateTag,
		log:            log,
	}
}

// Canonicalize removes tracking query parameters and sets the affiliate tag.
// Malformed or relative URLs are returned unchanged.
func (c *Canonicalizer) Canonicalize(raw string) string {
	if raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		c.log.Warn().Err(err).Str("url", raw).Msg("Could not canonicalize URL, keeping original")
		return raw
	}

	q := u.Query()
	for _, p := range c.TrackingParams {
		q.Del(p)
	}
	if c.AffiliateTag != "" {
		q.Set("tag", c.AffiliateTag)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
