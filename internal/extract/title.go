package extract

import (
	"regexp"
	"strings"

	"sjsage522/catalogworker/logger"
)

var (
	capacityTokenRegex    = regexp.MustCompile(`(?i)\b\d+\s?GB\b`)
	variantMultiPackRegex = regexp.MustCompile(`(?i)^\d+\s?x\s?\d+\s?GB$`)
	multiPackTokenRegex   = regexp.MustCompile(`(?i)\d+\s?x\s?\d+\s?GB`)
	ddrSpeedRegex         = regexp.MustCompile(`(?i)DDR\d-(\d{4})`)
	speedTokenRegex       = regexp.MustCompile(`(?i)\d+\s?(?:MHz|MT/s)`)
	latencyTokenRegex     = regexp.MustCompile(`(?i)CL\s?\d+`)
)

// paletteWordRegex holds a word-bounded matcher per palette color
var paletteWordRegex = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(Palette))
	for _, c := range Palette {
		m[c] = regexp.MustCompile(`(?i)\b` + c + `\b`)
	}
	return m
}()

// titleRule derives the replacement token from a variant descriptor and the
// pattern locating the token it replaces in the base title
type titleRule struct {
	name    string
	token   func(descriptor string) (string, bool)
	targets func(token string) []*regexp.Regexp
}

// titleRules are tried in order; the first one that changes the base title wins
var titleRules = []titleRule{
	{
		name: "capacity",
		token: func(d string) (string, bool) {
			t := capacityTokenRegex.FindString(d)
			return t, t != ""
		},
		targets: only(capacityTokenRegex),
	},
	{
		name: "multi-pack",
		token: func(d string) (string, bool) {
			t := variantMultiPackRegex.FindString(d)
			return t, t != ""
		},
		targets: only(multiPackTokenRegex),
	},
	{
		name:    "speed",
		token:   speedToken,
		targets: only(speedTokenRegex),
	},
	{
		name: "latency",
		token: func(d string) (string, bool) {
			m := variantLatencyRegex.FindStringSubmatch(d)
			if m == nil {
				return "", false
			}
			return "CL" + m[1], true
		},
		targets: only(latencyTokenRegex),
	},
	{
		name:  "color",
		token: PaletteColor,
		targets: func(color string) []*regexp.Regexp {
			out := make([]*regexp.Regexp, 0, len(Palette)-1)
			for _, c := range Palette {
				if c != color {
					out = append(out, paletteWordRegex[c])
				}
			}
			return out
		},
	},
}

func only(re *regexp.Regexp) func(string) []*regexp.Regexp {
	return func(string) []*regexp.Regexp { return []*regexp.Regexp{re} }
}

// speedToken normalizes a MHz, MT/s or DDRn-NNNN descriptor to "<N>MHz"
func speedToken(d string) (string, bool) {
	if m := mhzRegex.FindStringSubmatch(d); m != nil {
		return m[1] + "MHz", true
	}
	if m := mtsRegex.FindStringSubmatch(d); m != nil {
		return m[1] + "MHz", true
	}
	if m := ddrSpeedRegex.FindStringSubmatch(d); m != nil {
		return m[1] + "MHz", true
	}
	return "", false
}

// SynthesizeTitle derives a variant's title by substituting the token its
// descriptor names (capacity, multi-pack, speed, latency or color) into base.
// When nothing can be substituted, base is returned unchanged.
func SynthesizeTitle(base, descriptor string) (title string) {
	descriptor = strings.TrimSpace(descriptor)
	if base == "" || descriptor == "" {
		return base
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ForPipeline().Warn().
				Interface("panic", r).
				Str("descriptor", descriptor).
				Str("base_title", base).
				Msg("Variant title synthesis failed, keeping base title")
			title = base
		}
	}()

	for _, rule := range titleRules {
		token, ok := rule.token(descriptor)
		if !ok {
			continue
		}
		for _, target := range rule.targets(token) {
			if replaced := replaceFirst(target, base, token); replaced != base {
				return replaced
			}
		}
	}
	return base
}

// replaceFirst replaces the leftmost match of re in s with the literal repl
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
