package extract

import (
	"regexp"
	"strconv"
	"strings"

	"sjsage522/catalogworker/internal/catalog"
)

// Spec row names read by the extractors
const (
	SpecMemorySize        = "Computer Memory Size"
	SpecMemorySpeed       = "Memory Speed"
	SpecCASLatency        = "CAS Latency"
	SpecSize              = "Size"
	SpecMemoryType        = "Computer Memory Type"
	SpecMemoryTechnology  = "RAM Memory Technology"
	SpecRAM               = "RAM"
	SpecFormFactor        = "Form Factor"
	SpecColor             = "Color"
	SpecVoltage           = "Voltage"
	SpecCompatibleDevices = "Compatible Devices"
)

var (
	variantCapacityRegex = regexp.MustCompile(`(?i)^(\d+)\s?GB`)
	titleCapacityRegex   = regexp.MustCompile(`(?i)(\d+)\s?GB`)
	digitsRegex          = regexp.MustCompile(`(\d+)`)
	mhzRegex             = regexp.MustCompile(`(?i)(\d+)\s?MHz`)
	mtsRegex             = regexp.MustCompile(`(?i)(\d+)\s?MT/s`)
	fourDigitRegex       = regexp.MustCompile(`\b(\d{4})\b`)
	variantLatencyRegex  = regexp.MustCompile(`(?i)^CL\s?(\d+)$`)
	titleLatencyRegex    = regexp.MustCompile(`(?i)CL\s?\d+`)
	specLatencyRegex     = regexp.MustCompile(`(?i)(\d+)\s?cl|cl\s?(\d+)`)
	bareNumberRegex      = regexp.MustCompile(`^\s*(\d+)\s*$`)
	variantVoltageRegex  = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s?V(?:olts?)?\b`)
	decimalRegex         = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	whitespaceRegex      = regexp.MustCompile(`\s+`)
)

// pattern pairs a canonical attribute value with the pattern that recognizes it
type pattern struct {
	name  string
	regex *regexp.Regexp
}

// memoryTechnologies is ordered from most to least specific; DDR3L must precede DDR3
var memoryTechnologies = []pattern{
	{"DDR5", regexp.MustCompile(`(?i)DDR5`)},
	{"DDR4", regexp.MustCompile(`(?i)DDR4`)},
	{"DDR3L", regexp.MustCompile(`(?i)DDR3L`)},
	{"DDR3", regexp.MustCompile(`(?i)DDR3`)},
	{"DDR2", regexp.MustCompile(`(?i)DDR2`)},
	{"DDR", regexp.MustCompile(`(?i)DDR\b`)},
}

// formFactors is ordered from the most specific packaging to the generic DIMM
var formFactors = []pattern{
	{"SODIMM", regexp.MustCompile(`(?i)\b(?:SO-?DIMM|Small\s*Outline)\b`)},
	{"MicroDIMM", regexp.MustCompile(`(?i)\bMicro-?DIMM\b`)},
	{"LRDIMM", regexp.MustCompile(`(?i)\b(?:LR-?DIMM|Load\s*Reduced)\b`)},
	{"RDIMM", regexp.MustCompile(`(?i)\b(?:R-?DIMM|Registered)\b`)},
	{"FBDIMM", regexp.MustCompile(`(?i)\b(?:FB-?DIMM|Fully\s*Buffered)\b`)},
	{"UDIMM", regexp.MustCompile(`(?i)\b(?:U-?DIMM|Unbuffered)\b`)},
	{"DIMM", regexp.MustCompile(`(?i)\bDIMM\b`)},
}

// Palette is the fixed set of color names recognized in variant descriptors
var Palette = []string{
	"Black", "White", "Red", "Blue", "Green", "Silver", "Gray",
	"Gold", "Pink", "Purple", "Orange", "Yellow", "Brown",
}

var (
	memorySpecNames     = []string{SpecMemoryType, SpecMemoryTechnology, SpecRAM}
	formFactorSpecNames = []string{SpecMemoryType, SpecMemoryTechnology, SpecRAM, SpecFormFactor}
)

// speed is a parsed speed figure and whether it was quoted as a transfer rate
type speed struct {
	value    int
	transfer bool
}

func (s speed) clockMHz() int {
	if s.transfer {
		return s.value / 2
	}
	return s.value
}

var (
	capacityChain = []strategy[int]{
		fromVariant(matchInt(variantCapacityRegex)),
		fromTitle(matchInt(titleCapacityRegex)),
		fromSpec(SpecMemorySize, matchInt(digitsRegex)),
	}

	speedChain = []strategy[speed]{
		fromVariant(
			matchSpeed(mhzRegex, false),
			matchSpeed(mtsRegex, true),
			matchSpeed(fourDigitRegex, false),
		),
		fromTitle(matchSpeed(mhzRegex, false)),
		fromTitle(matchSpeed(mtsRegex, true)),
		fromSpec(SpecMemorySpeed, matchSpecSpeed),
	}

	latencyChain = []strategy[string]{
		fromVariant(matchVariantLatency),
		fromTitle(matchTitleLatency),
		fromSpec(SpecCASLatency, matchCASLatency),
		fromSpec(SpecSize, matchSpecLatency),
	}

	memoryTechnologyChain = append(
		[]strategy[string]{fromTitle(matchFirst(memoryTechnologies))},
		fromSpecs(memorySpecNames, matchFirst(memoryTechnologies))...,
	)

	formFactorChain = append(
		[]strategy[string]{fromTitle(matchFirst(formFactors))},
		fromSpecs(formFactorSpecNames, matchFirst(formFactors))...,
	)

	colorChain = []strategy[string]{
		fromVariant(matchPalette),
		fromSpec(SpecColor, matchCleanText),
	}

	voltageChain = []strategy[float64]{
		fromVariant(matchFloat(variantVoltageRegex)),
		fromSpec(SpecVoltage, matchFloat(decimalRegex)),
	}

	compatibleDevicesChain = []strategy[string]{
		fromSpec(SpecCompatibleDevices, matchCleanText),
	}
)

// Capacity returns the memory size in GB, or 0 when unknown
func Capacity(item Item) int {
	return firstMatch(item, 0, capacityChain)
}

// Speed returns the clock speed in MHz, or nil when unknown. Transfer rates
// (MT/s) are halved with integer division.
func Speed(item Item) *int {
	s, ok := firstMatchOK(item, speedChain)
	if !ok {
		return nil
	}
	mhz := s.clockMHz()
	return &mhz
}

// Latency returns the CAS latency as "CL<n>", or "N/A"
func Latency(item Item) string {
	return firstMatch(item, catalog.NotAvailable, latencyChain)
}

// MemoryTechnology returns the DDR generation, or "N/A"
func MemoryTechnology(item Item) string {
	return firstMatch(item, catalog.NotAvailable, memoryTechnologyChain)
}

// FormFactor returns the module packaging type, or "N/A"
func FormFactor(item Item) string {
	return firstMatch(item, catalog.NotAvailable, formFactorChain)
}

// Color returns the palette color named by the variant descriptor, else the
// spec color, else "N/A"
func Color(item Item) string {
	return firstMatch(item, catalog.NotAvailable, colorChain)
}

// Voltage returns the module voltage, or fallback when none is found
func Voltage(item Item, fallback *float64) *float64 {
	v, ok := firstMatchOK(item, voltageChain)
	if !ok {
		if fallback == nil {
			return nil
		}
		f := *fallback
		return &f
	}
	return &v
}

// CompatibleDevices returns the sanitized compatible device list, or "N/A"
func CompatibleDevices(item Item) string {
	return firstMatch(item, catalog.NotAvailable, compatibleDevicesChain)
}

// Flags are keyword-derived feature markers
type Flags struct {
	XMP  bool
	EXPO bool
	RGB  bool
	ECC  bool
}

var (
	xmpRegex    = regexp.MustCompile(`(?i)XMP`)
	expoRegex   = regexp.MustCompile(`(?i)\bEXPO\b`)
	rgbRegex    = regexp.MustCompile(`(?i)RGB`)
	eccRegex    = regexp.MustCompile(`(?i)\bECC\b`)
	nonECCRegex = regexp.MustCompile(`(?i)\bnon[-\s]?ECC\b`)
)

// FeatureFlags derives keyword flags from a sanitized title
func FeatureFlags(title string) Flags {
	return Flags{
		XMP:  xmpRegex.MatchString(title),
		EXPO: expoRegex.MatchString(title),
		RGB:  rgbRegex.MatchString(title),
		ECC:  eccRegex.MatchString(title) && !nonECCRegex.MatchString(title),
	}
}

func matchInt(re *regexp.Regexp) func(string) (int, bool) {
	return func(s string) (int, bool) {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		return atoi(m[1])
	}
}

func matchFloat(re *regexp.Regexp) func(string) (float64, bool) {
	return func(s string) (float64, bool) {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
}

func matchSpeed(re *regexp.Regexp, transfer bool) func(string) (speed, bool) {
	return func(s string) (speed, bool) {
		n, ok := matchInt(re)(s)
		if !ok {
			return speed{}, false
		}
		return speed{value: n, transfer: transfer}, true
	}
}

func matchSpecSpeed(value string) (speed, bool) {
	n, ok := matchInt(digitsRegex)(value)
	if !ok {
		return speed{}, false
	}
	return speed{value: n, transfer: strings.Contains(strings.ToUpper(value), "MT/S")}, true
}

func matchVariantLatency(s string) (string, bool) {
	m := variantLatencyRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return "CL" + m[1], true
}

func matchTitleLatency(s string) (string, bool) {
	m := titleLatencyRegex.FindString(s)
	if m == "" {
		return "", false
	}
	return NormalizeLatency(m), true
}

func matchCASLatency(value string) (string, bool) {
	if m := bareNumberRegex.FindStringSubmatch(value); m != nil {
		return "CL" + m[1], true
	}
	return matchSpecLatency(value)
}

func matchSpecLatency(value string) (string, bool) {
	m := specLatencyRegex.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	n := m[1]
	if n == "" {
		n = m[2]
	}
	return "CL" + n, true
}

// NormalizeLatency upper-cases a latency token and removes whitespace
func NormalizeLatency(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToUpper(s), "")
}

func matchFirst(patterns []pattern) func(string) (string, bool) {
	return func(s string) (string, bool) {
		for _, p := range patterns {
			if p.regex.MatchString(s) {
				return p.name, true
			}
		}
		return "", false
	}
}

// PaletteColor returns the canonical palette spelling when s names a palette color
func PaletteColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Palette {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

func matchPalette(s string) (string, bool) {
	return PaletteColor(s)
}

// matchCleanText accepts a spec value that survives sanitizing
func matchCleanText(value string) (string, bool) {
	text, verdict := Sanitize(value)
	if verdict == Rejected {
		return "", false
	}
	if verdict == Clean {
		text = CleanText(text)
	}
	if text == "" {
		return "", false
	}
	return text, true
}
