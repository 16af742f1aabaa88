package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"sjsage522/catalogworker/internal/catalog"
)

// Verdict is the sanitizer's judgement of a text field
type Verdict int

const (
	// Clean text carries no injected content and is returned unchanged
	Clean Verdict = iota
	// Salvaged text was contaminated; the result holds the device codes recovered from it
	Salvaged
	// Rejected text was contaminated and nothing could be recovered
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Clean:
		return "clean"
	case Salvaged:
		return "salvaged"
	default:
		return "rejected"
	}
}

// contaminationPatterns recognize script-like content that leaked into data fields
var contaminationPatterns = []*regexp.Regexp{
	// Function definitions and calls
	regexp.MustCompile(`function\(f\)`),
	regexp.MustCompile(`(?i)\bfunction\s*\w*\s*\([^)]*\)\s*\{`),
	regexp.MustCompile(`\([\w\s,]*\)\s*=>\s*[{(\w]|\b\w+\s*=>\s*\{`),
	regexp.MustCompile(`(?i)\b(?:eval|setTimeout|setInterval|alert|decodeURIComponent)\s*\(`),

	// DOM and global object references
	regexp.MustCompile(`(?i)\b(?:document|window|globalThis|navigator|localStorage|sessionStorage)\s*\.\s*\w`),

	// Known malicious markers
	regexp.MustCompile(`(?i)<\s*/?\s*script|javascript\s*:|\bon(?:error|load|click|mouseover)\s*=`),
}

// deviceCodeRegex matches NAS model codes commonly listed as compatible devices
var deviceCodeRegex = regexp.MustCompile(`DS\d+\+|DS\d+xs\+|DS\d+|RS\d+\+|RS\d+RP\+|DVA\d+|FS\d+`)

// markupRegex detects stray HTML tags or entities in otherwise clean text
var markupRegex = regexp.MustCompile(`<[a-zA-Z/!][^>]*>|&#?[a-zA-Z0-9]+;`)

// IsContaminated reports whether text contains injected non-data content
func IsContaminated(text string) bool {
	for _, p := range contaminationPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Sanitize returns clean text unchanged. Contaminated text is salvaged into
// the comma-joined device codes found in it, or "N/A" when there are none.
func Sanitize(text string) (string, Verdict) {
	if !IsContaminated(text) {
		return text, Clean
	}

	codes := deviceCodeRegex.FindAllString(text, -1)
	if len(codes) == 0 {
		return catalog.NotAvailable, Rejected
	}

	seen := make(map[string]bool, len(codes))
	unique := codes[:0]
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	return strings.Join(unique, ", "), Salvaged
}

// CleanText strips stray markup, applies NFKC and collapses whitespace
func CleanText(text string) string {
	if markupRegex.MatchString(text) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}
	text = norm.NFKC.String(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
