package helpers

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// utf8BOM is stripped before decoding; encoding/json rejects it
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ToUTF8 converts raw document bytes to UTF-8. The encoding is determined from
// contentType and the body itself; valid UTF-8 input is returned as is (minus a BOM).
func ToUTF8(body []byte, contentType string) ([]byte, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return body, nil
	}

	// Determine the encoding from the declared content type and body content
	encoding, name, _ := charset.DetermineEncoding(body, contentType)

	// If already UTF-8, return as is
	if strings.EqualFold(name, "utf-8") {
		return body, nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to convert %s body to UTF-8: %w", name, err)
	}

	return buf.Bytes(), nil
}
