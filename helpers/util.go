package helpers

import (
	"strings"
)

// SplitList splits target on separate, trimming parts and dropping empty ones
func SplitList(target string, separate string) []string {
	parts := strings.Split(target, separate)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
