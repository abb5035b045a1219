package keyword

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizes free-form text for substring matching: strips combining marks (so "dåyz" folds to "dayz"), then applies unicode case folding.
//
// Both configured markers and member text go through this function, so matching stays consistent for non-ASCII markers.
func FoldText(text string) string {
	// transformers carry state, so they are built per call
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare, _, err := transform.String(normFunc, text)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		bare = text
	}
	return cases.Fold().String(bare)
}

// Folds each non-empty part and joins them with single spaces.
func FoldFields(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, FoldText(p))
	}
	return strings.Join(out, " ")
}
