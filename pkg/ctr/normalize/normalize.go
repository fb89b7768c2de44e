package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns raw free-text labels into canonical lookup keys.
// Keys are case-folded, diacritic-free, punctuation-stripped and have
// configured noise tokens (corporate suffixes and similar) removed.
type Normalizer struct {
	noise map[string]struct{}
}

// DefaultNoiseTokens lists corporate suffixes that carry no identity.
// The effective set is configuration, not logic; callers can extend it.
var DefaultNoiseTokens = []string{
	"inc", "ltd", "llc", "corp", "co", "plc",
	"gmbh", "sa", "ag", "group", "holdings",
}

// New creates a normalizer with the given noise-token list.
// Tokens are matched after normalization, so mixed-case input is fine.
func New(noiseTokens []string) *Normalizer {
	n := &Normalizer{noise: make(map[string]struct{}, len(noiseTokens))}
	for _, tok := range noiseTokens {
		folded := foldText(strings.TrimSpace(tok))
		if folded != "" {
			n.noise[folded] = struct{}{}
		}
	}
	return n
}

// Key derives the normalized lookup key for a raw label.
// Pure and idempotent: Key(Key(x)) == Key(x). Empty or noise-only
// input yields an empty key, which callers treat as unresolvable.
func (n *Normalizer) Key(raw string) string {
	folded := foldText(raw)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := n.noise[f]; drop {
			continue
		}
		kept = append(kept, f)
	}

	return strings.Join(kept, " ")
}

// foldText compatibility-decomposes the input, strips combining marks
// (diacritics), recomposes and case-folds the result.
func foldText(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}
