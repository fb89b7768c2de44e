// Package classify abstracts the remote company-name classification
// call behind a single capability interface so the rest of the
// pipeline stays deterministic and testable.
package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/internalerr"
)

// Classifier turns a raw label into a canonical company name.
// Implementations return internalerr.ErrNotConfigured when no
// credential is available and internalerr.ErrUnrecognized when the
// answer does not look like a company name.
type Classifier interface {
	Classify(ctx context.Context, label string) (string, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, label string) (string, error)

func (f Func) Classify(ctx context.Context, label string) (string, error) {
	return f(ctx, label)
}

// maxNameLen bounds a plausible company name.
const maxNameLen = 64

var boilerplatePrefixes = []string{
	"company name:",
	"company:",
	"answer:",
	"the company is",
}

// ExtractName applies the parsing contract for free-form model output:
// first non-empty line, boilerplate prefixes and wrapping punctuation
// stripped. Rejects answers that are empty, too long, or contain no
// letters.
func ExtractName(raw string) (string, error) {
	line := firstLine(raw)

	lowered := strings.ToLower(line)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lowered, prefix) {
			line = strings.TrimSpace(line[len(prefix):])
			break
		}
	}

	line = strings.Trim(line, "\"'`“”.,;: ")

	if line == "" || utf8.RuneCountInString(line) > maxNameLen {
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnrecognized, raw)
	}
	if !strings.ContainsFunc(line, unicode.IsLetter) {
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnrecognized, raw)
	}
	return line, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
