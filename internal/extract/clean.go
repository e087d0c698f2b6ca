// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

var (
	citeRe    = regexp.MustCompile(`\\cite\{.*?\}`)
	refRe     = regexp.MustCompile(`\\ref\{.*?\}`)
	bracketRe = regexp.MustCompile(`\[(?:[0-9]{1,3},?\s?)+\]`)
)

// CleanText strips citation noise left over from LaTeX sources: \cite{...}
// and \ref{...} commands and bracketed numeric citations like [3] or
// [1, 12, 103]. Whitespace is re-normalized afterwards, line breaks kept.
func CleanText(text string) string {
	text = citeRe.ReplaceAllString(text, "")
	text = refRe.ReplaceAllString(text, "")
	text = bracketRe.ReplaceAllString(text, "")
	return normalizeWhitespace(text)
}

// Abstract falls back to the paper abstract when no PDF text is available,
// run through the same cleaning pass for consistency.
func Abstract(summary string) string {
	return CleanText(strings.TrimSpace(summary))
}
