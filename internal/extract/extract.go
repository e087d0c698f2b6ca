// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract converts downloaded PDFs into cleaned plain text. The
// production backend shells out to pdftotext; the pipeline receives the
// Extractor interface so tests substitute a fake.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor converts a local document into one plain-text string.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PDFToText extracts text with the poppler pdftotext binary.
type PDFToText struct {
	// Binary overrides the pdftotext executable path. Empty means $PATH lookup.
	Binary string
}

// Extract runs pdftotext and post-processes its output: pages are split on
// the form-feed separators pdftotext emits, repeated running headers and
// footers are stripped, and the pages are joined back into one string.
func (p PDFToText) Extract(ctx context.Context, path string) (string, error) {
	binary := p.Binary
	if binary == "" {
		binary = "pdftotext"
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-enc", "UTF-8", path, "-")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running pdftotext on %s: %w", path, err)
	}

	pages := strings.Split(out.String(), "\f")
	pages = StripRunningLines(pages)
	return normalizeWhitespace(strings.Join(pages, "\n")), nil
}

// StripRunningLines removes the running header and footer from each page: the
// single most common non-empty first line and last line across all pages.
// Pages that do not carry the common line are left untouched.
func StripRunningLines(pages []string) []string {
	topCounts := map[string]int{}
	bottomCounts := map[string]int{}
	for _, page := range pages {
		lines := nonEmptyLines(page)
		if len(lines) == 0 {
			continue
		}
		topCounts[lines[0]]++
		bottomCounts[lines[len(lines)-1]]++
	}
	top := mostCommon(topCounts)
	bottom := mostCommon(bottomCounts)

	cleaned := make([]string, 0, len(pages))
	for _, page := range pages {
		lines := strings.Split(page, "\n")
		if top != "" && len(lines) > 0 && strings.TrimSpace(lines[0]) == top {
			lines = lines[1:]
		}
		if bottom != "" && len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == bottom {
			lines = lines[:len(lines)-1]
		}
		cleaned = append(cleaned, strings.Join(lines, "\n"))
	}
	return cleaned
}

// normalizeWhitespace collapses runs of spaces and tabs within each line but
// keeps line breaks, which the section chunker scans for headings.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		out = append(out, strings.Join(strings.Fields(ln), " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func nonEmptyLines(page string) []string {
	var lines []string
	for _, ln := range strings.Split(page, "\n") {
		if trimmed := strings.TrimSpace(ln); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// mostCommon returns the key with the highest count, breaking ties by the
// lexically smaller key so the choice is deterministic.
func mostCommon(counts map[string]int) string {
	best := ""
	bestCount := 0
	for k, n := range counts {
		if n > bestCount || (n == bestCount && best != "" && k < best) {
			best = k
			bestCount = n
		}
	}
	return best
}
