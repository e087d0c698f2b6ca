// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-generation backend behind a strategy
// interface. The pipeline receives one Generator at construction time;
// callers never consult the environment per call. A backend that is not
// configured reports ErrUnavailable so fallback branches stay visible.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable indicates the generation backend is not configured or
// cannot be reached. Callers degrade to their deterministic fallback.
var ErrUnavailable = errors.New("generation backend unavailable")

// Generator produces free-text output for a prompt under a token budget.
type Generator interface {
	// Generate returns the backend's raw text output. It returns
	// ErrUnavailable (possibly wrapped) when the backend is not configured.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Disabled is a Generator with no backing service. Every call returns
// ErrUnavailable, forcing the deterministic paths throughout the pipeline.
type Disabled struct{}

// Generate always fails with ErrUnavailable.
func (Disabled) Generate(context.Context, string, int) (string, error) {
	return "", ErrUnavailable
}

// FirstJSONObject returns the first brace-delimited JSON object candidate in
// text: the substring from the first '{' through the last '}'. Backends wrap
// JSON in prose or markdown fences; the caller still validates by unmarshaling.
func FirstJSONObject(text string) (string, bool) {
	return firstDelimited(text, '{', '}')
}

// FirstJSONArray returns the first bracket-delimited JSON array candidate in
// text, from the first '[' through the last ']'.
func FirstJSONArray(text string) (string, bool) {
	return firstDelimited(text, '[', ']')
}

func firstDelimited(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, close)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
