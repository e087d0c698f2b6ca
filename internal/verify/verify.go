// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify checks that a chunk summary's claims are grounded in the
// source text. Two interchangeable strategies exist: a rule-based verifier
// doing exact substring checks, and a generation-backed judge. The caller
// prefers the generation-backed one and falls back to the rules on failure.
package verify

import (
	"context"
	"sort"
	"strings"

	"github.com/pdiddy/research-companion/pkg/types"
)

// Verifier judges whether a summary is grounded in the given chunks.
type Verifier interface {
	Verify(ctx context.Context, summary types.ChunkSummary, chunks []types.Chunk) (types.VerificationResult, error)
}

// RuleVerifier checks evidence snippets and numeric claims by exact substring
// matching against the supplied chunk texts. It never fails.
type RuleVerifier struct{}

// Verify records a missing_evidence issue for every evidence snippet that is
// empty or not an exact substring of any chunk's text, and a numeric_mismatch
// issue for every result value whose string form appears in no chunk. OK is
// true iff no issues were recorded. Fields and keys are visited in sorted
// order so the issue list is deterministic.
func (RuleVerifier) Verify(_ context.Context, summary types.ChunkSummary, chunks []types.Chunk) (types.VerificationResult, error) {
	var issues []types.Issue

	for _, field := range sortedKeys(summary.Evidence) {
		for _, item := range summary.Evidence[field] {
			if !snippetFound(item.Snippet, chunks) {
				issues = append(issues, types.Issue{
					Type:    types.IssueMissingEvidence,
					Field:   field,
					Snippet: item.Snippet,
				})
			}
		}
	}

	for _, key := range sortedKeys(summary.Results) {
		value := summary.Results[key]
		if !valueFound(value, chunks) {
			issues = append(issues, types.Issue{
				Type:  types.IssueNumericMismatch,
				Key:   key,
				Value: value,
			})
		}
	}

	return types.VerificationResult{OK: len(issues) == 0, Issues: issues}, nil
}

func snippetFound(snippet string, chunks []types.Chunk) bool {
	if strings.TrimSpace(snippet) == "" {
		return false
	}
	for _, c := range chunks {
		if strings.Contains(c.Text, snippet) {
			return true
		}
	}
	return false
}

func valueFound(value string, chunks []types.Chunk) bool {
	for _, c := range chunks {
		if strings.Contains(c.Text, value) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
