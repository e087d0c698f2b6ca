// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import "github.com/pdiddy/research-companion/pkg/types"

// Corpus tallies themes and method occurrences across every chunk summary in
// the run. Themes are chunk problem statements in first-seen order with empty
// strings and exact duplicates skipped. Method counts have no per-paper
// de-duplication: a paper repeating a method across N chunks counts N times.
func Corpus(summaries []types.ChunkSummary) types.CorpusAggregate {
	agg := types.CorpusAggregate{
		NumPapers:    len(summaries),
		Themes:       []string{},
		MethodCounts: map[string]int{},
	}

	seen := map[string]struct{}{}
	for _, cs := range summaries {
		if cs.Problem != "" {
			if _, dup := seen[cs.Problem]; !dup {
				seen[cs.Problem] = struct{}{}
				agg.Themes = append(agg.Themes, cs.Problem)
			}
		}
		for _, m := range cs.Methods {
			agg.MethodCounts[m]++
		}
	}
	return agg
}
