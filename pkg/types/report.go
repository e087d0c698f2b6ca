// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Report is the full result of one pipeline run.
type Report struct {
	// Query is the user's research question.
	Query string `json:"query" yaml:"query"`

	// RuntimeSeconds is the wall-clock duration of the run, rounded to 2 decimals.
	RuntimeSeconds float64 `json:"runtime_seconds" yaml:"runtime_seconds"`

	// Papers holds one record per processed paper, in source order.
	Papers []PaperRecord `json:"papers" yaml:"papers"`

	// Aggregate is the corpus-level theme and method tally.
	Aggregate CorpusAggregate `json:"aggregate" yaml:"aggregate"`

	// Comparison is the cross-paper method comparison table.
	Comparison Comparison `json:"comparison" yaml:"comparison"`

	// ResearchGaps is the gap-detection narrative.
	ResearchGaps ResearchGaps `json:"research_gaps" yaml:"research_gaps"`

	// Ranking lists papers by descending score.
	Ranking []RankingEntry `json:"ranking" yaml:"ranking"`

	// References lists citation entries for every processed paper.
	References []Reference `json:"references" yaml:"references"`
}
