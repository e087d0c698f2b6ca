// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Chunk is a bounded slice of a paper's text assigned to one logical section.
// Chunks are produced by the section chunker and consumed once by the
// summarize-verify loop.
type Chunk struct {
	// Section is the heading the chunk belongs to. When a section was split
	// for size the label is synthesized as "<heading> (part N)".
	Section string `json:"section" yaml:"section"`

	// Text is the chunk body.
	Text string `json:"text" yaml:"text"`

	// Tokens is the estimated token count of Text.
	Tokens int `json:"tokens" yaml:"tokens"`
}

// EvidenceItem is a verbatim quoted excerpt cited as support for an extracted
// claim. The snippet must be reproducible as an exact substring of the chunk
// text it cites; the rule-based verifier enforces this, not the summarizer.
type EvidenceItem struct {
	// ChunkID identifies the chunk the snippet was quoted from.
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	// Snippet is the quoted text, at most 25 words.
	Snippet string `json:"snippet" yaml:"snippet"`
}

// SummaryOrigin records which path produced a ChunkSummary.
type SummaryOrigin string

const (
	// OriginGenerated marks a summary parsed from generation-backend output.
	OriginGenerated SummaryOrigin = "generated"

	// OriginHeuristic marks a summary produced by the deterministic extractor.
	OriginHeuristic SummaryOrigin = "heuristic"
)

// ChunkSummary holds the structured facts extracted from one chunk. All
// collection fields are non-nil after construction; empty means nothing was
// found, never that extraction was skipped.
type ChunkSummary struct {
	// Problem is the problem statement, capped at 400 characters.
	Problem string `json:"problem" yaml:"problem"`

	// Methods lists extracted method names, de-duplicated in first-seen order.
	Methods []string `json:"methods" yaml:"methods"`

	// Datasets lists extracted dataset names, de-duplicated in first-seen order.
	Datasets []string `json:"datasets" yaml:"datasets"`

	// Results maps metric name to its reported value (string form).
	Results map[string]string `json:"results" yaml:"results"`

	// Limitations lists extracted limitation phrases, at most 3.
	Limitations []string `json:"limitations" yaml:"limitations"`

	// Evidence maps a content field name to the snippets supporting it.
	Evidence map[string][]EvidenceItem `json:"evidence" yaml:"evidence"`

	// Origin records whether the summary came from the generation backend or
	// the heuristic fallback.
	Origin SummaryOrigin `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// NewChunkSummary returns a ChunkSummary with all collections initialized.
func NewChunkSummary() ChunkSummary {
	return ChunkSummary{
		Methods:     []string{},
		Datasets:    []string{},
		Results:     map[string]string{},
		Limitations: []string{},
		Evidence:    map[string][]EvidenceItem{},
	}
}

// Normalize replaces nil collections with empty ones. Called after every
// external-JSON parse so downstream stages never see nil maps or slices.
func (s *ChunkSummary) Normalize() {
	if s.Methods == nil {
		s.Methods = []string{}
	}
	if s.Datasets == nil {
		s.Datasets = []string{}
	}
	if s.Results == nil {
		s.Results = map[string]string{}
	}
	if s.Limitations == nil {
		s.Limitations = []string{}
	}
	if s.Evidence == nil {
		s.Evidence = map[string][]EvidenceItem{}
	}
}

// IssueType categorizes a verification issue.
type IssueType string

const (
	// IssueMissingEvidence flags an evidence snippet not found verbatim in any
	// supplied chunk.
	IssueMissingEvidence IssueType = "missing_evidence"

	// IssueNumericMismatch flags a result value whose string form appears in
	// no supplied chunk.
	IssueNumericMismatch IssueType = "numeric_mismatch"

	// IssueJudgment carries a free-text finding from the generation-backed
	// verifier.
	IssueJudgment IssueType = "judgment"
)

// Issue is a single verification finding. Rule-based issues populate the
// structured fields; generation-backed issues carry only Message.
type Issue struct {
	Type    IssueType `json:"type" yaml:"type"`
	Field   string    `json:"field,omitempty" yaml:"field,omitempty"`
	Snippet string    `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	Key     string    `json:"key,omitempty" yaml:"key,omitempty"`
	Value   string    `json:"value,omitempty" yaml:"value,omitempty"`
	Message string    `json:"message,omitempty" yaml:"message,omitempty"`
}

// VerificationResult is the verifier's judgment of one chunk summary. OK is
// true iff no issues were recorded.
type VerificationResult struct {
	OK     bool    `json:"ok" yaml:"ok"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// PaperSummary is the merged, paper-level summary. Immutable after creation.
type PaperSummary struct {
	Title     string   `json:"title" yaml:"title"`
	Authors   []string `json:"authors" yaml:"authors"`
	Published string   `json:"published" yaml:"published"`

	// OverallProblem is the first non-empty chunk problem in document order.
	OverallProblem string `json:"overall_problem" yaml:"overall_problem"`

	// OverallMethods is the sorted union of chunk methods.
	OverallMethods []string `json:"overall_methods" yaml:"overall_methods"`

	// OverallDatasets is the sorted union of chunk datasets.
	OverallDatasets []string `json:"overall_datasets" yaml:"overall_datasets"`

	// OverallResults maps metric name to value, last writer wins across
	// chunks in document order.
	OverallResults map[string]string `json:"overall_results" yaml:"overall_results"`

	// OverallLimitations is the sorted union of chunk limitations.
	OverallLimitations []string `json:"overall_limitations" yaml:"overall_limitations"`
}

// CorpusAggregate is the cross-paper theme and method tally, recomputed each
// run from all chunk summaries.
type CorpusAggregate struct {
	// NumPapers counts the chunk summaries aggregated (the original field
	// name is kept for report compatibility).
	NumPapers int `json:"num_papers" yaml:"num_papers"`

	// Themes collects chunk problem statements in first-seen order, skipping
	// empty strings and exact duplicates.
	Themes []string `json:"themes" yaml:"themes"`

	// MethodCounts maps each method string to its occurrence count across all
	// chunks, with no per-paper de-duplication.
	MethodCounts map[string]int `json:"method_counts" yaml:"method_counts"`
}

// ComparisonRow is one paper's row in the method comparison table.
type ComparisonRow struct {
	PaperID   string `json:"paper_id" yaml:"paper_id"`
	Title     string `json:"title" yaml:"title"`
	Published string `json:"published" yaml:"published"`

	// Method is the comma-joined overall methods, or "N/A" when empty.
	Method string `json:"method" yaml:"method"`

	Datasets []string          `json:"datasets" yaml:"datasets"`
	Results  map[string]string `json:"results" yaml:"results"`
}

// Comparison holds the full comparison table, one row per paper in input order.
type Comparison struct {
	Rows []ComparisonRow `json:"rows" yaml:"rows"`
}

// RankingEntry is one paper's position in the scored ranking.
type RankingEntry struct {
	PaperID   string `json:"paper_id" yaml:"paper_id"`
	Title     string `json:"title" yaml:"title"`
	Published string `json:"published" yaml:"published"`

	// Score is rounded to 2 decimals.
	Score float64 `json:"score" yaml:"score"`
}

// ResearchGaps wraps the gap-detection narrative.
type ResearchGaps struct {
	Text string `json:"text" yaml:"text"`
}
