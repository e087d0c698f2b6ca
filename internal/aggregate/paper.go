// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate merges chunk-level summaries upward: first into one
// summary per paper, then into corpus-wide theme and method tallies.
package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"text/template"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/pkg/types"
)

// paperResponseTokens is the response budget for the merge call.
const paperResponseTokens = 512

// paperPromptTmpl asks the backend to merge chunk summaries under explicit
// consistency rules and return one JSON object in PaperSummary shape.
var paperPromptTmpl = template.Must(template.New("paper").Parse(`You are a scientific editor combining structured research findings.

Aggregate the following extracted chunk-level summaries into a single global paper summary.

Merge only factual fields that are repeated or consistent.

### RULES:
- Deduplicate metrics by (metric + dataset).
- Prefer consistent values reported multiple times.
- Discard conflicting values unless ALL are reported.
- Report dataset + metric pairs explicitly.
- Keep evidence.
- Do not summarize vaguely.

### METADATA:
Title: {{.Title}}
Authors: {{.Authors}}
Published: {{.Published}}

### CHUNK SUMMARIES (JSON):
{{.Chunks}}

Return ONLY valid JSON with keys: title, authors, published, overall_problem, overall_methods, overall_datasets, overall_results, overall_limitations.`))

// PaperAggregator merges a paper's chunk summaries into one PaperSummary.
type PaperAggregator struct {
	gen llm.Generator
}

// NewPaperAggregator returns an aggregator backed by gen. Pass llm.Disabled
// to force the deterministic merge.
func NewPaperAggregator(gen llm.Generator) *PaperAggregator {
	return &PaperAggregator{gen: gen}
}

// compactChunk is the trimmed chunk view sent to the backend. Evidence is
// omitted to keep the prompt within budget.
type compactChunk struct {
	ChunkIndex  int               `json:"chunk_index"`
	Problem     string            `json:"problem"`
	Methods     []string          `json:"methods"`
	Datasets    []string          `json:"datasets"`
	Results     map[string]string `json:"results"`
	Limitations []string          `json:"limitations"`
}

// Aggregate merges summaries into a paper-level summary. The backend path is
// tried first; on any failure the deterministic merge runs: first non-empty
// problem in document order, sorted unions of methods, datasets, and
// limitations, and last-writer-wins for result values. Never errors.
func (a *PaperAggregator) Aggregate(ctx context.Context, summaries []types.ChunkSummary, meta types.PaperMeta) types.PaperSummary {
	if ps, ok := a.tryBackend(ctx, summaries, meta); ok {
		return ps
	}
	return mergePaper(summaries, meta)
}

func (a *PaperAggregator) tryBackend(ctx context.Context, summaries []types.ChunkSummary, meta types.PaperMeta) (types.PaperSummary, bool) {
	compact := make([]compactChunk, 0, len(summaries))
	for i, cs := range summaries {
		compact = append(compact, compactChunk{
			ChunkIndex:  i,
			Problem:     cs.Problem,
			Methods:     cs.Methods,
			Datasets:    cs.Datasets,
			Results:     cs.Results,
			Limitations: cs.Limitations,
		})
	}
	chunksJSON, err := json.Marshal(compact)
	if err != nil {
		return types.PaperSummary{}, false
	}

	var prompt bytes.Buffer
	err = paperPromptTmpl.Execute(&prompt, struct {
		Title, Authors, Published, Chunks string
	}{
		Title:     meta.Title,
		Authors:   joinComma(meta.Authors),
		Published: meta.Published,
		Chunks:    string(chunksJSON),
	})
	if err != nil {
		return types.PaperSummary{}, false
	}

	out, err := a.gen.Generate(ctx, prompt.String(), paperResponseTokens)
	if err != nil {
		return types.PaperSummary{}, false
	}
	block, ok := llm.FirstJSONObject(out)
	if !ok {
		return types.PaperSummary{}, false
	}

	var ps types.PaperSummary
	if err := json.Unmarshal([]byte(block), &ps); err != nil {
		return types.PaperSummary{}, false
	}
	normalizePaperSummary(&ps, meta)
	return ps, true
}

// mergePaper is the deterministic fallback merge.
func mergePaper(summaries []types.ChunkSummary, meta types.PaperMeta) types.PaperSummary {
	ps := types.PaperSummary{
		Title:          meta.Title,
		Authors:        meta.Authors,
		Published:      meta.Published,
		OverallResults: map[string]string{},
	}

	methods := map[string]struct{}{}
	datasets := map[string]struct{}{}
	limitations := map[string]struct{}{}

	for _, cs := range summaries {
		if ps.OverallProblem == "" && cs.Problem != "" {
			ps.OverallProblem = cs.Problem
		}
		for _, m := range cs.Methods {
			methods[m] = struct{}{}
		}
		for _, d := range cs.Datasets {
			datasets[d] = struct{}{}
		}
		for k, v := range cs.Results {
			ps.OverallResults[k] = v
		}
		for _, lim := range cs.Limitations {
			limitations[lim] = struct{}{}
		}
	}

	ps.OverallMethods = sortedSet(methods)
	ps.OverallDatasets = sortedSet(datasets)
	ps.OverallLimitations = sortedSet(limitations)
	return ps
}

// normalizePaperSummary fills metadata the backend dropped and replaces nil
// collections so downstream stages never see nil.
func normalizePaperSummary(ps *types.PaperSummary, meta types.PaperMeta) {
	if ps.Title == "" {
		ps.Title = meta.Title
	}
	if len(ps.Authors) == 0 {
		ps.Authors = meta.Authors
	}
	if ps.Published == "" {
		ps.Published = meta.Published
	}
	if ps.OverallMethods == nil {
		ps.OverallMethods = []string{}
	}
	if ps.OverallDatasets == nil {
		ps.OverallDatasets = []string{}
	}
	if ps.OverallResults == nil {
		ps.OverallResults = map[string]string{}
	}
	if ps.OverallLimitations == nil {
		ps.OverallLimitations = []string{}
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func joinComma(items []string) string {
	var b bytes.Buffer
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it)
	}
	return b.String()
}
