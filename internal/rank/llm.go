// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/pkg/types"
)

// rankResponseTokens is the response budget for the ranking call.
const rankResponseTokens = 2000

// rankPromptTmpl spells the scoring formula out so the backend reproduces the
// deterministic ranking rather than inventing its own.
var rankPromptTmpl = template.Must(template.New("rank").Parse(`You are a scientific ranking agent.

Your task is to assign a numeric score to each paper based on:
1. Recency (newer papers score higher)
2. Richness of methodology (more methods, higher score)
3. Presence of experimental results (papers with results, +2)
4. Presence of limitations (transparent papers, +1)

These rules mirror the scoring logic:

score =
0.5 * max(0, year - 2000)
+ 1.0 * len(overall_methods)
+ 2.0 * (has overall_results)
+ 1.0 * (has overall_limitations)

### INPUT PAPERS (JSON)
{{.Papers}}

### TASK:
Return a STRICT JSON array where each element has:
{"paper_id": "...", "title": "...", "published": "...", "score": number}

### RULES
- Use ONLY the information inside the provided JSON.
- Use the scoring formula above EXACTLY.
- The output must be a JSON array only. No explanations.`))

// rankInput is the per-paper view marshaled into the prompt.
type rankInput struct {
	PaperID   string   `json:"paper_id"`
	Title     string   `json:"title"`
	Published string   `json:"published"`
	Methods   []string `json:"overall_methods"`
	HasRes    bool     `json:"has_overall_results"`
	HasLim    bool     `json:"has_overall_limitations"`
}

// rankedEntry mirrors RankingEntry with pointers so missing keys are
// distinguishable from zero values during validation.
type rankedEntry struct {
	PaperID   *string  `json:"paper_id"`
	Title     *string  `json:"title"`
	Published *string  `json:"published"`
	Score     *float64 `json:"score"`
}

// PapersLLM asks the generation backend to rank the papers. Any failure,
// transport, parse, or an entry missing a required key, falls back to the
// deterministic scorer so the report always carries a ranking.
func PapersLLM(ctx context.Context, gen llm.Generator, papers []types.PaperRecord) []types.RankingEntry {
	if entries, ok := tryBackend(ctx, gen, papers); ok {
		return entries
	}
	return Papers(papers)
}

func tryBackend(ctx context.Context, gen llm.Generator, papers []types.PaperRecord) ([]types.RankingEntry, bool) {
	inputs := make([]rankInput, 0, len(papers))
	for _, p := range papers {
		inputs = append(inputs, rankInput{
			PaperID:   p.PaperID,
			Title:     p.Title,
			Published: publishedOf(p),
			Methods:   p.PaperSummary.OverallMethods,
			HasRes:    len(p.PaperSummary.OverallResults) > 0,
			HasLim:    len(p.PaperSummary.OverallLimitations) > 0,
		})
	}
	papersJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, false
	}

	var prompt bytes.Buffer
	if err := rankPromptTmpl.Execute(&prompt, struct{ Papers string }{string(papersJSON)}); err != nil {
		return nil, false
	}

	out, err := gen.Generate(ctx, prompt.String(), rankResponseTokens)
	if err != nil {
		return nil, false
	}
	block, ok := llm.FirstJSONArray(out)
	if !ok {
		return nil, false
	}

	var parsed []rankedEntry
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, false
	}

	entries := make([]types.RankingEntry, 0, len(parsed))
	for _, e := range parsed {
		if e.PaperID == nil || e.Title == nil || e.Published == nil || e.Score == nil {
			return nil, false
		}
		entries = append(entries, types.RankingEntry{
			PaperID:   *e.PaperID,
			Title:     *e.Title,
			Published: *e.Published,
			Score:     *e.Score,
		})
	}
	return entries, true
}
