// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gaps produces the research-gap narrative for a run.
package gaps

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/pkg/types"
)

// gapsResponseTokens is the response budget for the gap-analysis call.
const gapsResponseTokens = 1024

const (
	noPapersMsg      = "No papers found, so no research gaps could be identified."
	noLimitationsMsg = "No explicit limitations were extracted; research gaps could not be inferred reliably."
)

var gapsPromptTmpl = template.Must(template.New("gaps").Parse(`You are an expert in academic survey writing.
Given the following list of papers (with their problems, methods, datasets, and limitations), identify key research gaps, unresolved issues, and promising directions for future work.

Return a short Markdown-formatted section, with bullet points, under headings like 'Open Problems', 'Under-explored Settings', 'Methodological Gaps'.

PAPERS (JSON):
{{.Papers}}

OUTPUT:`))

// compactPaper is the trimmed paper view sent to the backend.
type compactPaper struct {
	Title       string   `json:"title"`
	Problem     string   `json:"problem"`
	Methods     []string `json:"methods"`
	Datasets    []string `json:"datasets"`
	Limitations []string `json:"limitations"`
}

// Detect builds the gap narrative from the paper summaries. An empty input
// short-circuits to a fixed message without touching the backend. Otherwise
// the backend's Markdown analysis is returned verbatim; on any failure the
// extracted limitations become a heuristic bullet list instead.
func Detect(ctx context.Context, gen llm.Generator, summaries []types.PaperSummary) types.ResearchGaps {
	if len(summaries) == 0 {
		return types.ResearchGaps{Text: noPapersMsg}
	}

	if text, ok := tryBackend(ctx, gen, summaries); ok {
		return types.ResearchGaps{Text: text}
	}

	var bullets []string
	for _, ps := range summaries {
		for _, lim := range ps.OverallLimitations {
			bullets = append(bullets, "- "+lim)
		}
	}
	if len(bullets) == 0 {
		return types.ResearchGaps{Text: noLimitationsMsg}
	}
	return types.ResearchGaps{Text: "### Research Gaps (heuristic)\n\n" + strings.Join(bullets, "\n")}
}

func tryBackend(ctx context.Context, gen llm.Generator, summaries []types.PaperSummary) (string, bool) {
	compact := make([]compactPaper, 0, len(summaries))
	for _, ps := range summaries {
		compact = append(compact, compactPaper{
			Title:       ps.Title,
			Problem:     ps.OverallProblem,
			Methods:     ps.OverallMethods,
			Datasets:    ps.OverallDatasets,
			Limitations: ps.OverallLimitations,
		})
	}
	papersJSON, err := json.Marshal(compact)
	if err != nil {
		return "", false
	}

	var prompt bytes.Buffer
	if err := gapsPromptTmpl.Execute(&prompt, struct{ Papers string }{string(papersJSON)}); err != nil {
		return "", false
	}

	out, err := gen.Generate(ctx, prompt.String(), gapsResponseTokens)
	if err != nil || strings.TrimSpace(out) == "" {
		return "", false
	}
	return out, true
}
