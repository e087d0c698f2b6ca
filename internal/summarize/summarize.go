// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize extracts structured facts from one chunk of paper text.
// The primary path asks the generation backend for strict JSON; any backend
// failure or unparsable output degrades to a deterministic heuristic
// extractor. Summarize never fails: the caller always receives a complete
// ChunkSummary with every field populated (empty where nothing was found).
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/internal/tokens"
	"github.com/pdiddy/research-companion/pkg/types"
)

const (
	// maxTotalTokens is the ceiling for prompt plus reserved response budget.
	maxTotalTokens = 4000

	// respTokensReserved is the response budget subtracted from the ceiling.
	respTokensReserved = 400

	// truncateMargin is extra headroom subtracted when shrinking the chunk.
	truncateMargin = 200

	// minKeptWords is the floor on how far truncation may shrink a chunk.
	minKeptWords = 50
)

// chunkPromptTmpl instructs the backend to extract facts as strict JSON with
// verbatim evidence snippets.
var chunkPromptTmpl = template.Must(template.New("chunk").Parse(`You are an expert academic summarizer. Given the input chunk of a research paper, produce ONLY valid JSON with keys: problem (short string), methods (list of short strings), datasets (list of strings), results (object mapping metric name to reported value), limitations (list of strings, at most 3), evidence (object mapping field name to a list of {"chunk_id", "snippet"}).

Rules:
- Extract ONLY facts explicitly stated in the text. Do not guess or infer.
- Extract metric names exactly as written, with their values.
- Include dataset names reported near metrics.
- Each evidence snippet must be a verbatim quote from the input text, no more than 25 words.
- Do not include any text outside the JSON object.

INPUT:
{{.Text}}

OUTPUT:`))

// Summarizer produces chunk summaries through an injected generation backend.
type Summarizer struct {
	gen     llm.Generator
	counter tokens.Counter
}

// New creates a Summarizer. A nil counter falls back to the word estimator.
func New(gen llm.Generator, counter tokens.Counter) *Summarizer {
	if counter == nil {
		counter = tokens.Estimator{}
	}
	return &Summarizer{gen: gen, counter: counter}
}

// Summarize extracts a ChunkSummary from chunkText. If the prompt estimate
// plus the reserved response budget exceeds the total-token ceiling the chunk
// text is truncated by dropping trailing words before the prompt is rebuilt.
// Backend failures and unparsable output degrade to the heuristic extractor;
// the returned summary's Origin records which path produced it.
func (s *Summarizer) Summarize(ctx context.Context, chunkText, chunkID string) types.ChunkSummary {
	maxResp := respTokensReserved
	if maxResp < 128 {
		maxResp = 128
	}

	prompt := buildPrompt(chunkText)
	if s.counter.Count(prompt)+maxResp > maxTotalTokens {
		allowed := maxTotalTokens - maxResp - truncateMargin
		if allowed < minKeptWords {
			allowed = minKeptWords
		}
		words := strings.Fields(chunkText)
		if len(words) > allowed {
			chunkText = strings.Join(words[:allowed], " ")
		}
		prompt = buildPrompt(chunkText)
	}

	out, err := s.gen.Generate(ctx, prompt, maxResp)
	if err == nil {
		if summary, ok := parseSummary(out); ok {
			summary.Origin = types.OriginGenerated
			return summary
		}
	}

	summary := Heuristic(chunkText, chunkID)
	summary.Origin = types.OriginHeuristic
	return summary
}

func buildPrompt(text string) string {
	var buf bytes.Buffer
	// The template has no failure modes beyond programmer error.
	if err := chunkPromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return text
	}
	return buf.String()
}

// rawSummary mirrors ChunkSummary with loosely typed result values, since
// backends report metrics as numbers or strings interchangeably.
type rawSummary struct {
	Problem     string                          `json:"problem"`
	Methods     []string                        `json:"methods"`
	Datasets    []string                        `json:"datasets"`
	Results     map[string]any                  `json:"results"`
	Limitations []string                        `json:"limitations"`
	Evidence    map[string][]types.EvidenceItem `json:"evidence"`
}

// parseSummary extracts the first brace-delimited JSON object from backend
// output and coerces it into a ChunkSummary.
func parseSummary(out string) (types.ChunkSummary, bool) {
	block, ok := llm.FirstJSONObject(out)
	if !ok {
		return types.ChunkSummary{}, false
	}

	var raw rawSummary
	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return types.ChunkSummary{}, false
	}

	summary := types.ChunkSummary{
		Problem:     raw.Problem,
		Methods:     raw.Methods,
		Datasets:    raw.Datasets,
		Limitations: raw.Limitations,
		Evidence:    raw.Evidence,
		Results:     map[string]string{},
	}
	for k, v := range raw.Results {
		summary.Results[k] = coerceValue(v)
	}
	summary.Normalize()
	return summary, true
}

// coerceValue renders a loosely typed metric value as a string. json.Number
// keeps the source digits intact so "0.90" does not become "0.9".
func coerceValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
