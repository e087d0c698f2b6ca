// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/pkg/types"
)

// judgeResponseTokens is the response budget for the grounding judgment.
const judgeResponseTokens = 2000

// judgePromptTmpl pairs the source text with the candidate summary and asks
// for a strict-JSON grounding verdict.
var judgePromptTmpl = template.Must(template.New("judge").Parse(`You are a strict verification agent. Compare the SUMMARY against the ORIGINAL TEXT and determine whether the summary is fully grounded, factual, and consistent.

Check for:
- hallucinated methods, datasets, or metrics
- incorrect numeric values
- mismatched metric names
- claims not supported by the text

ORIGINAL TEXT:
{{.Text}}

SUMMARY:
{{.Summary}}

Return STRICT JSON and nothing else:
{"ok": true/false, "issues": ["description of issue 1", "description of issue 2"]}`))

// JudgeVerifier asks the generation backend to judge grounding. Malformed or
// incomplete backend output is reported as a failed verification rather than
// an error; only backend transport failures propagate, so the caller can fall
// back to the rule-based strategy.
type JudgeVerifier struct {
	Gen llm.Generator
}

// Verify prompts the backend with the chunk's raw text and the summary. A
// response missing the "ok" key fails closed; a response missing "issues"
// gets a placeholder issue so the audit trail never loses the verdict.
func (j JudgeVerifier) Verify(ctx context.Context, summary types.ChunkSummary, chunks []types.Chunk) (types.VerificationResult, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return types.VerificationResult{}, fmt.Errorf("marshaling summary: %w", err)
	}

	var source bytes.Buffer
	for i, c := range chunks {
		if i > 0 {
			source.WriteString("\n")
		}
		source.WriteString(c.Text)
	}

	var prompt bytes.Buffer
	if err := judgePromptTmpl.Execute(&prompt, struct{ Text, Summary string }{
		Text:    source.String(),
		Summary: string(summaryJSON),
	}); err != nil {
		return types.VerificationResult{}, fmt.Errorf("rendering judge prompt: %w", err)
	}

	out, err := j.Gen.Generate(ctx, prompt.String(), judgeResponseTokens)
	if err != nil {
		return types.VerificationResult{}, fmt.Errorf("judging summary: %w", err)
	}

	return parseJudgment(out), nil
}

// judgeResponse is the expected backend verdict shape. Pointers distinguish
// absent keys from zero values.
type judgeResponse struct {
	OK     *bool     `json:"ok"`
	Issues *[]string `json:"issues"`
}

func parseJudgment(out string) types.VerificationResult {
	failed := func(msg string) types.VerificationResult {
		return types.VerificationResult{
			OK:     false,
			Issues: []types.Issue{{Type: types.IssueJudgment, Message: msg}},
		}
	}

	block, ok := llm.FirstJSONObject(out)
	if !ok {
		return failed("verifier returned no JSON object")
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(block), &resp); err != nil {
		return failed("verifier output could not be parsed")
	}

	result := types.VerificationResult{Issues: []types.Issue{}}
	if resp.OK == nil {
		result.OK = false
		result.Issues = append(result.Issues, types.Issue{
			Type: types.IssueJudgment, Message: "verifier returned incomplete judgment",
		})
	} else {
		result.OK = *resp.OK
	}

	if resp.Issues == nil {
		if result.OK {
			return result
		}
		result.Issues = append(result.Issues, types.Issue{
			Type: types.IssueJudgment, Message: "verifier reported failure without issues",
		})
		return result
	}

	for _, msg := range *resp.Issues {
		result.Issues = append(result.Issues, types.Issue{Type: types.IssueJudgment, Message: msg})
	}
	return result
}
