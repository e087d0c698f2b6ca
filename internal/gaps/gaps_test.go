// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"context"
	"testing"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/pkg/types"
)

type countingGenerator struct {
	output string
	err    error
	calls  int
}

func (c *countingGenerator) Generate(context.Context, string, int) (string, error) {
	c.calls++
	return c.output, c.err
}

func TestDetectEmptyCorpusShortCircuits(t *testing.T) {
	gen := &countingGenerator{output: "should never be used"}

	got := Detect(context.Background(), gen, nil)

	if got.Text != "No papers found, so no research gaps could be identified." {
		t.Errorf("Text = %q", got.Text)
	}
	if gen.calls != 0 {
		t.Errorf("backend calls = %d, want 0", gen.calls)
	}
}

func TestDetectReturnsBackendNarrative(t *testing.T) {
	narrative := "### Open Problems\n- sparse supervision remains unsolved"
	gen := &countingGenerator{output: narrative}

	got := Detect(context.Background(), gen, []types.PaperSummary{{Title: "T"}})

	if got.Text != narrative {
		t.Errorf("Text = %q, want backend narrative verbatim", got.Text)
	}
}

func TestDetectHeuristicBulletList(t *testing.T) {
	summaries := []types.PaperSummary{
		{OverallLimitations: []string{"english only", "slow inference"}},
		{OverallLimitations: []string{"small corpora"}},
	}

	got := Detect(context.Background(), llm.Disabled{}, summaries)

	want := "### Research Gaps (heuristic)\n\n- english only\n- slow inference\n- small corpora"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestDetectNoLimitationsMessage(t *testing.T) {
	got := Detect(context.Background(), llm.Disabled{}, []types.PaperSummary{{Title: "T"}})

	if got.Text != "No explicit limitations were extracted; research gaps could not be inferred reliably." {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestDetectBlankBackendOutputFallsBack(t *testing.T) {
	gen := &countingGenerator{output: "   \n"}
	summaries := []types.PaperSummary{{OverallLimitations: []string{"x"}}}

	got := Detect(context.Background(), gen, summaries)

	if got.Text != "### Research Gaps (heuristic)\n\n- x" {
		t.Errorf("Text = %q, want heuristic fallback", got.Text)
	}
}
