// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"testing"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/pkg/types"
)

func TestScoreFormula(t *testing.T) {
	p := types.PaperRecord{
		PaperID: "p1",
		PaperSummary: types.PaperSummary{
			Published:          "2022-01-01",
			OverallMethods:     []string{"A", "B"},
			OverallResults:     map[string]string{"f1": "0.9"},
			OverallLimitations: []string{"slow"},
		},
	}
	// 0.5*22 + 1.0*2 + 2.0 + 1.0 = 16.0
	if got := Score(p); got != 16.0 {
		t.Errorf("Score = %v, want 16.0", got)
	}
}

func TestScoreEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		p    types.PaperRecord
		want float64
	}{
		{"empty paper", types.PaperRecord{}, 0},
		{"pre-2000 year clamped", types.PaperRecord{
			PaperSummary: types.PaperSummary{Published: "1998-01-01", OverallMethods: []string{"A"}},
		}, 1.0},
		{"unparsable date ignored", types.PaperRecord{
			PaperSummary: types.PaperSummary{Published: "soon", OverallMethods: []string{"A"}},
		}, 1.0},
		{"record date fallback", types.PaperRecord{
			Published: "2020-03-01",
		}, 10.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.p); got != tt.want {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPapersSortsDescendingStable(t *testing.T) {
	papers := []types.PaperRecord{
		{PaperID: "low", PaperSummary: types.PaperSummary{Published: "2010-01-01"}},
		{PaperID: "tie-a", PaperSummary: types.PaperSummary{Published: "2020-01-01"}},
		{PaperID: "tie-b", PaperSummary: types.PaperSummary{Published: "2020-01-01"}},
	}

	got := Papers(papers)
	want := []string{"tie-a", "tie-b", "low"}
	for i, id := range want {
		if got[i].PaperID != id {
			t.Fatalf("rank[%d] = %q, want %q (full: %+v)", i, got[i].PaperID, id, got)
		}
	}
	if got[0].Score != 10.0 {
		t.Errorf("Score = %v, want 10.0", got[0].Score)
	}
}

type stubGenerator struct {
	output string
	err    error
}

func (s stubGenerator) Generate(context.Context, string, int) (string, error) {
	return s.output, s.err
}

func TestPapersLLMUsesBackendRanking(t *testing.T) {
	gen := stubGenerator{output: `Ranking follows.
[{"paper_id": "p2", "title": "B", "published": "2023", "score": 14.5},
 {"paper_id": "p1", "title": "A", "published": "2020", "score": 10.0}]`}

	papers := []types.PaperRecord{{PaperID: "p1", Title: "A"}, {PaperID: "p2", Title: "B"}}
	got := PapersLLM(context.Background(), gen, papers)

	if len(got) != 2 || got[0].PaperID != "p2" || got[0].Score != 14.5 {
		t.Errorf("got %+v, want backend ordering", got)
	}
}

func TestPapersLLMFallsBackOnInvalidEntries(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"no array", "I cannot rank these."},
		{"malformed", `[{"paper_id": `},
		{"missing score key", `[{"paper_id": "p1", "title": "A", "published": "2020"}]`},
	}
	papers := []types.PaperRecord{
		{PaperID: "p1", Title: "A", PaperSummary: types.PaperSummary{Published: "2020-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PapersLLM(context.Background(), stubGenerator{output: tt.output}, papers)
			if len(got) != 1 || got[0].PaperID != "p1" || got[0].Score != 10.0 {
				t.Errorf("got %+v, want deterministic fallback", got)
			}
		})
	}
}

func TestPapersLLMFallsBackWhenDisabled(t *testing.T) {
	papers := []types.PaperRecord{
		{PaperID: "p1", PaperSummary: types.PaperSummary{Published: "2022-01-01"}},
	}
	got := PapersLLM(context.Background(), llm.Disabled{}, papers)
	if len(got) != 1 || got[0].Score != 11.0 {
		t.Errorf("got %+v, want deterministic fallback score 11.0", got)
	}
}
