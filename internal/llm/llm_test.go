// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"wrapped in prose", "Sure, here it is:\n```json\n{\"a\": 1}\n```\nDone.", "{\"a\": 1}", true},
		{"spans to last brace", `{"a": {"b": 2}} trailing`, `{"a": {"b": 2}}`, true},
		{"no braces", "nothing here", "", false},
		{"close before open", "} {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FirstJSONObject(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFirstJSONArray(t *testing.T) {
	got, ok := FirstJSONArray(`scores: [{"s": 1}, {"s": 2}] end`)
	if !ok || got != `[{"s": 1}, {"s": 2}]` {
		t.Errorf("FirstJSONArray = %q, %v", got, ok)
	}
	if _, ok := FirstJSONArray("no array"); ok {
		t.Error("expected no array")
	}
}

func TestDisabledAlwaysUnavailable(t *testing.T) {
	_, err := Disabled{}.Generate(context.Background(), "prompt", 100)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.GenerationConfig.MaxOutputTokens != 400 || req.GenerationConfig.Temperature != 0 {
			t.Errorf("generation config = %+v", req.GenerationConfig)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "the prompt" {
			t.Errorf("contents = %+v", req.Contents)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{
					{"text": "part one "},
					{"text": "part two"},
				}}},
			},
		})
	}))
	defer srv.Close()

	oldBase := geminiAPIBase
	geminiAPIBase = srv.URL
	defer func() { geminiAPIBase = oldBase }()

	g := &GeminiBackend{APIKey: "test-key", Model: "gemini-2.0-flash-lite", Client: srv.Client()}
	out, err := g.Generate(context.Background(), "the prompt", 400)
	if err != nil {
		t.Fatal(err)
	}
	if out != "part one part two" {
		t.Errorf("out = %q", out)
	}
}

func TestGeminiNoKeyIsUnavailable(t *testing.T) {
	g := &GeminiBackend{Model: "gemini-2.0-flash-lite"}
	_, err := g.Generate(context.Background(), "prompt", 100)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want wrapped ErrUnavailable", err)
	}
}

func TestGeminiErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusForbidden)
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates": []}`))
		}},
		{"empty content", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates": [{"content": {"parts": []}}]}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			oldBase := geminiAPIBase
			geminiAPIBase = srv.URL
			defer func() { geminiAPIBase = oldBase }()

			g := &GeminiBackend{APIKey: "k", Model: "m", Client: srv.Client()}
			if _, err := g.Generate(context.Background(), "p", 100); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
