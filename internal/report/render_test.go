package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/veridata/deckcheck/internal/model"
)

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		CompanyName:  "Acme",
		Filename:     "acme-deck.pdf",
		TotalPages:   12,
		Sections:     map[string]bool{"traction": true, "team": false},
		OverallScore: 72,
		State:        model.StateDone,
		Claims: []model.VerifiedClaim{
			{
				Claim:      model.Claim{Text: "Acme reached $10M ARR | up 40%", Category: model.CategoryFinancials, Page: 3},
				Evidence:   []model.Evidence{{URL: "https://example.com", Title: "Acme milestone"}},
				Verdict:    model.VerdictVerified,
				Confidence: 0.82,
				Rationale:  "2 of 3 sources support the claim",
			},
		},
		Questions: []model.Question{
			{Text: "What supports the ARR figure?", Claims: []string{"Acme reached $10M ARR | up 40%"}},
		},
		Provenance: model.Provenance{
			AnalyzedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			LLMProvider: "openrouter",
			LLMModel:    "google/gemini-2.0-flash-exp",
		},
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	renderer := NewRenderer(true)

	if err := renderer.RenderJSON(sampleResult(), path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var parsed model.AnalysisResult
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.CompanyName != "Acme" || parsed.State != model.StateDone {
		t.Errorf("round trip lost fields: %+v", parsed)
	}
}

func TestRenderMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	renderer := NewRenderer(true)

	if err := renderer.RenderMarkdown(sampleResult(), path); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Deck Analysis: Acme",
		"72/100",
		"## Claims",
		"## Diligence Questions",
		"Acme reached $10M ARR \\| up 40%",
		"Generated by deckcheck",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "| up 40% |") {
		t.Error("unescaped pipe broke the claims table")
	}
}

func TestRenderMarkdownSectionsSorted(t *testing.T) {
	result := sampleResult()
	result.Sections = map[string]bool{
		"traction": true, "market": true, "ask": true, "team": true, "problem": false,
	}

	renderer := NewRenderer(false)
	path := filepath.Join(t.TempDir(), "out.md")

	// Map iteration order varies, so identical input must render identically
	// across runs.
	want := "**Sections detected:** ask, market, team, traction"
	for i := 0; i < 5; i++ {
		if err := renderer.RenderMarkdown(result, path); err != nil {
			t.Fatalf("RenderMarkdown: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if !strings.Contains(string(data), want) {
			t.Fatalf("run %d: markdown missing %q", i, want)
		}
	}
}

func TestRenderMarkdownNoFooter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	renderer := NewRenderer(false)

	if err := renderer.RenderMarkdown(sampleResult(), path); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Generated by deckcheck") {
		t.Error("footer rendered despite being disabled")
	}
}
