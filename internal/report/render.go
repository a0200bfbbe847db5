package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/veridata/deckcheck/internal/model"
)

// Renderer writes analysis results as JSON or Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the result as indented JSON. Path "-" or "" writes to
// stdout.
func (r *Renderer) RenderJSON(result *model.AnalysisResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report. Path "-" or "" writes to
// stdout.
func (r *Renderer) RenderMarkdown(result *model.AnalysisResult, path string) error {
	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return r.writeMarkdown(w, result)
}

func (r *Renderer) writeMarkdown(w io.Writer, result *model.AnalysisResult) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Deck Analysis: %s\n\n", result.CompanyName)
	fmt.Fprintf(&sb, "**File:** %s (%d pages)  \n", result.Filename, result.TotalPages)
	fmt.Fprintf(&sb, "**Overall score:** %.0f/100  \n", result.OverallScore)
	fmt.Fprintf(&sb, "**Status:** %s  \n\n", result.State)

	if result.FailureCause != "" {
		fmt.Fprintf(&sb, "> Analysis failed: %s\n\n", result.FailureCause)
	}

	if len(result.Sections) > 0 {
		present := make([]string, 0, len(result.Sections))
		for name, ok := range result.Sections {
			if ok {
				present = append(present, name)
			}
		}
		sort.Strings(present)
		if len(present) > 0 {
			fmt.Fprintf(&sb, "**Sections detected:** %s\n\n", strings.Join(present, ", "))
		}
	}

	if len(result.Claims) > 0 {
		sb.WriteString("## Claims\n\n")
		sb.WriteString("| # | Claim | Category | Verdict | Confidence |\n")
		sb.WriteString("|---|-------|----------|---------|------------|\n")
		for i, c := range result.Claims {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %.2f |\n",
				i+1, escapeCell(c.Claim.Text), c.Claim.Category, c.Verdict, c.Confidence)
		}
		sb.WriteString("\n")

		for i, c := range result.Claims {
			if len(c.Evidence) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "### Claim %d: %s\n\n", i+1, c.Claim.Text)
			fmt.Fprintf(&sb, "_%s_\n\n", c.Rationale)
			for _, ev := range c.Evidence {
				title := ev.Title
				if title == "" {
					title = ev.URL
				}
				fmt.Fprintf(&sb, "- [%s](%s)\n", escapeCell(title), ev.URL)
			}
			sb.WriteString("\n")
		}
	}

	if len(result.Questions) > 0 {
		sb.WriteString("## Diligence Questions\n\n")
		for i, q := range result.Questions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, q.Text)
		}
		sb.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&sb, "---\n\nGenerated by deckcheck on %s using %s",
			result.Provenance.AnalyzedAt.Format(time.RFC3339), result.Provenance.LLMProvider)
		if result.Provenance.LLMModel != "" {
			fmt.Fprintf(&sb, "/%s", result.Provenance.LLMModel)
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// escapeCell keeps claim text from breaking markdown tables
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
