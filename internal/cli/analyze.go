package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridata/deckcheck/internal/report"
)

var (
	outJSON        string
	outMD          string
	timeout        time.Duration
	noCache        bool
	noFooter       bool
	noValidate     bool
	llmProvider    string
	llmModel       string
	searchProvider string
	maxClaims      int
	maxQuestions   int
	workers        int
	focusAreas     []string
	stage          string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <deck.pdf>",
	Short: "Analyze a pitch deck and generate a verification report",
	Long: `Analyze runs the full verification pipeline on one PDF deck:
- Extract per-page text, tables and section structure
- Resolve the company name
- Extract verifiable factual claims via LLM
- Gather public evidence for each claim via web search
- Score claims and the deck overall
- Generate diligence questions for weak claims

Example:
  deckcheck analyze acme-series-a.pdf
  deckcheck analyze deck.pdf --json report.json --md report.md
  deckcheck analyze deck.pdf --provider anthropic --model claude-sonnet-4-5`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Pipeline flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable search result cache")
	analyzeCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip evidence link validation")
	analyzeCmd.Flags().IntVar(&maxClaims, "max-claims", 0, "cap on extracted claims (0 = config default)")
	analyzeCmd.Flags().IntVar(&maxQuestions, "max-questions", 0, "cap on generated questions (0 = config default)")
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "parallel evidence-gathering workers (0 = config default)")

	// Investor profile flags, folded into the extraction prompts
	analyzeCmd.Flags().StringSliceVar(&focusAreas, "focus", nil, "focus areas to weight (e.g. traction,financials)")
	analyzeCmd.Flags().StringVar(&stage, "stage", "", "investment stage (e.g. seed, series-a)")

	// Provider flags
	analyzeCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, openrouter, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	analyzeCmd.Flags().StringVar(&searchProvider, "search-provider", "", "search provider (tavily, duckduckgo)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := buildConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Output.IncludeFooter = !noFooter
	if noValidate {
		cfg.Verify.ValidateEvidence = false
	}
	if maxClaims > 0 {
		cfg.Verify.MaxClaims = maxClaims
	}
	if maxQuestions > 0 {
		cfg.Verify.MaxQuestions = maxQuestions
	}
	if workers > 0 {
		cfg.Concurrency.EvidenceWorkers = workers
	}
	if len(focusAreas) > 0 {
		cfg.Profile.FocusAreas = focusAreas
	}
	if stage != "" {
		cfg.Profile.Stage = stage
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if searchProvider != "" {
		cfg.Search.Provider = searchProvider
	}

	if err := resolveAPIKeys(cfg); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", path)
		fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Search: %s\n", cfg.Search.Provider)
		fmt.Fprintln(os.Stderr)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	result, err := engine.Analyze(ctx, path)
	if err != nil {
		// A failed result still renders so the partial state is inspectable
		if result != nil {
			renderer := report.NewRenderer(cfg.Output.IncludeFooter)
			_ = renderer.RenderJSON(result, outJSON)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Company: %s\n", result.CompanyName)
		fmt.Fprintf(os.Stderr, "✓ Extracted %d claims\n", len(result.Claims))
		fmt.Fprintf(os.Stderr, "✓ Generated %d diligence questions\n", len(result.Questions))
		fmt.Fprintf(os.Stderr, "✓ Overall score: %.0f/100\n", result.OverallScore)
		fmt.Fprintln(os.Stderr)
	}

	renderer := report.NewRenderer(cfg.Output.IncludeFooter)
	if err := renderer.RenderJSON(result, outJSON); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	return nil
}
