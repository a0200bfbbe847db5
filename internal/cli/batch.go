package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridata/deckcheck/internal/model"
	"github.com/veridata/deckcheck/internal/report"
	"github.com/veridata/deckcheck/internal/verify"
	"github.com/veridata/deckcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every pitch deck in a directory",
	Long: `Batch analyzes all PDF files in a directory:
- Decks are processed in parallel with a configurable worker count
- Each analysis writes a JSON and Markdown report to the output directory
- One failing deck does not stop the batch

Example:
  deckcheck batch ./decks
  deckcheck batch ./decks --concurrency 2 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of decks analyzed in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./deckcheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 60*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable search result cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip evidence link validation")
	batchCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, openrouter, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
}

// batchJob analyzes one deck
type batchJob struct {
	engine *verify.Engine
	path   string
}

// batchResult pairs a deck path with its analysis outcome
type batchResult struct {
	path   string
	result *model.AnalysisResult
	err    error
}

func (r *batchResult) GetError() error { return r.err }

func (j *batchJob) Execute(ctx context.Context) worker.Result {
	result, err := j.engine.Analyze(ctx, j.path)
	return &batchResult{path: j.path, result: result, err: err}
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	_, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	decks, err := findDecks(dir)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		return fmt.Errorf("no PDF files found in %s", dir)
	}

	cfg := buildConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Output.IncludeFooter = !noFooter
	if noValidate {
		cfg.Verify.ValidateEvidence = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if err := resolveAPIKeys(cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Analyzing %d decks with %d workers\n\n", len(decks), concurrency)

	pool := worker.NewPool(concurrency)
	pool.Start()
	for _, path := range decks {
		pool.Submit(&batchJob{engine: engine, path: path})
	}
	results := pool.Wait()

	renderer := report.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, res := range results {
		br := res.(*batchResult)
		if br.err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", br.path, br.err)
			continue
		}

		slug := reportSlug(br.path)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(br.result, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", br.path, err)
			continue
		}
		if err := renderer.RenderMarkdown(br.result, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", br.path, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s: %s (score: %.0f/100)\n", br.path, br.result.CompanyName, br.result.OverallScore)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d succeeded, %d failed, reports in %s\n",
		successCount, failureCount, outputDir)

	if successCount == 0 {
		return fmt.Errorf("all %d decks failed", failureCount)
	}
	return nil
}

// findDecks lists PDF files in a directory, non-recursive
func findDecks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var decks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			decks = append(decks, filepath.Join(dir, e.Name()))
		}
	}
	return decks, nil
}

// reportSlug derives an output filename stem from the deck path
func reportSlug(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	slug := sb.String()
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return slug
}
