package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete application configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Resolver    ResolverConfig    `yaml:"resolver"`
	Verify      VerifyConfig      `yaml:"verify"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
	Profile     InvestorProfile   `yaml:"profile"`
}

// LLMConfig holds language-model provider configuration
type LLMConfig struct {
	Provider  string        `yaml:"provider"` // openai, openrouter, anthropic, ollama
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"-"` // From environment, never persisted
	BaseURL   string        `yaml:"base_url,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// SearchConfig holds web-search provider configuration
type SearchConfig struct {
	Provider         string        `yaml:"provider"` // tavily or duckduckgo
	TavilyAPIKey     string        `yaml:"-"`
	MaxResults       int           `yaml:"max_results"`
	Timeout          time.Duration `yaml:"timeout"`
	RetryCount       int           `yaml:"retry_count"`       // Fallback provider retries
	FallbackInterval time.Duration `yaml:"fallback_interval"` // Min delay between fallback calls
}

// ResolverConfig holds the company-name resolver tuning knobs.
// The weights are empirically tuned; they are configurable rather than
// hard-coded because no derivation justifies the exact values.
type ResolverConfig struct {
	EarlyPages int             `yaml:"early_pages"` // Pages scanned by the frequency heuristic
	Weights    ResolverWeights `yaml:"weights"`
}

// ResolverWeights are the frequency-heuristic scoring weights
type ResolverWeights struct {
	Frequency     int `yaml:"frequency"`      // Points per occurrence
	WasCreated    int `yaml:"was_created"`    // "X was created" bonus
	AtPrefix      int `yaml:"at_prefix"`      // "At X," bonus
	IsStatement   int `yaml:"is_statement"`   // "X is" bonus
	FilenameHint  int `yaml:"filename_hint"`  // Candidate appears in filename
	TitleHint     int `yaml:"title_hint"`     // Candidate appears in document title
	PluralPenalty int `yaml:"plural_penalty"` // Trailing-"s" penalty
}

// VerifyConfig holds claim-verification engine configuration
type VerifyConfig struct {
	MaxClaims         int                       `yaml:"max_claims"`
	MaxQuestions      int                       `yaml:"max_questions"`
	MaxEvidence       int                       `yaml:"max_evidence"`       // Per-claim evidence cap
	QuestionThreshold float64                   `yaml:"question_threshold"` // Confidence below which questions are generated
	ValidateEvidence  bool                      `yaml:"validate_evidence"`  // Check evidence links before scoring
	CategoryWeights   map[ClaimCategory]float64 `yaml:"category_weights,omitempty"`
}

// CacheConfig holds search-result cache configuration
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig bounds concurrent work
type ConcurrencyConfig struct {
	EvidenceWorkers   int `yaml:"evidence_workers"`   // Parallel per-claim evidence gathering
	ValidationWorkers int `yaml:"validation_workers"` // Parallel evidence link checks
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// InvestorProfile steers claim-extraction and question-generation prompts.
// It has no effect on scoring mechanics.
type InvestorProfile struct {
	Name       string   `yaml:"name"`
	FocusAreas []string `yaml:"focus_areas"`
	Stage      string   `yaml:"stage"`
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deckcheck-cache"
	}
	return filepath.Join(home, ".deckcheck", "cache")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openrouter",
			Model:     "google/gemini-2.0-flash-exp",
			Timeout:   60 * time.Second,
			MaxTokens: 2000,
		},
		Search: SearchConfig{
			Provider:         "tavily",
			MaxResults:       5,
			Timeout:          30 * time.Second,
			RetryCount:       2,
			FallbackInterval: 2500 * time.Millisecond,
		},
		Resolver: ResolverConfig{
			EarlyPages: 5,
			Weights: ResolverWeights{
				Frequency:     2,
				WasCreated:    8,
				AtPrefix:      5,
				IsStatement:   3,
				FilenameHint:  10,
				TitleHint:     4,
				PluralPenalty: 2,
			},
		},
		Verify: VerifyConfig{
			MaxClaims:         25,
			MaxQuestions:      10,
			MaxEvidence:       5,
			QuestionThreshold: 0.6,
			ValidateEvidence:  true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			EvidenceWorkers:   4,
			ValidationWorkers: 10,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
		Profile: InvestorProfile{
			Name:       "Investor",
			FocusAreas: []string{"B2B SaaS", "FinTech", "AI/ML"},
			Stage:      "Series A",
		},
	}
}
