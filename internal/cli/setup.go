package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/veridata/deckcheck/internal/cache"
	"github.com/veridata/deckcheck/internal/llm"
	"github.com/veridata/deckcheck/internal/model"
	"github.com/veridata/deckcheck/internal/search"
	"github.com/veridata/deckcheck/internal/verify"
)

// buildConfig layers defaults, config file and environment
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("search.provider"); v != "" {
		cfg.Search.Provider = v
	}
	if viper.IsSet("search.max_results") {
		cfg.Search.MaxResults = viper.GetInt("search.max_results")
	}
	if viper.IsSet("verify.max_claims") {
		cfg.Verify.MaxClaims = viper.GetInt("verify.max_claims")
	}
	if viper.IsSet("verify.max_questions") {
		cfg.Verify.MaxQuestions = viper.GetInt("verify.max_questions")
	}
	if viper.IsSet("verify.validate_evidence") {
		cfg.Verify.ValidateEvidence = viper.GetBool("verify.validate_evidence")
	}
	if viper.IsSet("concurrency.evidence_workers") {
		cfg.Concurrency.EvidenceWorkers = viper.GetInt("concurrency.evidence_workers")
	}
	if v := viper.GetString("profile.name"); v != "" {
		cfg.Profile.Name = v
	}
	if v := viper.GetStringSlice("profile.focus_areas"); len(v) > 0 {
		cfg.Profile.FocusAreas = v
	}
	if v := viper.GetString("profile.stage"); v != "" {
		cfg.Profile.Stage = v
	}

	cfg.Output.Verbose = verbose
	return cfg
}

// resolveAPIKeys pulls provider credentials from the environment. Keys never
// live in the config file.
func resolveAPIKeys(cfg *model.Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "openrouter":
		cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	// Optional: without it the service scrapes the fallback provider
	cfg.Search.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	if cfg.Search.TavilyAPIKey == "" && cfg.Search.Provider == "tavily" {
		cfg.Search.Provider = "duckduckgo"
		if verbose {
			fmt.Fprintf(os.Stderr, "TAVILY_API_KEY not set, falling back to duckduckgo\n")
		}
	}
	return nil
}

// buildStore creates the search-result cache per config. Disabled cache
// returns nil.
func buildStore(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	memory := cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL*2)
	disk := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL)
	return cache.NewLayeredCache(memory, disk)
}

// buildEngine wires the full pipeline from config
func buildEngine(cfg *model.Config) (*verify.Engine, error) {
	gateway, err := llm.NewGateway(llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Timeout:   cfg.LLM.Timeout,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	searcher := search.NewService(cfg.Search, buildStore(cfg))
	return verify.NewEngine(cfg, gateway, searcher), nil
}
