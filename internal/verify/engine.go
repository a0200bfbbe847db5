package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/veridata/deckcheck/internal/ingest"
	"github.com/veridata/deckcheck/internal/llm"
	"github.com/veridata/deckcheck/internal/model"
	"github.com/veridata/deckcheck/internal/resolve"
	"github.com/veridata/deckcheck/internal/score"
	"github.com/veridata/deckcheck/internal/validate"
	"github.com/veridata/deckcheck/internal/worker"
)

// Deck text sent to the extraction prompt is capped to keep within context
// windows of smaller models.
const maxDeckChars = 24000

// Gateway is the slice of the LLM gateway the engine needs.
type Gateway interface {
	Complete(ctx context.Context, prompt string, opts ...llm.Option) (string, error)
	CompleteJSON(ctx context.Context, prompt string, v any, opts ...llm.Option) error
	ProviderName() string
	Model() string
}

// Searcher runs evidence searches for claim queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.Evidence, error)
	SearchNews(ctx context.Context, query string) ([]model.Evidence, error)
}

// Validator checks evidence links before scoring.
type Validator interface {
	Validate(ctx context.Context, evidence []model.Evidence) []model.ValidationResult
}

// Engine drives a full analysis run: ingest, resolve, extract, gather,
// score, question.
type Engine struct {
	cfg       *model.Config
	gateway   Gateway
	searcher  Searcher
	validator Validator
	parser    *ingest.Parser
	resolver  *resolve.Resolver
	scorer    *score.Scorer
}

// NewEngine wires an engine from config and the two external services.
func NewEngine(cfg *model.Config, gateway Gateway, searcher Searcher) *Engine {
	e := &Engine{
		cfg:      cfg,
		gateway:  gateway,
		searcher: searcher,
		parser:   ingest.NewParser(),
		scorer:   score.NewScorer(cfg.Verify.CategoryWeights),
	}
	e.resolver = resolve.NewResolver(cfg.Resolver, func(ctx context.Context, prompt string) (string, error) {
		return gateway.Complete(ctx, prompt)
	})
	if cfg.Verify.ValidateEvidence {
		e.validator = validate.NewValidator(cfg.Search.Timeout, cfg.Concurrency.ValidationWorkers)
	}
	return e
}

// Analyze runs the full pipeline on one deck. Ingestion, claim extraction
// and question generation failures are fatal; per-claim evidence failures
// are not.
func (e *Engine) Analyze(ctx context.Context, path string) (*model.AnalysisResult, error) {
	start := time.Now()
	result := &model.AnalysisResult{
		Filename: filepath.Base(path),
		State:    model.StateIngesting,
		Provenance: model.Provenance{
			AnalyzedAt:     start,
			LLMProvider:    e.gateway.ProviderName(),
			LLMModel:       e.gateway.Model(),
			SearchProvider: e.cfg.Search.Provider,
		},
	}

	doc, err := e.parser.Parse(path)
	if err != nil {
		return e.fail(result, start, fmt.Errorf("ingest: %w", err))
	}
	result.TotalPages = doc.TotalPages
	result.Sections = ingest.Sections(doc)

	result.CompanyName = e.resolver.Resolve(ctx, doc)
	result.State = model.StateNameResolved

	claims, err := e.extractClaims(ctx, result.CompanyName, doc)
	if err != nil {
		return e.fail(result, start, fmt.Errorf("extract claims: %w", err))
	}
	result.State = model.StateClaimsExtracted

	verified, err := e.gatherAndScore(ctx, result.CompanyName, claims)
	if err != nil {
		return e.fail(result, start, err)
	}
	result.Claims = verified
	result.State = model.StateEvidenceGathered

	result.OverallScore = e.scorer.Overall(verified)
	result.State = model.StateScored

	questions, err := e.generateQuestions(ctx, result.CompanyName, verified)
	if err != nil {
		return e.fail(result, start, fmt.Errorf("generate questions: %w", err))
	}
	result.Questions = questions
	result.State = model.StateQuestionsGenerated

	result.State = model.StateDone
	result.Provenance.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) fail(result *model.AnalysisResult, start time.Time, err error) (*model.AnalysisResult, error) {
	result.State = model.StateFailed
	result.FailureCause = err.Error()
	result.Provenance.Duration = time.Since(start)
	return result, err
}

type claimsResponse struct {
	Claims []struct {
		Text     string `json:"text"`
		Category string `json:"category"`
		Page     int    `json:"page"`
		Section  string `json:"section"`
	} `json:"claims"`
}

// extractClaims asks the LLM for verifiable claims. A malformed response
// gets one retry with a stricter prompt, then the run fails.
func (e *Engine) extractClaims(ctx context.Context, companyName string, doc *model.ParsedDocument) ([]model.Claim, error) {
	prompt := claimExtractionPrompt(companyName, deckText(doc), e.cfg.Verify.MaxClaims, e.cfg.Profile)

	var resp claimsResponse
	err := e.gateway.CompleteJSON(ctx, prompt, &resp, llm.WithSystemPrompt(claimExtractionSystem))
	if err != nil {
		var malformed *llm.MalformedOutputError
		if !errors.As(err, &malformed) {
			return nil, err
		}
		resp = claimsResponse{}
		if err := e.gateway.CompleteJSON(ctx, prompt+claimExtractionStrictSuffix, &resp, llm.WithSystemPrompt(claimExtractionSystem)); err != nil {
			return nil, err
		}
	}

	claims := make([]model.Claim, 0, len(resp.Claims))
	for _, c := range resp.Claims {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		page := c.Page
		if page < 1 || page > doc.TotalPages {
			page = 0
		}
		claims = append(claims, model.Claim{
			Text:     text,
			Category: model.NormalizeCategory(c.Category),
			Page:     page,
			Section:  strings.TrimSpace(c.Section),
		})
		if len(claims) == e.cfg.Verify.MaxClaims {
			break
		}
	}
	return claims, nil
}

// deckText flattens the document with page markers for the extraction prompt.
func deckText(doc *model.ParsedDocument) string {
	var sb strings.Builder
	for _, page := range doc.Pages {
		fmt.Fprintf(&sb, "[Page %d]\n%s\n\n", page.Number, page.Text)
		if sb.Len() > maxDeckChars {
			break
		}
	}
	text := sb.String()
	if len(text) > maxDeckChars {
		text = text[:maxDeckChars]
	}
	return text
}

type claimJob struct {
	engine  *Engine
	company string
	claim   model.Claim
}

type claimResult struct {
	verified model.VerifiedClaim
	err      error
}

func (r *claimResult) GetError() error { return r.err }

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	return &claimResult{verified: j.engine.evaluateClaim(ctx, j.company, j.claim)}
}

// gatherAndScore runs per-claim evidence gathering concurrently. Result
// order matches claim order.
func (e *Engine) gatherAndScore(ctx context.Context, companyName string, claims []model.Claim) ([]model.VerifiedClaim, error) {
	jobs := make([]worker.Job, len(claims))
	for i, claim := range claims {
		jobs[i] = &claimJob{engine: e, company: companyName, claim: claim}
	}

	results := worker.Map(ctx, e.cfg.Concurrency.EvidenceWorkers, jobs)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	verified := make([]model.VerifiedClaim, len(claims))
	for i, res := range results {
		if res == nil {
			verified[i] = model.VerifiedClaim{
				Claim:      claims[i],
				Verdict:    model.VerdictUnverified,
				Confidence: 0,
				Rationale:  "evidence gathering skipped",
			}
			continue
		}
		verified[i] = res.(*claimResult).verified
	}
	return verified, nil
}

// evaluateClaim gathers evidence for one claim and scores it. Search
// failures leave the claim with whatever evidence was collected.
func (e *Engine) evaluateClaim(ctx context.Context, companyName string, claim model.Claim) model.VerifiedClaim {
	var evidence []model.Evidence
	seen := make(map[string]bool)

	add := func(items []model.Evidence) {
		for _, ev := range items {
			if len(evidence) >= e.cfg.Verify.MaxEvidence {
				return
			}
			if ev.URL == "" || seen[ev.URL] {
				continue
			}
			seen[ev.URL] = true
			evidence = append(evidence, ev)
		}
	}

	queries := buildQueries(companyName, claim)
	for _, query := range queries {
		if len(evidence) >= e.cfg.Verify.MaxEvidence {
			break
		}
		if results, err := e.searcher.Search(ctx, query); err == nil {
			add(results)
		}
	}
	if newsWorthy(claim.Category) && len(evidence) < e.cfg.Verify.MaxEvidence && len(queries) > 0 {
		if results, err := e.searcher.SearchNews(ctx, queries[0]); err == nil {
			add(results)
		}
	}

	var validation []model.ValidationResult
	if e.validator != nil && len(evidence) > 0 {
		validation = e.validator.Validate(ctx, evidence)
	}

	return e.scorer.Assess(claim, evidence, validation)
}

type questionsResponse struct {
	Questions []struct {
		Text   string   `json:"text"`
		Claims []string `json:"claims"`
	} `json:"questions"`
}

// generateQuestions prompts for diligence questions on weakly supported
// claims. Like extraction, one stricter retry then fatal.
func (e *Engine) generateQuestions(ctx context.Context, companyName string, verified []model.VerifiedClaim) ([]model.Question, error) {
	weak := weakClaims(verified, e.cfg.Verify.QuestionThreshold)
	if len(weak) == 0 {
		return []model.Question{}, nil
	}

	prompt := questionGenerationPrompt(companyName, weak, e.cfg.Verify.MaxQuestions, e.cfg.Profile)

	var resp questionsResponse
	err := e.gateway.CompleteJSON(ctx, prompt, &resp, llm.WithSystemPrompt(questionGenerationSystem))
	if err != nil {
		var malformed *llm.MalformedOutputError
		if !errors.As(err, &malformed) {
			return nil, err
		}
		resp = questionsResponse{}
		if err := e.gateway.CompleteJSON(ctx, prompt+questionGenerationStrictSuffix, &resp, llm.WithSystemPrompt(questionGenerationSystem)); err != nil {
			return nil, err
		}
	}

	questions := make([]model.Question, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		questions = append(questions, model.Question{Text: text, Claims: q.Claims})
		if len(questions) == e.cfg.Verify.MaxQuestions {
			break
		}
	}
	return questions, nil
}

func weakClaims(verified []model.VerifiedClaim, threshold float64) []model.VerifiedClaim {
	var weak []model.VerifiedClaim
	for _, c := range verified {
		switch {
		case c.Verdict == model.VerdictContradicted, c.Verdict == model.VerdictUnverified:
			weak = append(weak, c)
		case c.Confidence < threshold:
			weak = append(weak, c)
		}
	}
	return weak
}
