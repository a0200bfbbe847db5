package verify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/veridata/deckcheck/internal/llm"
	"github.com/veridata/deckcheck/internal/model"
)

type fakeGateway struct {
	responses []string // Consumed in order; "MALFORMED" yields a MalformedOutputError
	prompts   []string
}

func (f *fakeGateway) Complete(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", errors.New("no responses queued")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeGateway) CompleteJSON(ctx context.Context, prompt string, v any, opts ...llm.Option) error {
	raw, err := f.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	if raw == "MALFORMED" {
		return &llm.MalformedOutputError{Raw: "I think the claims are...", Err: errors.New("no JSON found")}
	}
	return json.Unmarshal([]byte(llm.ExtractJSON(raw)), v)
}

func (f *fakeGateway) ProviderName() string { return "fake" }
func (f *fakeGateway) Model() string        { return "fake-model" }

type fakeSearcher struct {
	results map[string][]model.Evidence // Keyed by substring of the query

	mu      sync.Mutex
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	for key, results := range f.results {
		if key != "" && strings.Contains(strings.ToLower(query), key) {
			return results, nil
		}
	}
	return []model.Evidence{}, nil
}

func (f *fakeSearcher) SearchNews(ctx context.Context, query string) ([]model.Evidence, error) {
	return f.Search(ctx, query)
}

func testEngine(gateway Gateway, searcher Searcher) *Engine {
	cfg := model.DefaultConfig()
	cfg.Verify.ValidateEvidence = false
	return NewEngine(cfg, gateway, searcher)
}

func testDoc() *model.ParsedDocument {
	return &model.ParsedDocument{
		Filename:   "acme-deck.pdf",
		TotalPages: 3,
		Pages: []model.Page{
			{Number: 1, Text: "Acme\nSeries A Pitch"},
			{Number: 2, Text: "We reached $10M ARR in 2024"},
			{Number: 3, Text: "Team of ex-Google engineers"},
		},
	}
}

const claimsJSON = `{"claims": [
	{"text": "Acme reached $10M ARR in 2024", "category": "financials", "page": 2, "section": "traction"},
	{"text": "Founding team includes ex-Google engineers", "category": "team", "page": 3, "section": "team"}
]}`

func TestExtractClaims(t *testing.T) {
	gateway := &fakeGateway{responses: []string{claimsJSON}}
	engine := testEngine(gateway, &fakeSearcher{})

	claims, err := engine.extractClaims(context.Background(), "Acme", testDoc())
	if err != nil {
		t.Fatalf("extractClaims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
	if claims[0].Category != model.CategoryFinancials {
		t.Errorf("category = %s", claims[0].Category)
	}
	if claims[0].Page != 2 {
		t.Errorf("page = %d", claims[0].Page)
	}
}

func TestExtractClaimsRetriesMalformedOnce(t *testing.T) {
	gateway := &fakeGateway{responses: []string{"MALFORMED", claimsJSON}}
	engine := testEngine(gateway, &fakeSearcher{})

	claims, err := engine.extractClaims(context.Background(), "Acme", testDoc())
	if err != nil {
		t.Fatalf("extractClaims after retry: %v", err)
	}
	if len(claims) != 2 {
		t.Errorf("got %d claims, want 2", len(claims))
	}
	if len(gateway.prompts) != 2 {
		t.Fatalf("gateway called %d times, want 2", len(gateway.prompts))
	}
	if gateway.prompts[0] == gateway.prompts[1] {
		t.Error("retry prompt should be stricter than the original")
	}
}

func TestExtractClaimsFailsAfterSecondMalformed(t *testing.T) {
	gateway := &fakeGateway{responses: []string{"MALFORMED", "MALFORMED"}}
	engine := testEngine(gateway, &fakeSearcher{})

	_, err := engine.extractClaims(context.Background(), "Acme", testDoc())
	if err == nil {
		t.Fatal("expected error after two malformed responses")
	}
	var malformed *llm.MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Errorf("expected MalformedOutputError, got %T", err)
	}
}

func TestExtractClaimsNormalizesBadFields(t *testing.T) {
	gateway := &fakeGateway{responses: []string{`{"claims": [
		{"text": "Claim on impossible page", "category": "nonsense", "page": 99},
		{"text": "  ", "category": "traction", "page": 1}
	]}`}}
	engine := testEngine(gateway, &fakeSearcher{})

	claims, err := engine.extractClaims(context.Background(), "Acme", testDoc())
	if err != nil {
		t.Fatalf("extractClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("got %d claims, want 1 (blank text dropped)", len(claims))
	}
	if claims[0].Category != model.CategoryOther {
		t.Errorf("unknown category should normalize to other, got %s", claims[0].Category)
	}
	if claims[0].Page != 0 {
		t.Errorf("out-of-range page should clear to 0, got %d", claims[0].Page)
	}
}

func TestGatherAndScoreOrdersResults(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]model.Evidence{
		"10m": {
			{URL: "https://techcrunch.com/acme", Title: "Acme hits $10M ARR", Snippet: "Acme reached $10M ARR in 2024."},
			{URL: "https://reuters.com/acme", Title: "Acme milestone", Snippet: "Acme reached $10M ARR in 2024 according to filings."},
		},
	}}
	engine := testEngine(&fakeGateway{}, searcher)

	claims := []model.Claim{
		{Text: "Acme reached $10M ARR in 2024", Category: model.CategoryFinancials},
		{Text: "Quantum blockchain synergy platform", Category: model.CategoryProduct},
	}

	verified, err := engine.gatherAndScore(context.Background(), "Acme", claims)
	if err != nil {
		t.Fatalf("gatherAndScore: %v", err)
	}
	if len(verified) != 2 {
		t.Fatalf("got %d verified claims, want 2", len(verified))
	}
	if verified[0].Claim.Text != claims[0].Text || verified[1].Claim.Text != claims[1].Text {
		t.Error("verified claims out of order")
	}
	if verified[0].Verdict != model.VerdictVerified {
		t.Errorf("claim with supporting evidence: verdict = %s", verified[0].Verdict)
	}
	if verified[1].Verdict != model.VerdictUnverified {
		t.Errorf("claim with no evidence: verdict = %s", verified[1].Verdict)
	}
}

func TestEvaluateClaimDeduplicatesAndCaps(t *testing.T) {
	dup := model.Evidence{URL: "https://example.com/same", Title: "Acme", Snippet: "Acme reached $10M ARR in 2024"}
	searcher := &fakeSearcher{results: map[string][]model.Evidence{
		"acme": {dup, dup, dup,
			{URL: "https://example.com/a", Title: "Acme", Snippet: "Acme ARR"},
			{URL: "https://example.com/b", Title: "Acme", Snippet: "Acme ARR"},
			{URL: "https://example.com/c", Title: "Acme", Snippet: "Acme ARR"},
			{URL: "https://example.com/d", Title: "Acme", Snippet: "Acme ARR"},
			{URL: "https://example.com/e", Title: "Acme", Snippet: "Acme ARR"},
		},
	}}
	engine := testEngine(&fakeGateway{}, searcher)

	claim := model.Claim{Text: "Acme reached $10M ARR in 2024", Category: model.CategoryFinancials}
	verified := engine.evaluateClaim(context.Background(), "Acme", claim)

	if len(verified.Evidence) != engine.cfg.Verify.MaxEvidence {
		t.Errorf("got %d evidence items, want cap %d", len(verified.Evidence), engine.cfg.Verify.MaxEvidence)
	}
	seen := make(map[string]bool)
	for _, ev := range verified.Evidence {
		if seen[ev.URL] {
			t.Errorf("duplicate evidence URL %s", ev.URL)
		}
		seen[ev.URL] = true
	}
}

const questionsJSON = `{"questions": [
	{"text": "What methodology supports the $10M ARR figure?", "claims": ["Acme reached $10M ARR in 2024"]}
]}`

func TestGenerateQuestionsForWeakClaims(t *testing.T) {
	gateway := &fakeGateway{responses: []string{questionsJSON}}
	engine := testEngine(gateway, &fakeSearcher{})

	verified := []model.VerifiedClaim{
		{Claim: model.Claim{Text: "Acme reached $10M ARR in 2024"}, Verdict: model.VerdictUnverified, Confidence: 0.2},
		{Claim: model.Claim{Text: "Strong claim"}, Verdict: model.VerdictVerified, Confidence: 0.9},
	}

	questions, err := engine.generateQuestions(context.Background(), "Acme", verified)
	if err != nil {
		t.Fatalf("generateQuestions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].Text == "" || len(questions[0].Claims) != 1 {
		t.Errorf("question malformed: %+v", questions[0])
	}
}

func TestGenerateQuestionsSkipsWhenAllStrong(t *testing.T) {
	gateway := &fakeGateway{}
	engine := testEngine(gateway, &fakeSearcher{})

	verified := []model.VerifiedClaim{
		{Claim: model.Claim{Text: "Strong claim"}, Verdict: model.VerdictVerified, Confidence: 0.9},
	}

	questions, err := engine.generateQuestions(context.Background(), "Acme", verified)
	if err != nil {
		t.Fatalf("generateQuestions: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions, want 0", len(questions))
	}
	if len(gateway.prompts) != 0 {
		t.Error("gateway should not be called when no claims are weak")
	}
}

func TestGenerateQuestionsFailsAfterRetry(t *testing.T) {
	gateway := &fakeGateway{responses: []string{"MALFORMED", "MALFORMED"}}
	engine := testEngine(gateway, &fakeSearcher{})

	verified := []model.VerifiedClaim{
		{Claim: model.Claim{Text: "Weak claim"}, Verdict: model.VerdictUnverified, Confidence: 0.1},
	}

	if _, err := engine.generateQuestions(context.Background(), "Acme", verified); err == nil {
		t.Fatal("expected error after two malformed responses")
	}
}

func TestWeakClaims(t *testing.T) {
	verified := []model.VerifiedClaim{
		{Verdict: model.VerdictVerified, Confidence: 0.9},
		{Verdict: model.VerdictVerified, Confidence: 0.5},
		{Verdict: model.VerdictContradicted, Confidence: 0.7},
		{Verdict: model.VerdictUnverified, Confidence: 0.2},
	}
	weak := weakClaims(verified, 0.6)
	if len(weak) != 3 {
		t.Errorf("got %d weak claims, want 3", len(weak))
	}
}
