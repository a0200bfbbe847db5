package resolve

import (
	"context"
	"regexp"
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

// Unknown is the sentinel returned when every cascade stage fails validation.
// The resolver never returns an empty string and never errors: naming failure
// degrades gracefully, it does not fail the run.
const Unknown = "Unknown Company"

// CompleteFunc is the minimal LLM surface the resolver's fallback stage needs
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Hints carries document identity signals into the heuristics
type Hints struct {
	Filename  string
	Title     string
	EarlyText string // First few pages of text, where the name repeats
}

// Resolver resolves the subject-entity name of a deck despite noisy,
// stylized cover pages. It runs an ordered cascade of heuristics; the first
// candidate that passes validation wins.
type Resolver struct {
	cfg   model.ResolverConfig
	llmFn CompleteFunc // nil disables the LLM fallback stage
}

// NewResolver creates a resolver. llmFn may be nil.
func NewResolver(cfg model.ResolverConfig, llmFn CompleteFunc) *Resolver {
	if cfg.EarlyPages <= 0 {
		cfg.EarlyPages = 5
	}
	return &Resolver{cfg: cfg, llmFn: llmFn}
}

// stage is one cascade entry: a pure candidate producer plus the occurrence
// count its candidate must reach in the early-pages text.
type stage struct {
	name   string
	minOcc int
	run    func(ctx context.Context, doc *model.ParsedDocument, hints Hints) string
}

// Resolve returns the company name for the document, or Unknown
func (r *Resolver) Resolve(ctx context.Context, doc *model.ParsedDocument) string {
	name, _ := r.ResolveWithStage(ctx, doc)
	return name
}

// ResolveWithStage additionally reports which heuristic produced the winner
func (r *Resolver) ResolveWithStage(ctx context.Context, doc *model.ParsedDocument) (string, string) {
	hints := Hints{
		Filename:  doc.Filename,
		Title:     strings.TrimSpace(doc.Metadata["title"]),
		EarlyText: doc.EarlyText(r.cfg.EarlyPages),
	}

	stages := []stage{
		{"largest_text", 2, r.fromLargestText},
		{"cover_lines", 2, r.fromCoverLines},
		{"frequency", 1, r.fromFrequency},
		{"metadata_title", 0, r.fromTitle},
		{"llm", 0, r.fromLLM},
	}

	for _, s := range stages {
		candidate := strings.TrimSpace(s.run(ctx, doc, hints))
		if isValidCandidate(candidate, hints.EarlyText, s.minOcc) {
			return candidate, s.name
		}
	}
	return Unknown, "none"
}

// Generic cover phrases that are visually prominent but never company names
var genericPhrases = map[string]bool{
	"FOR BUSINESS":           true,
	"INVESTOR DECK":          true,
	"PITCH DECK":             true,
	"PRESENTATION":           true,
	"COMPANY OVERVIEW":       true,
	"CONFIDENTIAL":           true,
	"PRIVATE & CONFIDENTIAL": true,
	"DECK":                   true,
}

// Lowercase substrings that disqualify a candidate
var genericSubstrings = []string{
	"for business",
	"investor",
	"pitch deck",
	"presentation",
	"company overview",
	"confidential",
	"private",
	"do not distribute",
	"all rights reserved",
}

var (
	nonWordOnly = regexp.MustCompile(`^[\W_]+$`)
	bareNumber  = regexp.MustCompile(`^\d{1,4}$`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

func isGenericPhrase(s string) bool {
	if s == "" {
		return true
	}
	clean := strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
	if genericPhrases[strings.ToUpper(clean)] {
		return true
	}
	low := strings.ToLower(clean)
	for _, sub := range genericSubstrings {
		if strings.Contains(low, sub) {
			return true
		}
	}
	return false
}

// isPlausibleName screens out empty strings, over-long candidates, symbol
// runs, and things that look like dates or slide numbers.
func isPlausibleName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 60 {
		return false
	}
	if len(strings.Fields(s)) > 6 {
		return false
	}
	if nonWordOnly.MatchString(s) {
		return false
	}
	if bareNumber.MatchString(s) {
		return false
	}
	return true
}

// countOccurrences counts word-boundary matches, case-insensitively
func countOccurrences(haystack, needle string) int {
	if haystack == "" || needle == "" {
		return 0
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(needle) + `\b`)
	if err != nil {
		return 0
	}
	return len(re.FindAllStringIndex(haystack, -1))
}

// isValidCandidate is the gate applied to every cascade candidate
func isValidCandidate(candidate, earlyText string, minOcc int) bool {
	candidate = strings.TrimSpace(candidate)
	if !isPlausibleName(candidate) {
		return false
	}
	if isGenericPhrase(candidate) {
		return false
	}
	if minOcc > 0 {
		return countOccurrences(earlyText, candidate) >= minOcc
	}
	return true
}
