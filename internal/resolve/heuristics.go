package resolve

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

// fromLargestText returns the ingestor's cover-page largest-text guess
func (r *Resolver) fromLargestText(_ context.Context, doc *model.ParsedDocument, _ Hints) string {
	return doc.Metadata["name_guess"]
}

var dateLine = regexp.MustCompile(`^(\d{4}|\w+\s+\d{4}|\w+\s+\d{1,2},\s*\d{4})$`)

// fromCoverLines scans the first 15 non-empty lines of page 1, drops lines
// that cannot be a name (too long, date-like, too many words, generic), and
// prefers the shortest survivor by word count then character count.
func (r *Resolver) fromCoverLines(_ context.Context, doc *model.ParsedDocument, _ Hints) string {
	if len(doc.Pages) == 0 {
		return ""
	}

	lines := strings.Split(doc.Pages[0].Text, "\n")
	if len(lines) > 15 {
		lines = lines[:15]
	}

	var candidates []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 80 {
			continue
		}
		if isGenericPhrase(line) {
			continue
		}
		if dateLine.MatchString(line) {
			continue
		}
		if len(strings.Fields(line)) > 8 {
			continue
		}
		candidates = append(candidates, line)
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		wi, wj := len(strings.Fields(candidates[i])), len(strings.Fields(candidates[j]))
		if wi != wj {
			return wi < wj
		}
		return len(candidates[i]) < len(candidates[j])
	})
	return candidates[0]
}

// capitalizedToken matches brand-like tokens: a leading uppercase letter
// followed by at least two alphanumeric/&.- characters.
var capitalizedToken = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9&.\-]{2,}\b`)

// Filler tokens that repeat across decks but are never the company
var fillerTokens = map[string]bool{
	"The": true, "This": true, "Our": true, "They": true, "People": true,
	"Business": true, "Investor": true, "Deck": true, "Presentation": true,
	"Overview": true, "Company": true, "Confidential": true, "Private": true,
	"January": true, "February": true, "March": true, "April": true,
	"May": true, "June": true, "July": true, "August": true,
	"September": true, "October": true, "November": true, "December": true,
	"FOR": true, "AND": true, "OUR": true, "GET": true, "HOW": true,
}

// fromFrequency scores capitalized tokens across the early pages:
// frequency, linguistic company-name contexts, filename/title hints, and a
// mild penalty for plural feature words. Highest-scoring survivor wins.
func (r *Resolver) fromFrequency(_ context.Context, _ *model.ParsedDocument, hints Hints) string {
	if hints.EarlyText == "" {
		return ""
	}

	counts := map[string]int{}
	for _, tok := range capitalizedToken.FindAllString(hints.EarlyText, -1) {
		counts[tok]++
	}
	if len(counts) == 0 {
		return ""
	}

	type entry struct {
		name string
		freq int
	}
	entries := make([]entry, 0, len(counts))
	for name, freq := range counts {
		entries = append(entries, entry{name, freq})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].freq != entries[j].freq {
			return entries[i].freq > entries[j].freq
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > 30 {
		entries = entries[:30]
	}

	w := r.cfg.Weights
	filenameLow := strings.ToLower(hints.Filename)
	titleLow := strings.ToLower(hints.Title)

	bestName := ""
	bestScore := 0
	for _, e := range entries {
		if fillerTokens[e.name] {
			continue
		}
		if !isPlausibleName(e.name) || isGenericPhrase(e.name) {
			continue
		}

		score := e.freq * w.Frequency
		score += patternBonus(e.name, hints.EarlyText, w)
		low := strings.ToLower(e.name)
		if strings.Contains(filenameLow, low) {
			score += w.FilenameHint
		}
		if titleLow != "" && strings.Contains(titleLow, low) {
			score += w.TitleHint
		}
		if strings.HasSuffix(e.name, "s") {
			score -= w.PluralPenalty
		}

		if bestName == "" || score > bestScore {
			bestName = e.name
			bestScore = score
		}
	}
	return bestName
}

// patternBonus rewards syntactic contexts that strongly indicate a company
// name: "X was created", "At X,", "X is".
func patternBonus(name, text string, w model.ResolverWeights) int {
	n := regexp.QuoteMeta(name)
	bonus := 0
	if regexp.MustCompile(`(?i)\b` + n + `\b\s+was\s+created\b`).MatchString(text) {
		bonus += w.WasCreated
	}
	if regexp.MustCompile(`(?i)\bAt\s+` + n + `\b`).MatchString(text) {
		bonus += w.AtPrefix
	}
	if regexp.MustCompile(`(?i)\b` + n + `\b\s+is\b`).MatchString(text) {
		bonus += w.IsStatement
	}
	return bonus
}

// fromTitle falls back to document title metadata, accepted without an
// occurrence requirement. Often noisy ("Microsoft PowerPoint - deck_final").
func (r *Resolver) fromTitle(_ context.Context, _ *model.ParsedDocument, hints Hints) string {
	return hints.Title
}

// Lead-in phrases models prepend despite being told not to
var llmLeadIns = []string{
	"the company name is",
	"company:",
	"name:",
	"the company is",
}

// fromLLM asks the configured model for the company name given the start of
// page 1. Errors degrade to an empty candidate; the cascade sentinel handles
// total failure.
func (r *Resolver) fromLLM(ctx context.Context, doc *model.ParsedDocument, _ Hints) string {
	if r.llmFn == nil || len(doc.Pages) == 0 {
		return ""
	}

	firstPage := doc.Pages[0].Text
	if len(firstPage) > 2000 {
		firstPage = firstPage[:2000]
	}

	prompt := fmt.Sprintf(`Extract the company name from this pitch deck. Return ONLY the company name, nothing else.

PITCH DECK TEXT (first page):
%s

What is the name of the company this pitch deck is for? Return only the company name (1-4 words), no explanations.`, firstPage)

	resp, err := r.llmFn(ctx, prompt)
	if err != nil {
		return ""
	}

	name := strings.TrimSpace(resp)
	name = strings.NewReplacer(`"`, "", "'", "").Replace(name)
	name = strings.TrimSpace(name)

	low := strings.ToLower(name)
	for _, prefix := range llmLeadIns {
		if strings.HasPrefix(low, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	return name
}
