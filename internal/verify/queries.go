package verify

import (
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

const maxQueryKeywords = 6

// buildQueries derives search queries for a claim. The first query pairs the
// company name with the claim's distinguishing keywords; category-specific
// refinements follow.
func buildQueries(companyName string, claim model.Claim) []string {
	keywords := queryKeywords(claim.Text)
	base := strings.TrimSpace(companyName + " " + strings.Join(keywords, " "))

	queries := []string{base}
	switch claim.Category {
	case model.CategoryFinancials:
		queries = append(queries, companyName+" revenue funding")
	case model.CategoryTraction:
		queries = append(queries, companyName+" users customers growth")
	case model.CategoryMarketSize:
		if len(keywords) > 0 {
			queries = append(queries, strings.Join(keywords, " ")+" market size")
		}
	case model.CategoryTeam:
		queries = append(queries, companyName+" founders")
	case model.CategoryPartnership:
		queries = append(queries, companyName+" partnership announcement")
	case model.CategoryCompetition:
		queries = append(queries, companyName+" competitors")
	}

	return dedupeQueries(queries)
}

// newsWorthy reports whether a claim category benefits from a recency-biased
// news search on top of the general one.
func newsWorthy(category model.ClaimCategory) bool {
	switch category {
	case model.CategoryTraction, model.CategoryFinancials, model.CategoryPartnership:
		return true
	}
	return false
}

var queryStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "to": true, "for": true,
	"is": true, "are": true, "was": true, "were": true, "has": true,
	"have": true, "with": true, "by": true, "our": true, "we": true,
	"its": true, "their": true, "that": true, "this": true, "at": true,
	"over": true, "more": true, "than": true, "from": true, "will": true,
}

func queryKeywords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	keywords := make([]string, 0, maxQueryKeywords)
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if f == "" || queryStopwords[f] {
			continue
		}
		if len(f) < 3 && !strings.ContainsAny(f, "0123456789%$") {
			continue
		}
		keywords = append(keywords, f)
		if len(keywords) == maxQueryKeywords {
			break
		}
	}
	return keywords
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
