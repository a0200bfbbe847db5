package ingest

import (
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

// sectionKeywords maps canonical pitch-deck sections to the phrases that
// signal their presence.
var sectionKeywords = map[string][]string{
	"problem":        {"problem", "challenge", "pain point"},
	"solution":       {"solution", "our product", "how we solve"},
	"market":         {"market", "tam", "sam", "som", "market size", "opportunity"},
	"business_model": {"business model", "revenue model", "how we make money", "monetization"},
	"traction":       {"traction", "metrics", "growth", "customers", "users"},
	"competition":    {"competition", "competitive", "landscape", "competitors"},
	"team":           {"team", "founders", "leadership", "about us"},
	"financials":     {"financials", "projections", "revenue", "forecast"},
	"ask":            {"ask", "funding", "investment", "raise", "use of funds"},
}

// Sections identifies which common pitch-deck sections are present
func Sections(doc *model.ParsedDocument) map[string]bool {
	lower := strings.ToLower(doc.FullText)

	sections := make(map[string]bool, len(sectionKeywords))
	for name, keywords := range sectionKeywords {
		present := false
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				present = true
				break
			}
		}
		sections[name] = present
	}
	return sections
}
