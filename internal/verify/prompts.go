package verify

import (
	"fmt"
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

const claimExtractionSystem = `You are a due-diligence analyst reviewing a startup pitch deck. You extract verifiable factual claims: statements about market size, traction, revenue, team background, partnerships, product capabilities or competitive position that could in principle be checked against public sources. You ignore vision statements, opinions and forward-looking projections.`

func claimExtractionPrompt(companyName, deckText string, maxClaims int, profile model.InvestorProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Extract up to %d verifiable factual claims from this pitch deck by %s.\n\n", maxClaims, companyName)
	if len(profile.FocusAreas) > 0 {
		fmt.Fprintf(&sb, "The reviewing investor focuses on %s at %s stage; prioritize claims relevant to that lens.\n\n",
			strings.Join(profile.FocusAreas, ", "), profile.Stage)
	}
	sb.WriteString(`Return a JSON object of this exact shape:
{"claims": [{"text": "...", "category": "market_size|traction|financials|team|product|competition|partnership|other", "page": 1, "section": "..."}]}

Rules:
- "text" quotes or tightly paraphrases one checkable assertion.
- "page" is the 1-based page the claim appears on.
- "section" names the deck section if identifiable, else "".
- Skip aspirations, projections and unquantified marketing language.

Deck text with page markers:

`)
	sb.WriteString(deckText)
	return sb.String()
}

// claimExtractionStrictSuffix is appended on the retry after a malformed
// response.
const claimExtractionStrictSuffix = "\n\nYour previous response was not valid JSON. Respond with the JSON object only. No markdown, no commentary, no code fences."

const questionGenerationSystem = `You are a due-diligence analyst preparing for a founder meeting. You write pointed, specific questions that probe weakly supported or contradicted claims. Each question must reference concrete figures or statements from the deck.`

func questionGenerationPrompt(companyName string, weak []model.VerifiedClaim, maxQuestions int, profile model.InvestorProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", companyName)
	if profile.Name != "" {
		fmt.Fprintf(&sb, "Reviewer: %s (%s stage", profile.Name, profile.Stage)
		if len(profile.FocusAreas) > 0 {
			fmt.Fprintf(&sb, ", focus: %s", strings.Join(profile.FocusAreas, ", "))
		}
		sb.WriteString(")\n")
	}
	sb.WriteString("\nThese claims could not be verified against public sources:\n\n")
	for _, c := range weak {
		fmt.Fprintf(&sb, "- [%s, %s] %s (%s)\n", c.Claim.Category, c.Verdict, c.Claim.Text, c.Rationale)
	}
	fmt.Fprintf(&sb, `
Write up to %d diligence questions for the founders targeting these claims.
Return a JSON object of this exact shape:
{"questions": [{"text": "...", "claims": ["claim text this question probes", "..."]}]}
`, maxQuestions)
	return sb.String()
}

const questionGenerationStrictSuffix = "\n\nYour previous response was not valid JSON. Respond with the JSON object only. No markdown, no commentary, no code fences."
