package score

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

// Scorer turns gathered evidence into per-claim verdicts and an overall
// credibility score.
type Scorer struct {
	categoryWeights map[model.ClaimCategory]float64
}

// NewScorer creates a scorer. Category weights are optional; absent
// categories weigh 1.0.
func NewScorer(categoryWeights map[model.ClaimCategory]float64) *Scorer {
	return &Scorer{categoryWeights: categoryWeights}
}

// Evidence agreement thresholds. An evidence item must share at least this
// fraction of the claim's keywords to count as on-topic.
const overlapThreshold = 0.3

var contradictionMarkers = []string{
	"not true",
	"false",
	"denied",
	"denies",
	"disputed",
	"refuted",
	"contrary to",
	"no evidence",
	"misleading",
	"overstated",
	"exaggerated",
	"debunk",
}

// Assess classifies each evidence item as supporting, contradicting or
// off-topic, then maps the tallies to a verdict and confidence.
func (s *Scorer) Assess(claim model.Claim, evidence []model.Evidence, validation []model.ValidationResult) model.VerifiedClaim {
	keywords := claimKeywords(claim.Text)

	supporting := 0
	contradicting := 0
	for _, ev := range evidence {
		text := strings.ToLower(ev.Title + " " + ev.Snippet)
		if keywordOverlap(keywords, text) < overlapThreshold {
			continue
		}
		if containsContradiction(text) {
			contradicting++
		} else {
			supporting++
		}
	}

	verdict := s.verdict(supporting, contradicting)
	confidence := s.confidence(verdict, supporting, contradicting, validation)

	return model.VerifiedClaim{
		Claim:      claim,
		Evidence:   evidence,
		Verdict:    verdict,
		Confidence: confidence,
		Rationale:  rationale(verdict, supporting, contradicting, len(evidence)),
	}
}

func (s *Scorer) verdict(supporting, contradicting int) model.Verdict {
	switch {
	case supporting > 0 && contradicting == 0:
		return model.VerdictVerified
	case supporting > 0 && contradicting > 0:
		return model.VerdictPartiallyVerified
	case contradicting > 0:
		return model.VerdictContradicted
	default:
		return model.VerdictUnverified
	}
}

// confidence grows with supporting evidence, shrinks with contradicting
// evidence, and is clamped to [0, 1]. Accessible primary sources nudge it
// up.
func (s *Scorer) confidence(verdict model.Verdict, supporting, contradicting int, validation []model.ValidationResult) float64 {
	var base float64
	switch verdict {
	case model.VerdictVerified:
		base = 0.6
	case model.VerdictPartiallyVerified:
		base = 0.45
	case model.VerdictContradicted:
		base = 0.25
	default:
		base = 0.2
	}

	bonus := 0.08 * float64(supporting)
	if bonus > 0.32 {
		bonus = 0.32
	}
	penalty := 0.1 * float64(contradicting)
	if penalty > 0.2 {
		penalty = 0.2
	}

	authority := 0.0
	for _, v := range validation {
		if v.IsAccessible && v.Authority == model.TierPrimary {
			authority = 0.05
			break
		}
	}

	c := base + bonus - penalty + authority
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// Overall aggregates per-claim confidences into a 0-100 score. A deck with
// no extractable claims scores zero without being an error.
func (s *Scorer) Overall(claims []model.VerifiedClaim) float64 {
	if len(claims) == 0 {
		return 0
	}

	var sum, weightSum float64
	for _, c := range claims {
		w := 1.0
		if s.categoryWeights != nil {
			if cw, ok := s.categoryWeights[c.Claim.Category]; ok {
				w = cw
			}
		}
		sum += c.Confidence * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return (sum / weightSum) * 100
}

func rationale(verdict model.Verdict, supporting, contradicting, total int) string {
	switch verdict {
	case model.VerdictVerified:
		return fmt.Sprintf("%d of %d sources support the claim", supporting, total)
	case model.VerdictPartiallyVerified:
		if contradicting > 0 {
			return fmt.Sprintf("mixed evidence: %d supporting, %d contradicting", supporting, contradicting)
		}
		return fmt.Sprintf("limited support: %d of %d sources", supporting, total)
	case model.VerdictContradicted:
		return fmt.Sprintf("%d sources contradict the claim", contradicting)
	default:
		if total == 0 {
			return "no evidence found"
		}
		return fmt.Sprintf("none of %d sources address the claim", total)
	}
}

var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9%$.]*`)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "to": true, "for": true,
	"is": true, "are": true, "was": true, "were": true, "has": true,
	"have": true, "with": true, "by": true, "our": true, "we": true,
	"its": true, "their": true, "that": true, "this": true, "at": true,
	"as": true, "be": true, "from": true, "it": true, "will": true,
}

func claimKeywords(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if len(tok) < 3 && !strings.ContainsAny(tok, "0123456789%$") {
			continue
		}
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}

func keywordOverlap(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

func containsContradiction(text string) bool {
	for _, marker := range contradictionMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
