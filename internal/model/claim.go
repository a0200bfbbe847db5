package model

// Claim represents a factual assertion extracted from the deck
type Claim struct {
	Text     string        `json:"text"`               // The claim text itself
	Category ClaimCategory `json:"category"`           // market_size, traction, financials, ...
	Page     int           `json:"page,omitempty"`     // Page hint (1-based, 0 if unknown)
	Section  string        `json:"section,omitempty"`  // Deck section the claim came from
}

// ClaimCategory categorizes the nature of the claim
type ClaimCategory string

const (
	CategoryMarketSize  ClaimCategory = "market_size"  // TAM/SAM/SOM figures
	CategoryTraction    ClaimCategory = "traction"     // Users, growth, customers
	CategoryFinancials  ClaimCategory = "financials"   // Revenue, margins, projections
	CategoryTeam        ClaimCategory = "team"         // Founder/team background
	CategoryProduct     ClaimCategory = "product"      // Product capabilities
	CategoryCompetition ClaimCategory = "competition"  // Competitive positioning
	CategoryPartnership ClaimCategory = "partnership"  // Named partners/customers
	CategoryOther       ClaimCategory = "other"
)

// NormalizeCategory maps free-form LLM category strings onto the closed set.
func NormalizeCategory(s string) ClaimCategory {
	switch ClaimCategory(s) {
	case CategoryMarketSize, CategoryTraction, CategoryFinancials, CategoryTeam,
		CategoryProduct, CategoryCompetition, CategoryPartnership:
		return ClaimCategory(s)
	}
	return CategoryOther
}

// Question is a generated diligence question with the claims that motivated it
type Question struct {
	Text   string   `json:"text"`
	Claims []string `json:"claims,omitempty"` // Texts of the motivating claims
}
