package model

import "time"

// Evidence represents one web-search result used to support or contradict a claim
type Evidence struct {
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Snippet       string     `json:"snippet"`
	Source        string     `json:"source"`                   // www.-stripped host
	Retrieved     time.Time  `json:"retrieved"`                // When the result was fetched
	Query         string     `json:"query"`                    // Search query that produced it
	PublishedDate string     `json:"published_date,omitempty"` // News results only
}

// AuthorityTier classifies how authoritative an evidence source is
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Regulatory filings, official registries, company sites
	TierSecondary AuthorityTier = 2 // Major publishers, market research, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, forums, aggregators
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// ValidationResult contains the result of checking an evidence link
type ValidationResult struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	Authority    AuthorityTier `json:"authority"`
	Skipped      bool          `json:"skipped,omitempty"` // robots.txt disallowed
	Error        string        `json:"error,omitempty"`
}
