package validate

import (
	"net/url"
	"strings"

	"github.com/veridata/deckcheck/internal/model"
)

// AuthorityClassifier maps evidence hosts onto authority tiers. Regulatory
// and registry sources outrank press coverage, which outranks blogs and
// aggregators.
type AuthorityClassifier struct {
	primaryMap   map[string]bool
	secondaryMap map[string]bool
}

// Primary sources: filings, registries, official statistics.
var primaryDomains = []string{
	"sec.gov",
	"uspto.gov",
	"companieshouse.gov.uk",
	"europa.eu",
	"imf.org",
	"worldbank.org",
	"oecd.org",
	"census.gov",
	"bls.gov",
}

// Secondary sources: major publishers, market research, funding databases.
var secondaryDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"ft.com",
	"wsj.com",
	"nytimes.com",
	"economist.com",
	"techcrunch.com",
	"forbes.com",
	"crunchbase.com",
	"pitchbook.com",
	"cbinsights.com",
	"statista.com",
	"gartner.com",
	"forrester.com",
	"mckinsey.com",
	"theinformation.com",
	"axios.com",
	"businesswire.com",
	"prnewswire.com",
}

// NewAuthorityClassifier creates a classifier with the built-in tier lists,
// optionally extended by host-to-tier overrides.
func NewAuthorityClassifier(overrides map[string]model.AuthorityTier) *AuthorityClassifier {
	c := &AuthorityClassifier{
		primaryMap:   make(map[string]bool),
		secondaryMap: make(map[string]bool),
	}
	for _, d := range primaryDomains {
		c.primaryMap[d] = true
	}
	for _, d := range secondaryDomains {
		c.secondaryMap[d] = true
	}
	for host, tier := range overrides {
		switch tier {
		case model.TierPrimary:
			c.primaryMap[host] = true
		case model.TierSecondary:
			c.secondaryMap[host] = true
		}
	}
	return c
}

// Classify classifies a URL into an authority tier
func (c *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.TierTertiary
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if c.matchesDomain(c.primaryMap, host) {
		return model.TierPrimary
	}
	if c.matchesDomain(c.secondaryMap, host) {
		return model.TierSecondary
	}

	// Government and academic hosts are primary even when not listed.
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

func (c *AuthorityClassifier) matchesDomain(domains map[string]bool, host string) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
