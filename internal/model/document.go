package model

import "strings"

// Page holds the content extracted from a single deck page.
// Immutable once produced by the ingestor.
type Page struct {
	Number    int        `json:"number"`     // 1-based page number
	Text      string     `json:"text"`       // Cleaned, line-oriented text
	Tables    [][]string `json:"tables"`     // Extracted table rows (cells per row)
	HasImages bool       `json:"has_images"` // Whether the page embeds images
}

// ParsedDocument is the complete parsed pitch deck.
// Owned by the ingestion step; read-only thereafter.
type ParsedDocument struct {
	Filename   string            `json:"filename"`
	TotalPages int               `json:"total_pages"`
	Pages      []Page            `json:"pages"`
	Metadata   map[string]string `json:"metadata"` // title, author, creator, creation_date, name_guess
	FullText   string            `json:"full_text"`
}

// PageText returns the text of a specific page, or "" if out of range.
func (d *ParsedDocument) PageText(num int) string {
	for _, p := range d.Pages {
		if p.Number == num {
			return p.Text
		}
	}
	return ""
}

// EarlyText joins the text of the first maxPages pages.
// The company name typically repeats in this region.
func (d *ParsedDocument) EarlyText(maxPages int) string {
	var parts []string
	for _, p := range d.Pages {
		if p.Number > maxPages {
			break
		}
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}
