package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/veridata/deckcheck/internal/model"
)

// ErrUnreadable indicates the source document cannot be opened or parsed at all.
// Per-page extraction failures are tolerated and never produce this error.
var ErrUnreadable = errors.New("unreadable document")

// sizeTolerance keeps cover words within 92% of the largest observed font size.
const sizeTolerance = 0.92

// Parser extracts text, tables and structure from pitch-deck PDFs
type Parser struct{}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a pitch deck PDF and extracts all content.
// Metadata extraction failures degrade to an "error" marker; page-level
// extraction failures degrade to an empty page.
func (p *Parser) Parse(path string) (*model.ParsedDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnreadable, filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	metadata := extractMetadata(reader)

	var pages []model.Page
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := extractPage(reader.Page(i), i)
		pages = append(pages, page)

		if i == 1 {
			if guess := largestTextGuess(reader.Page(i)); guess != "" {
				metadata["name_guess"] = guess
			}
		}
	}

	var texts []string
	for _, pg := range pages {
		texts = append(texts, pg.Text)
	}

	return &model.ParsedDocument{
		Filename:   filepath.Base(path),
		TotalPages: len(pages),
		Pages:      pages,
		Metadata:   metadata,
		FullText:   strings.Join(texts, "\n\n"),
	}, nil
}

// extractMetadata reads the PDF Info dictionary. A failure here must not
// abort page extraction, so panics degrade to an error marker.
func extractMetadata(reader *pdf.Reader) (meta map[string]string) {
	meta = make(map[string]string)

	defer func() {
		if r := recover(); r != nil {
			meta["error"] = fmt.Sprintf("metadata extraction failed: %v", r)
		}
	}()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}

	meta["title"] = strings.TrimSpace(info.Key("Title").Text())
	meta["author"] = strings.TrimSpace(info.Key("Author").Text())
	meta["creator"] = strings.TrimSpace(info.Key("Creator").Text())
	meta["creation_date"] = strings.TrimSpace(info.Key("CreationDate").RawString())
	return meta
}

// extractPage extracts one page's text, tables and image presence.
// Malformed content streams panic inside the pdf package; those degrade
// to an empty page rather than failing the document.
func extractPage(page pdf.Page, num int) (result model.Page) {
	result = model.Page{Number: num, Tables: [][]string{}}

	defer func() {
		if r := recover(); r != nil {
			result = model.Page{Number: num, Tables: [][]string{}}
		}
	}()

	if page.V.IsNull() {
		return result
	}

	rows := pageRows(page)

	var lines []string
	for _, row := range rows {
		lines = append(lines, row.text())
	}
	result.Text = CleanText(strings.Join(lines, "\n"))
	result.Tables = extractTables(rows)
	result.HasImages = hasImages(page)
	return result
}

// word is a horizontally contiguous run of text fragments
type word struct {
	text string
	x, y float64
	size float64
}

// row is a group of words sharing a baseline, ordered left to right
type row struct {
	y     float64
	words []word
}

func (r row) text() string {
	parts := make([]string, 0, len(r.words))
	for _, w := range r.words {
		parts = append(parts, w.text)
	}
	return strings.Join(parts, " ")
}

// rowTolerance groups fragments onto the same baseline
const rowTolerance = 2.0

// pageRows reconstructs line structure from positioned text fragments:
// sort by vertical position (top first), group into rows, then merge
// fragments into words by horizontal adjacency.
func pageRows(page pdf.Page) []row {
	content := page.Content()
	frags := make([]pdf.Text, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) != "" {
			frags = append(frags, t)
		}
	}
	if len(frags) == 0 {
		return nil
	}

	// PDF origin is bottom-left: larger Y means higher on the page.
	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	var rows []row
	for _, f := range frags {
		if len(rows) == 0 || rows[len(rows)-1].y-f.Y > rowTolerance {
			rows = append(rows, row{y: f.Y})
		}
		cur := &rows[len(rows)-1]
		cur.words = mergeFragment(cur.words, f)
	}
	return rows
}

// mergeFragment appends a fragment to the row's words, gluing it onto the
// previous word when the horizontal gap is smaller than a space would be.
func mergeFragment(words []word, f pdf.Text) []word {
	text := f.S
	if len(words) > 0 {
		prev := &words[len(words)-1]
		gap := f.X - (prev.x + advanceOf(*prev))
		if gap < spaceThreshold(f.FontSize) {
			prev.text += text
			if f.FontSize > prev.size {
				prev.size = f.FontSize
			}
			return words
		}
	}
	return append(words, word{text: text, x: f.X, y: f.Y, size: f.FontSize})
}

// advanceOf estimates the rendered width of a word
func advanceOf(w word) float64 {
	return float64(len(w.text)) * w.size * 0.5
}

func spaceThreshold(fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = 10
	}
	return fontSize * 0.3
}

// cellGapFactor: a horizontal gap wider than this many font sizes splits a
// row into table cells.
const cellGapFactor = 2.5

// extractTables collects rows whose words cluster into two or more cells
// separated by wide gaps. Single-cell rows are prose, not tables.
func extractTables(rows []row) [][]string {
	tables := [][]string{}
	for _, r := range rows {
		cells := splitCells(r)
		if len(cells) >= 2 {
			tables = append(tables, cells)
		}
	}
	return tables
}

func splitCells(r row) []string {
	var cells []string
	var cur []string
	var lastEnd float64

	for i, w := range r.words {
		if i > 0 && w.x-lastEnd > cellGapFactor*maxf(w.size, 10) {
			cells = append(cells, strings.Join(cur, " "))
			cur = nil
		}
		cur = append(cur, w.text)
		lastEnd = w.x + advanceOf(w)
	}
	if len(cur) > 0 {
		cells = append(cells, strings.Join(cur, " "))
	}
	return cells
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// largestTextGuess captures the cover-slide title: the words rendered at (or
// near) the largest font size on page 1, in visual order. Validated later by
// the resolver; this heuristic alone is too eager.
func largestTextGuess(page pdf.Page) (guess string) {
	defer func() {
		if r := recover(); r != nil {
			guess = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}

	rows := pageRows(page)
	var maxSize float64
	for _, r := range rows {
		for _, w := range r.words {
			if w.size > maxSize {
				maxSize = w.size
			}
		}
	}
	if maxSize <= 0 {
		return ""
	}

	var big []word
	for _, r := range rows {
		for _, w := range r.words {
			if w.size >= maxSize*sizeTolerance {
				big = append(big, w)
			}
		}
	}

	// Vertical-then-horizontal reading order
	sort.SliceStable(big, func(i, j int) bool {
		if big[i].y != big[j].y {
			return big[i].y > big[j].y
		}
		return big[i].x < big[j].x
	})

	parts := make([]string, 0, len(big))
	for _, w := range big {
		parts = append(parts, w.text)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// hasImages reports whether the page's XObject resources contain an image
func hasImages(page pdf.Page) (found bool) {
	defer func() {
		if r := recover(); r != nil {
			found = false
		}
	}()

	xobj := page.V.Key("Resources").Key("XObject")
	if xobj.IsNull() {
		return false
	}
	for _, key := range xobj.Keys() {
		if xobj.Key(key).Key("Subtype").Name() == "Image" {
			return true
		}
	}
	return false
}
