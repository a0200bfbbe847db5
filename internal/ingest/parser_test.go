package ingest

import (
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestMergeFragmentGluesAdjacentFragments(t *testing.T) {
	// "Acme" rendered as two touching fragments at 12pt
	words := mergeFragment(nil, pdf.Text{S: "Ac", X: 100, Y: 700, FontSize: 12})
	// Advance of "Ac" at 12pt is 2*12*0.5 = 12, so 112 is flush against it
	words = mergeFragment(words, pdf.Text{S: "me", X: 112.5, Y: 700, FontSize: 12})

	if len(words) != 1 {
		t.Fatalf("got %d words, want 1 glued word", len(words))
	}
	if words[0].text != "Acme" {
		t.Errorf("glued text = %q, want Acme", words[0].text)
	}
}

func TestMergeFragmentKeepsSeparatedWords(t *testing.T) {
	words := mergeFragment(nil, pdf.Text{S: "Acme", X: 100, Y: 700, FontSize: 12})
	// A gap of 10pt is well past the space threshold at 12pt
	words = mergeFragment(words, pdf.Text{S: "Corp", X: 134, Y: 700, FontSize: 12})

	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 separate words", len(words))
	}
	if words[0].text != "Acme" || words[1].text != "Corp" {
		t.Errorf("words = %q, %q", words[0].text, words[1].text)
	}
}

func TestSplitCellsDetectsWideGaps(t *testing.T) {
	// Two columns: label at x=50, value far right at x=300
	r := row{y: 500, words: []word{
		{text: "Revenue", x: 50, size: 10},
		{text: "$10M", x: 300, size: 10},
	}}

	cells := splitCells(r)
	want := []string{"Revenue", "$10M"}
	if !reflect.DeepEqual(cells, want) {
		t.Errorf("splitCells = %v, want %v", cells, want)
	}
}

func TestSplitCellsKeepsProseTogether(t *testing.T) {
	r := row{y: 500, words: []word{
		{text: "We", x: 50, size: 10},
		{text: "grew", x: 65, size: 10},
		{text: "fast", x: 92, size: 10},
	}}

	cells := splitCells(r)
	if len(cells) != 1 {
		t.Fatalf("got %d cells, want 1: %v", len(cells), cells)
	}
	if cells[0] != "We grew fast" {
		t.Errorf("cell = %q", cells[0])
	}
}

func TestExtractTablesIgnoresProseRows(t *testing.T) {
	rows := []row{
		{y: 600, words: []word{
			{text: "Metric", x: 50, size: 10},
			{text: "2023", x: 250, size: 10},
			{text: "2024", x: 400, size: 10},
		}},
		{y: 580, words: []word{
			{text: "ARR", x: 50, size: 10},
			{text: "$2M", x: 250, size: 10},
			{text: "$10M", x: 400, size: 10},
		}},
		{y: 540, words: []word{
			{text: "Our", x: 50, size: 10},
			{text: "trajectory", x: 72, size: 10},
		}},
	}

	tables := extractTables(rows)
	if len(tables) != 2 {
		t.Fatalf("got %d table rows, want 2", len(tables))
	}
	if !reflect.DeepEqual(tables[0], []string{"Metric", "2023", "2024"}) {
		t.Errorf("header row = %v", tables[0])
	}
	if !reflect.DeepEqual(tables[1], []string{"ARR", "$2M", "$10M"}) {
		t.Errorf("data row = %v", tables[1])
	}
}

func TestRowText(t *testing.T) {
	r := row{words: []word{{text: "Series"}, {text: "A"}}}
	if got := r.text(); got != "Series A" {
		t.Errorf("text() = %q", got)
	}
}
