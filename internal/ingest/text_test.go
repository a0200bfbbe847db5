package ingest

import (
	"testing"

	"github.com/veridata/deckcheck/internal/model"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "line one\r\nline two", "line one\nline two"},
		{"bare cr", "line one\rline two", "line one\nline two"},
		{"control chars", "Ac\x00me\x07 Corp", "Acme Corp"},
		{"collapse spaces", "a   b\t\tc", "a b c"},
		{"drop empty lines", "a\n\n\n  \nb", "a\nb"},
		{"trim lines", "  padded  \n", "padded"},
		{"preserve newlines", "title\nsubtitle", "title\nsubtitle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTextDeterministic(t *testing.T) {
	in := "Acme\r\n\tSeries  A\x0b deck\n\n"
	first := CleanText(in)
	for i := 0; i < 5; i++ {
		if got := CleanText(in); got != first {
			t.Fatalf("run %d differed: %q vs %q", i, got, first)
		}
	}
	// Already-clean text is a fixed point
	if got := CleanText(first); got != first {
		t.Errorf("CleanText not idempotent: %q -> %q", first, got)
	}
}

func TestSections(t *testing.T) {
	doc := &model.ParsedDocument{
		FullText: "The Problem\nEveryone struggles with X\nMarket size: $4B TAM\nOur Team\nex-Google founders",
	}

	sections := Sections(doc)

	for _, want := range []string{"problem", "market", "team"} {
		if !sections[want] {
			t.Errorf("section %q not detected", want)
		}
	}
	if sections["competition"] {
		t.Error("competition detected without any competition keywords")
	}
}
