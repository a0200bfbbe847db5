package ingest

import (
	"regexp"
	"strings"
)

var (
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
	intraLineSpaces = regexp.MustCompile(`[ \t\f\v]+`)
)

// CleanText normalizes extracted text while preserving line breaks:
// unify line endings, strip non-printable control characters, collapse
// intra-line whitespace, drop empty lines. This is the one canonical
// normalization pass; every downstream heuristic sees its output.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlChars.ReplaceAllString(text, "")

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(intraLineSpaces.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
