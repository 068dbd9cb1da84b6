package analyzer

import (
	"regexp"
	"strings"
)

// pageArtifactLine matches lines that are nothing but a page number,
// optionally dash-decorated ("12", "- 12 -", "— 12 —").
var pageArtifactLine = regexp.MustCompile(`^[\s\-–—]*\d+[\s\-–—]*$`)

// Normalize prepares extracted text for the analyzers: line endings are
// unified, isolated page-number lines dropped, and runs of whitespace
// collapsed to single spaces. Empty input yields empty output; the
// analyzers treat that as absence of signal, not as an error.
// Normalize is idempotent.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if pageArtifactLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(strings.Fields(strings.Join(kept, "\n")), " ")
}
