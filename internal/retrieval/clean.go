package retrieval

import "strings"

// CleanText strips known boilerplate substrings (repeated document
// headers and footers) from chunk text and collapses runs of blank lines,
// so non-informative repeated text never reaches the generation prompt.
func CleanText(text string, boilerplate []string) string {
	for _, pattern := range boilerplate {
		if pattern == "" {
			continue
		}
		text = strings.ReplaceAll(text, pattern, "")
	}
	return collapseBlankLines(text)
}

// collapseBlankLines trims each line and drops the empty ones, so
// paragraphs are separated by a single newline and no stray indentation
// survives boilerplate removal.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
