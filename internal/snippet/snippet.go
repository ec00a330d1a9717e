package snippet

import (
	"regexp"
	"strings"
)

// NoContent is returned when there is nothing to extract from.
const NoContent = "No content available"

// smallFileLines is the size under which a file with no matches is returned
// whole instead of truncated.
const smallFileLines = 50

// headLines is how much of a large file is returned when nothing matched.
const headLines = 20

var languageFilter = regexp.MustCompile(`language:\w+`)

// stopTerms are generic language keywords that are too common to be useful
// anchors when locating a match line.
var stopTerms = map[string]bool{
	"function": true,
	"class":    true,
	"def":      true,
	"const":    true,
	"var":      true,
	"let":      true,
}

// Terms derives the match terms from a query: language filters stripped,
// lower-cased, split on whitespace, short tokens and stop terms dropped.
func Terms(query string) []string {
	cleaned := languageFilter.ReplaceAllString(strings.ToLower(query), "")
	var terms []string
	for _, t := range strings.Fields(cleaned) {
		if len(t) <= 2 || stopTerms[t] {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

// Extract returns the most relevant contiguous window of lines from content
// for the given query, with contextLines lines of context on each side.
//
// The first line containing any match term wins. When no term matches, the
// whole cleaned query is tried as a literal substring; failing that, small
// files are returned whole and larger files are truncated to their head.
// Pure function: no I/O, same inputs always yield the same output.
func Extract(content, query string, contextLines int) string {
	if content == "" {
		return NoContent
	}

	lines := strings.Split(content, "\n")
	terms := Terms(query)

	var matches []int
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, t := range terms {
			if strings.Contains(lower, t) {
				matches = append(matches, i)
				break
			}
		}
	}

	// No term-level matches: look for the whole query as a literal.
	if len(matches) == 0 {
		cleaned := strings.TrimSpace(languageFilter.ReplaceAllString(strings.ToLower(query), ""))
		for i, line := range lines {
			if strings.Contains(strings.ToLower(line), cleaned) {
				matches = append(matches, i)
			}
		}
	}

	if len(matches) == 0 {
		if len(lines) <= smallFileLines {
			return content
		}
		n := headLines
		if len(lines) < n {
			n = len(lines)
		}
		return strings.Join(lines[:n], "\n")
	}

	// First occurrence wins.
	best := matches[0]
	start := best - contextLines
	if start < 0 {
		start = 0
	}
	end := best + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}
