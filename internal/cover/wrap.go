package cover

import (
	"regexp"
	"strings"
)

// Wrap packs the words of text into lines using the greedy algorithm.
//
// A word moves to a new line when the current line plus that word and a trailing
// space would measure wider than maxWidth. Words are never split, so a single word
// wider than maxWidth sits alone on its line. Returned lines are trimmed.
func Wrap(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := ""
	for n, word := range words {
		test := line + word + " "
		if measure(test) > maxWidth && n > 0 {
			lines = append(lines, strings.TrimSpace(line))
			line = word + " "
		} else {
			line = test
		}
	}
	return append(lines, strings.TrimSpace(line))
}

var nonAlnum = regexp.MustCompile(`(?i)[^a-z0-9]`)

// Filename derives the export file name from a title: every character outside
// [a-zA-Z0-9] becomes "-", the result is lower-cased and prefixed with "EMusicVibe-".
func Filename(title string) string {
	slug := strings.ToLower(nonAlnum.ReplaceAllString(strings.TrimSpace(title), "-"))
	if slug == "" {
		slug = "untitled"
	}
	return FilenamePrefix + slug + ".jpg"
}
