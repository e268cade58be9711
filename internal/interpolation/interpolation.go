package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mapping pairs a control code with the placeholder that stands in for it.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

type codeMatch struct {
	start, end int
}

// patterns match RPG Maker message control codes.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\\[A-Za-z]+\[[^\]\r\n]*\]`), // \V[1], \N[2], \C[3], \FS[24]
	regexp.MustCompile(`\\[A-Za-z]+<[^>\r\n]*>`),    // \n<Name> plugin codes
	regexp.MustCompile(`\\[A-Za-z]+`),               // \G, \SE
	regexp.MustCompile(`\\[{}$.|!<>^\\]`),           // \{ \} \$ \. \| \! \< \> \^ \\
	regexp.MustCompile(`%[0-9]+`),                   // %1 message parameters
}

// Protect replaces every control code in text with a {{var_N}} placeholder.
// The returned mappings restore the originals after translation.
func Protect(text string) (string, []Mapping) {
	var matches []codeMatch
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			matches = append(matches, codeMatch{start: loc[0], end: loc[1]})
		}
	}
	if len(matches) == 0 {
		return text, nil
	}

	// Longest first at the same position so \V[1] wins over \V.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	var (
		sb       strings.Builder
		mappings []Mapping
		last     int
	)
	for _, m := range matches {
		if m.start < last {
			continue
		}
		index := len(mappings) + 1
		placeholder := fmt.Sprintf("{{var_%d}}", index)
		mappings = append(mappings, Mapping{
			Original:    text[m.start:m.end],
			Placeholder: placeholder,
			Index:       index,
		})
		sb.WriteString(text[last:m.start])
		sb.WriteString(placeholder)
		last = m.end
	}
	sb.WriteString(text[last:])

	return sb.String(), mappings
}

// Restore puts the original control codes back in place of their
// placeholders.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		result = strings.Replace(result, m.Placeholder, m.Original, 1)
	}
	return result
}

// Missing returns the control codes whose placeholders were dropped from
// translated.
func Missing(translated string, mappings []Mapping) []string {
	var missing []string
	for _, m := range mappings {
		if !strings.Contains(translated, m.Placeholder) {
			missing = append(missing, m.Original)
		}
	}
	return missing
}

// Strip removes every control code from text and collapses the whitespace
// left behind.
func Strip(text string) string {
	protected, mappings := Protect(text)
	for _, m := range mappings {
		protected = strings.Replace(protected, m.Placeholder, "", 1)
	}
	return strings.Join(strings.Fields(protected), " ")
}
