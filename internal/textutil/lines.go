package textutil

import "strings"

// NewLine is the in-cell line break token. A row occupies exactly one
// physical line, so real newlines inside a column are stored as NewLine.
const NewLine = `\#`

// SplitLines splits text into lines. "\r\n", a lone "\r" and a lone "\n" each
// count as one separator. The trailing segment is always returned, so the
// result is never empty.
func SplitLines(text string) []string {
	lines := make([]string, 0, CountLines(text))
	start := 0

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}

	return append(lines, text[start:])
}

// CountLines returns len(SplitLines(text)) without allocating.
func CountLines(text string) int {
	n := 1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			n++
		case '\r':
			n++
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		}
	}
	return n
}

// JoinLines joins lines with "\n".
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// ToEscaped replaces real newlines with the NewLine token.
func ToEscaped(text string) string {
	return strings.ReplaceAll(text, "\n", NewLine)
}

// FromEscaped replaces NewLine tokens with real newlines.
func FromEscaped(text string) string {
	return strings.ReplaceAll(text, NewLine, "\n")
}

// EqualEscaped reports whether escaped, once decoded, equals plain.
func EqualEscaped(escaped, plain string) bool {
	i, j := 0, 0
	for i < len(escaped) && j < len(plain) {
		if strings.HasPrefix(escaped[i:], NewLine) {
			if plain[j] != '\n' {
				return false
			}
			i += len(NewLine)
			j++
			continue
		}
		if escaped[i] != plain[j] {
			return false
		}
		i++
		j++
	}
	return i == len(escaped) && j == len(plain)
}
