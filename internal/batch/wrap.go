package batch

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Wrap reflows text so no line exceeds limit user-perceived characters.
// Words pushed off a line are carried to the start of the next one. Lines
// that already fit and receive no carry are kept verbatim, and a single word
// longer than limit stays whole on its own line.
func Wrap(text string, limit int) string {
	if limit <= 0 {
		return text
	}

	var (
		out   []string
		carry []string
	)

	emit := func(line string) {
		if width(line) <= limit {
			out = append(out, line)
			return
		}

		words := strings.Fields(line)
		for len(words) > 1 && width(strings.Join(words, " ")) > limit {
			carry = append([]string{words[len(words)-1]}, carry...)
			words = words[:len(words)-1]
		}
		out = append(out, strings.Join(words, " "))
	}

	for _, segment := range strings.Split(text, "\n") {
		if len(carry) > 0 {
			segment = strings.TrimSpace(strings.Join(carry, " ") + " " + segment)
			carry = nil
		}
		emit(segment)
	}

	for len(carry) > 0 {
		segment := strings.Join(carry, " ")
		carry = nil
		emit(segment)
	}

	return strings.Join(out, "\n")
}

func width(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
