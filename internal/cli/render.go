package cli

import (
	"fmt"
	"io"
	"strings"

	"rpgm-translator/internal/search"

	"github.com/charmbracelet/lipgloss"
)

var (
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)

	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#282A36")).Background(lipgloss.Color("#50FA7B")).Bold(true)

	counterpartStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))

	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
)

// renderHighlighted styles the highlight spans of a page entry.
func renderHighlighted(text string) string {
	var sb strings.Builder
	for {
		start := strings.Index(text, search.HighlightOpen)
		if start < 0 {
			break
		}
		rest := text[start+len(search.HighlightOpen):]
		end := strings.Index(rest, search.HighlightClose)
		if end < 0 {
			break
		}

		sb.WriteString(text[:start])
		sb.WriteString(matchStyle.Render(rest[:end]))
		text = rest[end+len(search.HighlightClose):]
	}
	sb.WriteString(text)
	return sb.String()
}

func renderPage(w io.Writer, page int, entries []search.PageEntry) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Page %d (%d matches)", page, len(entries))))
	for _, e := range entries {
		fmt.Fprintln(w)
		fmt.Fprintln(w, keyStyle.Render(e.Key))
		fmt.Fprintln(w, renderHighlighted(e.Text))
		fmt.Fprintln(w, counterpartStyle.Render(e.CounterpartKey+": "+e.CounterpartText))
	}
}
