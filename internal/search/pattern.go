package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Flags modify how search text is compiled and where it is applied.
type Flags uint8

const (
	WholeWord Flags = 1 << iota
	CaseSensitive
	RegExp
	OnlyCurrentTab
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Action is what the caller intends to do with the matches.
type Action int

const (
	ActionSearch Action = iota
	ActionReplace
	ActionPut
)

func (a Action) String() string {
	switch a {
	case ActionReplace:
		return "replace"
	case ActionPut:
		return "put"
	default:
		return "search"
	}
}

// ErrInvalidPattern wraps compilation failures of user supplied expressions.
var ErrInvalidPattern = errors.New("invalid search pattern")

// Highlight markup wrapped around matches in page files.
const (
	HighlightOpen  = `<span class="bg-third">`
	HighlightClose = `</span>`
)

const matchTimeout = 5 * time.Second

// Pattern is a compiled search expression. Matching is always global.
type Pattern struct {
	re     *regexp2.Regexp
	action Action
}

// Compile builds a pattern from raw search text. Empty text (after trimming)
// yields a nil pattern and a nil error: there is nothing to search for.
func Compile(text string, flags Flags, action Action) (*Pattern, error) {
	expr := strings.TrimSpace(text)
	if expr == "" {
		return nil, nil
	}

	if !flags.Has(RegExp) {
		expr = regexp2.Escape(expr)
	}
	if flags.Has(WholeWord) {
		expr = `(?<!\p{L})(?:` + expr + `)(?!\p{L})`
	}
	if action == ActionPut {
		expr = `\A(?:` + expr + `)\z`
	}

	var opts regexp2.RegexOptions
	if !flags.Has(CaseSensitive) {
		opts |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	re.MatchTimeout = matchTimeout

	return &Pattern{re: re, action: action}, nil
}

// String returns the compiled expression.
func (p *Pattern) String() string {
	return p.re.String()
}

// Action returns the action the pattern was compiled for.
func (p *Pattern) Action() Action {
	return p.action
}

// MatchString reports whether text contains a match.
func (p *Pattern) MatchString(text string) (bool, error) {
	ok, err := p.re.MatchString(text)
	if err != nil {
		return false, fmt.Errorf("match: %w", err)
	}
	return ok, nil
}

// Highlight wraps every non-empty match of text in a highlight span and
// reports whether there was any match at all. Text outside the matches is
// kept verbatim.
func (p *Pattern) Highlight(text string) (string, bool, error) {
	m, err := p.re.FindStringMatch(text)
	if err != nil {
		return "", false, fmt.Errorf("match: %w", err)
	}
	if m == nil {
		return "", false, nil
	}

	runes := []rune(text)
	var sb strings.Builder
	last := 0

	for m != nil {
		if m.Length > 0 {
			sb.WriteString(string(runes[last:m.Index]))
			sb.WriteString(HighlightOpen)
			sb.WriteString(m.String())
			sb.WriteString(HighlightClose)
			last = m.Index + m.Length
		}

		m, err = p.re.FindNextMatch(m)
		if err != nil {
			return "", false, fmt.Errorf("match: %w", err)
		}
	}
	sb.WriteString(string(runes[last:]))

	return sb.String(), true, nil
}

// Replace substitutes every match in text. The replacement may reference
// groups with $1 or ${name}.
func (p *Pattern) Replace(text, replacement string) (string, error) {
	out, err := p.re.Replace(text, replacement, -1, -1)
	if err != nil {
		return "", fmt.Errorf("replace: %w", err)
	}
	return out, nil
}
