package row

import (
	"strings"

	"rpgm-translator/internal/textutil"
)

// Separator delimits the columns of a row on disk.
const Separator = "<#>"

// Split splits a line into its columns. It reports false when the line holds
// fewer than two columns, which callers treat as a malformed line.
func Split(line string) ([]string, bool) {
	columns := strings.Split(line, Separator)
	if len(columns) < 2 {
		return nil, false
	}
	return columns, true
}

// Join is the inverse of Split.
func Join(columns []string) string {
	return strings.Join(columns, Separator)
}

// Row is one translation unit: a source and an ordered list of translations.
// Column 0 is the source, column n >= 1 is translation n.
type Row interface {
	Source() string
	Translations() []string
	// Translation returns the last non-empty translation and its column
	// number, or ("", -1) when every translation is empty.
	Translation() (string, int)
}

// Column returns the value of column n of r, or "" when r has no such column.
func Column(r Row, n int) string {
	if n == 0 {
		return r.Source()
	}
	translations := r.Translations()
	if n < 0 || n > len(translations) {
		return ""
	}
	return translations[n-1]
}

// columns backs both row kinds. Values hold real newlines.
type columns []string

func (c columns) Source() string {
	return c[0]
}

func (c columns) Translations() []string {
	return c[1:]
}

func (c columns) Translation() (string, int) {
	for i := len(c) - 1; i >= 1; i-- {
		if c[i] != "" {
			return c[i], i
		}
	}
	return "", -1
}

// Width returns the number of columns including the source.
func (c columns) Width() int {
	return len(c)
}

// set assigns column n, backfilling missing columns with empty strings.
func (c *columns) set(n int, value string) {
	for len(*c) <= n {
		*c = append(*c, "")
	}
	(*c)[n] = value
}

func (c columns) line() string {
	encoded := make([]string, len(c))
	for i, v := range c {
		encoded[i] = textutil.ToEscaped(v)
	}
	return Join(encoded)
}

// ParsedRow is a row read from a line of a corpus file.
type ParsedRow struct {
	columns
}

// Parse decodes a file line into a row. It reports false for malformed lines.
func Parse(line string) (*ParsedRow, bool) {
	parts, ok := Split(line)
	if !ok {
		return nil, false
	}
	for i, p := range parts {
		parts[i] = textutil.FromEscaped(p)
	}
	return &ParsedRow{columns: parts}, true
}

// Set assigns column n, growing the row when needed.
func (r *ParsedRow) Set(n int, value string) {
	r.columns.set(n, value)
}

// Line encodes the row back into a single file line.
func (r *ParsedRow) Line() string {
	return r.columns.line()
}

// LiveRow is an editable row of the open tab.
type LiveRow struct {
	columns
}

// NewLiveRow creates a row from a source and its translations.
func NewLiveRow(source string, translations ...string) *LiveRow {
	c := make(columns, 0, len(translations)+1)
	c = append(c, source)
	c = append(c, translations...)
	return &LiveRow{columns: c}
}

// Set assigns column n, growing the row when needed.
func (r *LiveRow) Set(n int, value string) {
	r.columns.set(n, value)
}

// Line encodes the row as a file line.
func (r *LiveRow) Line() string {
	return r.columns.line()
}

// Tab is the in-memory row collection of one open file. Rows[i] holds
// file line i+1; blank and malformed lines are nil rows whose text is
// written back unchanged by Content.
type Tab struct {
	Name string
	Rows []*LiveRow

	raw map[int]string
}

// ParseTab decodes file content into a tab. Malformed lines are returned by
// line number so the caller can report them.
func ParseTab(name, content string) (*Tab, []int) {
	lines := textutil.SplitLines(content)
	tab := &Tab{Name: name, Rows: make([]*LiveRow, len(lines))}
	var malformed []int

	for i, line := range lines {
		if line == "" {
			continue
		}
		parsed, ok := Parse(line)
		if !ok {
			malformed = append(malformed, i+1)
			tab.keepRaw(i, line)
			continue
		}
		tab.Rows[i] = &LiveRow{columns: parsed.columns}
	}

	return tab, malformed
}

func (t *Tab) keepRaw(i int, line string) {
	if t.raw == nil {
		t.raw = make(map[int]string)
	}
	t.raw[i] = line
}

// Content encodes the tab as file content.
func (t *Tab) Content() string {
	lines := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		if r == nil {
			lines[i] = t.raw[i]
			continue
		}
		lines[i] = r.Line()
	}
	return textutil.JoinLines(lines)
}
