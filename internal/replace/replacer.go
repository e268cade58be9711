package replace

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"
	"rpgm-translator/internal/search"
	"rpgm-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

var (
	// ErrRowOutOfRange is returned for row numbers past the end of a file.
	ErrRowOutOfRange = errors.New("row out of range")
	// ErrColumnOutOfRange is returned for column numbers below 1.
	ErrColumnOutOfRange = errors.New("column out of range")
	// ErrNoPattern is returned when a replace is requested without a pattern.
	ErrNoPattern = errors.New("no search pattern")
	// ErrMalformedRow is returned for lines that do not hold a row.
	ErrMalformedRow = errors.New("malformed line")
)

// Location addresses one cell of the corpus.
type Location struct {
	File  string
	Entry string
	// Row is the 1-based row number within the file or tab.
	Row int
	// Column is the translation column number (1-based).
	Column int
}

// Report summarizes a bulk replace.
type Report struct {
	// Cells is the number of cells rewritten.
	Cells int
	// Translated is the change in translated rows per file: +1 for every
	// empty cell that was filled, -1 for every cell that was cleared.
	Translated map[string]int
}

// Replacer rewrites cells located by a search. It keeps a log of every
// change it makes.
type Replacer struct {
	fs     fsio.FS
	walker *corpus.Walker
	log    []LogEntry
}

// NewReplacer creates a Replacer.
func NewReplacer(fsys fsio.FS, walker *corpus.Walker) *Replacer {
	return &Replacer{fs: fsys, walker: walker}
}

// ReplaceSingle rewrites one cell. When loc.File names tab the live row is
// changed, otherwise the file is read, patched and written back. It returns
// the translated-row delta.
func (r *Replacer) ReplaceSingle(ctx context.Context, tab *row.Tab, pattern *search.Pattern, replacement string, loc Location, action search.Action) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if pattern == nil {
		return 0, ErrNoPattern
	}

	if tab != nil && loc.File == tab.Name {
		return r.replaceLive(tab, pattern, replacement, loc, action)
	}

	path := r.walker.Path(loc.File)
	content, err := r.fs.ReadTextFile(path)
	if err != nil {
		return 0, fmt.Errorf("replace in %s: %w", loc.File, err)
	}

	lines := textutil.SplitLines(content)
	delta, err := r.replaceLine(lines, pattern, replacement, loc, action)
	if err != nil {
		return 0, err
	}

	if err := r.fs.WriteTextFile(path, textutil.JoinLines(lines)); err != nil {
		return 0, fmt.Errorf("replace in %s: %w", loc.File, err)
	}
	return delta, nil
}

// ReplaceAll applies the replacement to every location in results. Every
// file is read and written once. Failures are collected and the remaining
// files are still processed.
func (r *Replacer) ReplaceAll(ctx context.Context, results *search.Results, tab *row.Tab, replacement string) (*Report, error) {
	report := &Report{Translated: make(map[string]int)}
	if results == nil || len(results.Rows) == 0 {
		return report, nil
	}
	if results.Pattern == nil {
		return report, ErrNoPattern
	}

	byFile := make(map[string][]search.ResultKey)
	var files []string
	for key := range results.Rows {
		if _, ok := byFile[key.File]; !ok {
			files = append(files, key.File)
		}
		byFile[key.File] = append(byFile[key.File], key)
	}
	sort.Strings(files)

	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		keys := byFile[file]
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Entry != keys[j].Entry {
				return keys[i].Entry < keys[j].Entry
			}
			return keys[i].Column < keys[j].Column
		})

		if tab != nil && file == tab.Name {
			for _, key := range keys {
				for _, n := range results.Rows[key] {
					loc := Location{File: file, Entry: key.Entry, Row: n, Column: key.Column}
					delta, err := r.replaceLive(tab, results.Pattern, replacement, loc, results.Action)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					report.Cells++
					report.Translated[corpus.TabName(file)] += delta
				}
			}
			continue
		}

		path := r.walker.Path(file)
		content, err := r.fs.ReadTextFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to read file for replace")
			errs = append(errs, fmt.Errorf("replace in %s: %w", file, err))
			continue
		}

		lines := textutil.SplitLines(content)
		changed := 0
		for _, key := range keys {
			for _, n := range results.Rows[key] {
				loc := Location{File: file, Entry: key.Entry, Row: n, Column: key.Column}
				delta, err := r.replaceLine(lines, results.Pattern, replacement, loc, results.Action)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				changed++
				report.Translated[corpus.TabName(file)] += delta
			}
		}

		if changed == 0 {
			continue
		}
		if err := r.fs.WriteTextFile(path, textutil.JoinLines(lines)); err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to write file after replace")
			errs = append(errs, fmt.Errorf("replace in %s: %w", file, err))
			continue
		}
		report.Cells += changed

		log.Info().Str("file", file).Int("cells", changed).Msg("Replaced in file")
	}

	return report, errors.Join(errs...)
}

func (r *Replacer) replaceLive(tab *row.Tab, pattern *search.Pattern, replacement string, loc Location, action search.Action) (int, error) {
	if loc.Row < 1 || loc.Row > len(tab.Rows) {
		return 0, fmt.Errorf("%s row %d: %w", tab.Name, loc.Row, ErrRowOutOfRange)
	}
	if loc.Column < 1 {
		return 0, fmt.Errorf("%s column %d: %w", tab.Name, loc.Column, ErrColumnOutOfRange)
	}

	target := tab.Rows[loc.Row-1]
	if target == nil {
		return 0, fmt.Errorf("%s row %d: %w", tab.Name, loc.Row, ErrMalformedRow)
	}
	old := row.Column(target, loc.Column)

	value, delta, err := apply(pattern, old, replacement, action)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %w", tab.Name, loc.Row, err)
	}

	target.Set(loc.Column, value)
	r.record(loc, target.Source(), old, value)
	return delta, nil
}

// replaceLine patches lines in place.
func (r *Replacer) replaceLine(lines []string, pattern *search.Pattern, replacement string, loc Location, action search.Action) (int, error) {
	if loc.Row < 1 || loc.Row > len(lines) {
		return 0, fmt.Errorf("%s row %d: %w", loc.File, loc.Row, ErrRowOutOfRange)
	}
	if loc.Column < 1 {
		return 0, fmt.Errorf("%s column %d: %w", loc.File, loc.Column, ErrColumnOutOfRange)
	}

	parsed, ok := row.Parse(lines[loc.Row-1])
	if !ok {
		log.Warn().Str("file", loc.File).Int("line", loc.Row).Msg("Malformed line, skipping")
		return 0, fmt.Errorf("%s row %d: %w", loc.File, loc.Row, ErrMalformedRow)
	}

	old := row.Column(parsed, loc.Column)
	value, delta, err := apply(pattern, old, replacement, action)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %w", loc.File, loc.Row, err)
	}

	parsed.Set(loc.Column, value)
	lines[loc.Row-1] = parsed.Line()
	r.record(loc, parsed.Source(), old, value)
	return delta, nil
}

// apply computes the new cell value. Replace substitutes every match, put
// overwrites the whole cell.
func apply(pattern *search.Pattern, old, replacement string, action search.Action) (string, int, error) {
	if action != search.ActionPut {
		value, err := pattern.Replace(old, replacement)
		if err != nil {
			return "", 0, err
		}
		return value, translatedDelta(old, value), nil
	}
	return replacement, translatedDelta(old, replacement), nil
}

func translatedDelta(old, value string) int {
	switch {
	case old == "" && value != "":
		return 1
	case old != "" && value == "":
		return -1
	default:
		return 0
	}
}
