package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"
	"rpgm-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Mode selects which side of a row is searched.
type Mode int

const (
	ModeAll Mode = iota
	ModeSource
	ModeTranslation
)

// AnyColumn searches every non-empty translation column.
const AnyColumn = -1

// DefaultPageSize is the maximum number of match pairs per page file.
const DefaultPageSize = 1000

// State is the phase a Searcher is in.
type State int

const (
	StateIdle State = iota
	StateSearching
	StatePaginating
)

// MatchType tells which side of a row a match came from.
type MatchType string

const (
	MatchSource      MatchType = "source"
	MatchTranslation MatchType = "translation"
)

// Request describes one search.
type Request struct {
	Text   string
	Flags  Flags
	Mode   Mode
	Action Action
	// Column is a translation column number (1-based) or AnyColumn.
	Column int
	// Tab holds the live rows of the open tab. It may be nil.
	Tab *row.Tab
	// KnownTabs lists the tabs of the project. When set, the scan of a map
	// file stops at the first map whose tab is not known.
	KnownTabs map[string]bool
}

// ResultKey groups replace and put hits by file, entry and column.
type ResultKey struct {
	File   string
	Entry  string
	Column int
}

func (k ResultKey) String() string {
	return fmt.Sprintf("%s-%s-%d", k.File, k.Entry, k.Column)
}

// Results is the outcome of a search.
type Results struct {
	// Rows maps keys to 1-based row numbers. Only filled for replace and put.
	Rows map[ResultKey][]int
	// Pages is the number of match page files written.
	Pages int
	// Matches is the total number of match pairs written to pages.
	Matches int
	Pattern *Pattern
	Action  Action
}

// Searcher scans the open tab and the corpus files of a project. One
// Searcher runs one search at a time; its state is reset at the start of
// every search.
type Searcher struct {
	fs       fsio.FS
	walker   *corpus.Walker
	project  *config.Project
	pageSize int

	mu      sync.Mutex
	state   atomic.Int32
	req     Request
	pattern *Pattern
	results map[ResultKey][]int
	buffer  []MatchPair
	pages   int
	matches int
}

// NewSearcher creates a Searcher for project.
func NewSearcher(fsys fsio.FS, project *config.Project) *Searcher {
	return &Searcher{
		fs:       fsys,
		walker:   corpus.NewWalker(fsys, project),
		project:  project,
		pageSize: DefaultPageSize,
	}
}

// SetPageSize overrides the number of match pairs per page.
func (s *Searcher) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

// State returns the current phase. It is safe to call while a search runs.
func (s *Searcher) State() State {
	return State(s.state.Load())
}

func (s *Searcher) setState(st State) {
	s.state.Store(int32(st))
}

// Search runs req. An empty search text returns empty results. An invalid
// expression returns empty results and an error wrapping ErrInvalidPattern.
func (s *Searcher) Search(ctx context.Context, req Request) (*Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.setState(StateIdle)

	s.reset(req)
	if s.req.Column < 1 {
		s.req.Column = AnyColumn
	}

	pattern, err := Compile(req.Text, req.Flags, req.Action)
	if err != nil {
		log.Warn().Err(err).Str("text", req.Text).Msg("Failed to compile search pattern")
		return &Results{Action: req.Action}, err
	}
	if pattern == nil {
		return &Results{Action: req.Action}, nil
	}
	s.pattern = pattern
	s.setState(StateSearching)

	if err := s.removeOldPages(); err != nil {
		return s.collect(), err
	}

	if req.Tab != nil {
		rows := make([]row.Row, len(req.Tab.Rows))
		for i, r := range req.Tab.Rows {
			if r != nil {
				rows[i] = r
			}
		}
		if err := s.searchRows(ctx, req.Tab.Name, rows, nil); err != nil {
			return s.collect(), err
		}
		if err := s.flush(false); err != nil {
			return s.collect(), err
		}
	}

	if !req.Flags.Has(OnlyCurrentTab) {
		tabName := ""
		if req.Tab != nil {
			tabName = req.Tab.Name
		}
		if err := s.searchGlobal(ctx, tabName); err != nil {
			return s.collect(), err
		}
	}

	if err := s.flush(true); err != nil {
		return s.collect(), err
	}

	res := s.collect()
	log.Info().
		Str("text", req.Text).
		Str("action", req.Action.String()).
		Int("matches", res.Matches).
		Int("pages", res.Pages).
		Int("keys", len(res.Rows)).
		Msg("Search complete")

	return res, nil
}

func (s *Searcher) reset(req Request) {
	s.req = req
	s.pattern = nil
	s.results = make(map[ResultKey][]int)
	s.buffer = nil
	s.pages = 0
	s.matches = 0
	s.setState(StateIdle)
}

func (s *Searcher) collect() *Results {
	return &Results{
		Rows:    s.results,
		Pages:   s.pages,
		Matches: s.matches,
		Pattern: s.pattern,
		Action:  s.req.Action,
	}
}

func (s *Searcher) searchGlobal(ctx context.Context, tabName string) error {
	files, err := s.walker.Files(tabName)
	if err != nil {
		return fmt.Errorf("global search: %w", err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := s.fs.ReadTextFile(f.Path)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("Failed to read file, skipping")
			continue
		}

		lines := textutil.SplitLines(content)
		rows := make([]row.Row, len(lines))
		for i, line := range lines {
			if line == "" {
				continue
			}
			parsed, ok := row.Parse(line)
			if !ok {
				log.Warn().Str("file", f.Name).Int("line", i+1).Msg("Malformed line, skipping")
				continue
			}
			rows[i] = parsed
		}

		if err := s.searchRows(ctx, f.Name, rows, s.req.KnownTabs); err != nil {
			return err
		}
		if err := s.flush(false); err != nil {
			return err
		}
	}

	return nil
}

// searchRows probes rows of one file. Nil rows are skipped but still count
// towards row numbers.
func (s *Searcher) searchRows(ctx context.Context, filename string, rows []row.Row, knownTabs map[string]bool) error {
	searchSource := s.req.Mode != ModeTranslation && s.req.Action != ActionReplace
	searchTranslation := s.req.Mode != ModeSource && s.req.Action != ActionPut

	fileComment := row.FileComment(filename)
	entry := ""

	for i, r := range rows {
		if r == nil {
			continue
		}
		if i%512 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		rowNumber := i + 1
		source := r.Source()
		translations := r.Translations()

		if source == fileComment {
			entry = ""
			if len(translations) > 0 {
				entry = translations[0]
			}
			if knownTabs != nil && fileComment == row.MapComment && !knownTabs["map"+entry] {
				log.Debug().Str("file", filename).Str("map", entry).Msg("Map is not a known tab, stopping file scan")
				break
			}
		}

		sourceMatch := Match{
			Text:         source,
			Type:         MatchSource,
			ColumnName:   "Source",
			ColumnNumber: 0,
		}

		if searchSource {
			column := s.req.Column
			var text string
			if column == AnyColumn {
				text, column = r.Translation()
				if column < 1 {
					column = 1
				}
			} else {
				text = row.Column(r, column)
			}

			counterpart := Match{
				Text:         text,
				Type:         MatchTranslation,
				ColumnName:   s.project.ColumnName(column),
				ColumnNumber: column,
			}
			if err := s.appendMatch(sourceMatch, counterpart, column, filename, entry, rowNumber); err != nil {
				return err
			}
		}

		if searchTranslation {
			start, end := 1, len(translations)
			if s.req.Column != AnyColumn {
				start, end = s.req.Column, s.req.Column
			}

			for col := start; col <= end; col++ {
				text := row.Column(r, col)
				if text == "" {
					continue
				}

				match := Match{
					Text:         text,
					Type:         MatchTranslation,
					ColumnName:   s.project.ColumnName(col),
					ColumnNumber: col,
				}
				if err := s.appendMatch(match, sourceMatch, col, filename, entry, rowNumber); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// appendMatch records match when the pattern matches its text. target is
// the translation column a replace or put would write to.
func (s *Searcher) appendMatch(match, counterpart Match, target int, filename, entry string, rowNumber int) error {
	if s.req.Action == ActionSearch {
		highlighted, ok, err := s.pattern.Highlight(match.Text)
		if err != nil {
			return s.matchError(err, filename, rowNumber)
		}
		if !ok {
			return nil
		}

		name := corpus.TabName(filename)
		match.Key = matchKey(name, entry, match, rowNumber)
		match.Text = highlighted
		counterpart.Key = matchKey(name, entry, counterpart, rowNumber)

		s.buffer = append(s.buffer, MatchPair{Match: match, Counterpart: counterpart})
		return nil
	}

	ok, err := s.pattern.MatchString(match.Text)
	if err != nil {
		return s.matchError(err, filename, rowNumber)
	}
	if !ok {
		return nil
	}

	key := ResultKey{File: filename, Entry: entry, Column: target}
	s.results[key] = append(s.results[key], rowNumber)
	return nil
}

// matchError logs a per-row match failure (such as a timeout) and lets the
// scan continue.
func (s *Searcher) matchError(err error, filename string, rowNumber int) error {
	log.Warn().Err(err).Str("file", filename).Int("row", rowNumber).Msg("Match failed, skipping row")
	return nil
}

func matchKey(file, entry string, m Match, rowNumber int) string {
	return fmt.Sprintf("%s - %s - %s - %s (%d) - %d", file, entry, m.Type, m.ColumnName, m.ColumnNumber, rowNumber)
}

// removeOldPages deletes the match pages of the previous search.
func (s *Searcher) removeOldPages() error {
	dir := s.project.MatchesPath()

	entries, err := s.fs.ReadDir(dir)
	if errors.Is(err, fsio.ErrNotExist) {
		if err := s.fs.Mkdir(dir); err != nil {
			return fmt.Errorf("create matches directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("list matches directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir || !strings.HasPrefix(e.Name, pagePrefix) {
			continue
		}
		if err := s.fs.Remove(pagePathIn(dir, e.Name), false); err != nil {
			return fmt.Errorf("remove old match page: %w", err)
		}
	}
	return nil
}
