package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"rpgm-translator/internal/fsio"

	"github.com/rs/zerolog/log"
)

const (
	pagePrefix    = "match"
	pageExtension = ".json"
)

// Match is one side of a match pair.
type Match struct {
	Key          string
	Text         string
	Type         MatchType
	ColumnName   string
	ColumnNumber int
}

// MatchPair couples a hit with the opposite side of its row.
type MatchPair struct {
	Match       Match
	Counterpart Match
}

// PageName returns the file name of page n (1-based).
func PageName(n int) string {
	return pagePrefix + strconv.Itoa(n) + pageExtension
}

func pagePathIn(dir, name string) string {
	return filepath.Join(dir, name)
}

// flush writes full pages from the buffer. With drain set, a trailing
// partial page is written as well.
func (s *Searcher) flush(drain bool) error {
	prev := s.State()
	s.setState(StatePaginating)
	defer s.setState(prev)

	for len(s.buffer) >= s.pageSize || (drain && len(s.buffer) > 0) {
		n := min(len(s.buffer), s.pageSize)
		if err := s.writePage(s.buffer[:n]); err != nil {
			return err
		}
		s.buffer = s.buffer[n:]
	}

	if len(s.buffer) == 0 {
		s.buffer = nil
	}
	return nil
}

func (s *Searcher) writePage(pairs []MatchPair) error {
	data, err := encodePage(pairs)
	if err != nil {
		return err
	}

	s.pages++
	path := pagePathIn(s.project.MatchesPath(), PageName(s.pages))
	if err := s.fs.WriteTextFile(path, data); err != nil {
		return fmt.Errorf("write match page: %w", err)
	}
	s.matches += len(pairs)

	log.Debug().Str("path", path).Int("pairs", len(pairs)).Msg("Wrote match page")
	return nil
}

// encodePage renders pairs as a JSON array of [[key, text], [key, text]]
// without HTML escaping so highlight spans stay readable.
func encodePage(pairs []MatchPair) (string, error) {
	raw := make([][2][2]string, len(pairs))
	for i, p := range pairs {
		raw[i] = [2][2]string{
			{p.Match.Key, p.Match.Text},
			{p.Counterpart.Key, p.Counterpart.Text},
		}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(raw); err != nil {
		return "", fmt.Errorf("encode match page: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// PageEntry is one decoded match page item.
type PageEntry struct {
	Key             string
	Text            string
	CounterpartKey  string
	CounterpartText string
}

// ReadPage loads page n from the matches directory.
func ReadPage(fsys fsio.FS, dir string, n int) ([]PageEntry, error) {
	content, err := fsys.ReadTextFile(pagePathIn(dir, PageName(n)))
	if err != nil {
		return nil, fmt.Errorf("read match page %d: %w", n, err)
	}

	var raw [][2][2]string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decode match page %d: %w", n, err)
	}

	entries := make([]PageEntry, len(raw))
	for i, r := range raw {
		entries[i] = PageEntry{
			Key:             r[0][0],
			Text:            r[0][1],
			CounterpartKey:  r[1][0],
			CounterpartText: r[1][1],
		}
	}
	return entries, nil
}
