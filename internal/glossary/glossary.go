package glossary

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"rpgm-translator/internal/fsio"
)

// Term is a fixed translation for a recurring name or phrase.
type Term struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Note        string `json:"note,omitempty"`
}

// Glossary is the project's term list.
type Glossary struct {
	mu    sync.RWMutex
	terms []Term
}

// New creates a glossary holding terms.
func New(terms ...Term) *Glossary {
	g := &Glossary{}
	for _, t := range terms {
		g.Add(t)
	}
	return g
}

// LoadFile reads a glossary file. A missing file yields an empty glossary.
func LoadFile(fsys fsio.FS, path string) (*Glossary, error) {
	content, err := fsys.ReadTextFile(path)
	if errors.Is(err, fsio.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}

	var terms []Term
	if err := json.Unmarshal([]byte(content), &terms); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	return New(terms...), nil
}

// SaveFile writes the glossary to path.
func (g *Glossary) SaveFile(fsys fsio.FS, path string) error {
	data, err := json.MarshalIndent(g.Terms(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode glossary: %w", err)
	}
	if err := fsys.WriteTextFile(path, string(data)); err != nil {
		return fmt.Errorf("write glossary: %w", err)
	}
	return nil
}

// Add inserts t, replacing any term with the same source (case-insensitive).
// Terms with an empty source are ignored.
func (g *Glossary) Add(t Term) {
	if strings.TrimSpace(t.Source) == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.terms {
		if strings.EqualFold(g.terms[i].Source, t.Source) {
			g.terms[i] = t
			return
		}
	}
	g.terms = append(g.terms, t)
}

// Terms returns a copy of every term.
func (g *Glossary) Terms() []Term {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Term, len(g.terms))
	copy(out, g.terms)
	return out
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.terms)
}

// Match returns the terms whose source occurs in text, ignoring case,
// longest source first.
func (g *Glossary) Match(text string) []Term {
	lower := strings.ToLower(text)

	g.mu.RLock()
	var found []Term
	for _, t := range g.terms {
		if strings.Contains(lower, strings.ToLower(t.Source)) {
			found = append(found, t)
		}
	}
	g.mu.RUnlock()

	sortLongestFirst(found)
	return found
}

func sortLongestFirst(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		return len([]rune(terms[i].Source)) > len([]rune(terms[j].Source))
	})
}
