package corpus

import (
	"fmt"
	"path/filepath"
	"strings"

	"rpgm-translator/internal/row"
	"rpgm-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// SplitMaps splits the combined maps file into one temp-map file per map,
// starting a new map at every map comment row. Rows before the first map
// comment stay with the first map. It returns the created tab names in
// order and every bookmark found along the way.
func (w *Walker) SplitMaps() ([]string, []Bookmark, error) {
	path := filepath.Join(w.project.TranslationPath(), MapsFile)
	content, err := w.fs.ReadTextFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read maps file: %w", err)
	}

	if err := w.fs.Remove(w.project.TempMapsPath(), true); err != nil {
		log.Debug().Err(err).Msg("No previous temp maps to remove")
	}
	if err := w.fs.Mkdir(w.project.TempMapsPath()); err != nil {
		return nil, nil, fmt.Errorf("create temp maps directory: %w", err)
	}

	var (
		tabs      []string
		bookmarks []Bookmark
		chunk     []string
		id        string
	)

	flush := func() error {
		if id == "" {
			return nil
		}
		name := "map" + id
		if err := w.fs.WriteTextFile(w.Path(name), textutil.JoinLines(chunk)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		tabs = append(tabs, name)
		chunk = nil
		return nil
	}

	for i, line := range textutil.SplitLines(content) {
		if line == "" {
			continue
		}

		source := line
		if columns, ok := row.Split(line); ok {
			source = columns[0]
		}

		switch source {
		case row.MapComment:
			if err := flush(); err != nil {
				return tabs, bookmarks, err
			}
			id = line[strings.LastIndex(line, row.Separator)+len(row.Separator):]
		case row.BookmarkComment:
			bookmarks = append(bookmarks, Bookmark{
				File:        MapsFile,
				Row:         i + 1,
				Description: line[strings.LastIndex(line, row.Separator)+len(row.Separator):],
			})
		}

		chunk = append(chunk, line)
	}

	if id == "" && len(chunk) > 0 {
		log.Warn().Int("lines", len(chunk)).Msg("Maps file has no map comments, nothing split")
	}
	if err := flush(); err != nil {
		return tabs, bookmarks, err
	}

	log.Info().Int("maps", len(tabs)).Int("bookmarks", len(bookmarks)).Msg("Split maps file")
	return tabs, bookmarks, nil
}

// MergeMaps concatenates every temp-map file in map ID order back into the
// combined maps file.
func (w *Walker) MergeMaps() error {
	files, err := w.MapFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	parts := make([]string, 0, len(files))
	for _, f := range files {
		content, err := w.fs.ReadTextFile(f.Path)
		if err != nil {
			return fmt.Errorf("merge maps: %w", err)
		}
		parts = append(parts, strings.TrimRight(content, "\r\n"))
	}

	path := filepath.Join(w.project.TranslationPath(), MapsFile)
	if err := w.fs.WriteTextFile(path, textutil.JoinLines(parts)); err != nil {
		return fmt.Errorf("write maps file: %w", err)
	}

	log.Info().Int("maps", len(files)).Msg("Merged maps file")
	return nil
}
