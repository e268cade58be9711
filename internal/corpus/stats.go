package corpus

import (
	"errors"
	"strings"

	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"
	"rpgm-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Progress counts translatable rows of a file. Comment rows are excluded.
type Progress struct {
	Total      int
	Translated int
}

// Percent returns the translated share in percent.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Translated) * 100 / float64(p.Total)
}

// Bookmark is a bookmark comment row.
type Bookmark struct {
	File        string
	Row         int
	Description string
}

// Stats counts the translatable and translated rows of file content.
func Stats(content string) Progress {
	var p Progress
	for _, line := range textutil.SplitLines(content) {
		columns, ok := row.Split(line)
		if !ok || row.IsComment(columns[0]) {
			continue
		}
		p.Total++
		for _, c := range columns[1:] {
			if c != "" {
				p.Translated++
				break
			}
		}
	}
	return p
}

// Bookmarks returns the bookmark rows of file content. The description is
// the last column of the row.
func Bookmarks(file, content string) []Bookmark {
	var bookmarks []Bookmark
	for i, line := range textutil.SplitLines(content) {
		if !strings.HasPrefix(line, row.BookmarkComment+row.Separator) {
			continue
		}
		bookmarks = append(bookmarks, Bookmark{
			File:        file,
			Row:         i + 1,
			Description: line[strings.LastIndex(line, row.Separator)+len(row.Separator):],
		})
	}
	return bookmarks
}

// Progress computes per-file progress for the whole corpus. Unreadable files
// are logged and skipped.
func (w *Walker) Progress() (map[string]Progress, error) {
	files, err := w.Files("")
	if err != nil {
		return nil, err
	}

	result := make(map[string]Progress, len(files))
	for _, f := range files {
		content, err := w.fs.ReadTextFile(f.Path)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("Failed to read file, skipping")
			continue
		}
		result[TabName(f.Name)] = Stats(content)
	}
	return result, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fsio.ErrNotExist)
}
