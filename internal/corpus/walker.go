package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"

	"github.com/rs/zerolog/log"
)

// TextExtension is the extension of every corpus file.
const TextExtension = ".txt"

// MapsFile is the combined map file split into per-map tabs.
const MapsFile = "maps.txt"

// File is a corpus file discovered on disk.
type File struct {
	Name string
	Path string
}

// Walker resolves tab names to files and lists the corpus.
type Walker struct {
	fs      fsio.FS
	project *config.Project
}

// NewWalker creates a Walker over the project's translation directories.
func NewWalker(fsys fsio.FS, project *config.Project) *Walker {
	return &Walker{fs: fsys, project: project}
}

// IsMapTab reports whether name (with or without extension) is a split map
// tab such as "map12".
func IsMapTab(name string) bool {
	_, ok := mapID(name)
	return ok
}

func mapID(name string) (int, bool) {
	name = strings.TrimSuffix(name, TextExtension)
	if !strings.HasPrefix(name, "map") {
		return 0, false
	}
	id, err := strconv.Atoi(name[len("map"):])
	if err != nil {
		return 0, false
	}
	return id, true
}

// TabName strips the file extension.
func TabName(filename string) string {
	return strings.TrimSuffix(filename, TextExtension)
}

// Path returns the on-disk path of a tab or file name.
func (w *Walker) Path(name string) string {
	if !strings.HasSuffix(name, TextExtension) {
		name += TextExtension
	}
	if IsMapTab(name) {
		return filepath.Join(w.project.TempMapsPath(), name)
	}
	return filepath.Join(w.project.TranslationPath(), name)
}

// MapFiles lists split map files ordered by numeric map ID. A missing
// temp-maps directory means the project has no split maps.
func (w *Walker) MapFiles() ([]File, error) {
	entries, err := w.fs.ReadDir(w.project.TempMapsPath())
	if errors.Is(err, fsio.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list temp maps: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir || !IsMapTab(e.Name) || !strings.HasSuffix(e.Name, TextExtension) {
			continue
		}
		files = append(files, File{Name: e.Name, Path: filepath.Join(w.project.TempMapsPath(), e.Name)})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, _ := mapID(files[i].Name)
		b, _ := mapID(files[j].Name)
		return a < b
	})

	return files, nil
}

// Files lists every searchable corpus file: split maps in map ID order, then
// the translation directory. The combined maps file and the tab named
// exclude are skipped.
func (w *Walker) Files(exclude string) ([]File, error) {
	maps, err := w.MapFiles()
	if err != nil {
		return nil, err
	}

	entries, err := w.fs.ReadDir(w.project.TranslationPath())
	if err != nil {
		return nil, fmt.Errorf("list translation files: %w", err)
	}

	files := make([]File, 0, len(maps)+len(entries))
	for _, f := range maps {
		if TabName(f.Name) != exclude {
			files = append(files, f)
		}
	}

	for _, e := range entries {
		if e.IsDir || !strings.HasSuffix(e.Name, TextExtension) || e.Name == MapsFile {
			continue
		}
		if TabName(e.Name) == exclude {
			continue
		}
		files = append(files, File{Name: e.Name, Path: filepath.Join(w.project.TranslationPath(), e.Name)})
	}

	log.Debug().Int("count", len(files)).Str("exclude", exclude).Msg("Discovered corpus files")
	return files, nil
}

// Tabs returns the set of tab names available in the project.
func (w *Walker) Tabs() (map[string]bool, error) {
	files, err := w.Files("")
	if err != nil {
		return nil, err
	}

	tabs := make(map[string]bool, len(files))
	for _, f := range files {
		tabs[TabName(f.Name)] = true
	}
	return tabs, nil
}

// LoadTab reads a tab into memory. Malformed lines are logged and kept as
// they are.
func (w *Walker) LoadTab(name string) (*row.Tab, error) {
	name = TabName(name)
	path := w.Path(name)

	content, err := w.fs.ReadTextFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tab %s: %w", name, err)
	}

	tab, malformed := row.ParseTab(name, content)
	for _, n := range malformed {
		log.Warn().Str("file", name).Int("line", n).Msg("Malformed line, keeping as is")
	}

	return tab, nil
}
