package corpus

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"

	"github.com/rs/zerolog/log"
)

const backupTimeLayout = "2006-01-02_15-04-05"

// Saver writes tabs back to disk. Operations that read rows from disk call
// Wait first so they never observe a half-finished save.
type Saver struct {
	fs     fsio.FS
	walker *Walker
	mu     sync.Mutex
}

// NewSaver creates a Saver.
func NewSaver(fsys fsio.FS, walker *Walker) *Saver {
	return &Saver{fs: fsys, walker: walker}
}

// Wait blocks until no save is in progress.
func (s *Saver) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
}

// SaveTab writes the rows of tab to its file.
func (s *Saver) SaveTab(tab *row.Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveTab(tab)
}

func (s *Saver) saveTab(tab *row.Tab) error {
	if err := s.fs.WriteTextFile(s.walker.Path(tab.Name), tab.Content()); err != nil {
		return fmt.Errorf("save tab %s: %w", tab.Name, err)
	}
	log.Debug().Str("tab", tab.Name).Int("rows", len(tab.Rows)).Msg("Saved tab")
	return nil
}

// SaveAll saves the open tab, when there is one, and rebuilds the combined
// maps file from the temp maps.
func (s *Saver) SaveAll(tab *row.Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tab != nil && tab.Name != "" {
		if err := s.saveTab(tab); err != nil {
			return err
		}
	}
	return s.walker.MergeMaps()
}

// Backup copies the translation and temp-map files into a new timestamped
// backup directory and prunes the oldest backups beyond keep.
func (s *Saver) Backup(now time.Time, keep int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := s.walker.project
	dest := filepath.Join(project.BackupPath(), now.Format(backupTimeLayout))

	dirs := []struct{ from, to string }{
		{project.TranslationPath(), filepath.Join(dest, config.TranslationDir)},
		{project.TempMapsPath(), filepath.Join(dest, config.TempMapsDir)},
	}

	copied := 0
	for _, d := range dirs {
		n, err := s.copyDir(d.from, d.to)
		if err != nil {
			return "", fmt.Errorf("backup: %w", err)
		}
		copied += n
	}

	log.Info().Str("path", dest).Int("files", copied).Msg("Backup created")

	if err := s.prune(keep); err != nil {
		log.Warn().Err(err).Msg("Failed to prune old backups")
	}
	return dest, nil
}

func (s *Saver) copyDir(from, to string) (int, error) {
	entries, err := s.fs.ReadDir(from)
	if err != nil {
		if isNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	if err := s.fs.Mkdir(to); err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		content, err := s.fs.ReadTextFile(filepath.Join(from, e.Name))
		if err != nil {
			return n, err
		}
		if err := s.fs.WriteTextFile(filepath.Join(to, e.Name), content); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Saver) prune(keep int) error {
	if keep <= 0 {
		return nil
	}

	entries, err := s.fs.ReadDir(s.walker.project.BackupPath())
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if _, err := time.Parse(backupTimeLayout, e.Name); e.IsDir && err == nil {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)

	for len(names) > keep {
		path := filepath.Join(s.walker.project.BackupPath(), names[0])
		if err := s.fs.Remove(path, true); err != nil {
			return err
		}
		log.Debug().Str("path", path).Msg("Removed old backup")
		names = names[1:]
	}
	return nil
}
