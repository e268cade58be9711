package fsio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory FS. Writing a file creates its parent directories.
type Memory struct {
	mu    sync.RWMutex
	files map[string]string
	dirs  map[string]bool
}

// NewMemory creates an empty in-memory file system.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]string),
		dirs:  make(map[string]bool),
	}
}

func (m *Memory) ReadTextFile(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[filepath.Clean(path)]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, ErrNotExist)
	}
	return content, nil
}

func (m *Memory) WriteTextFile(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if m.dirs[path] {
		return fmt.Errorf("write %s: is a directory", path)
	}
	m.mkdirAll(filepath.Dir(path))
	m.files[path] = content
	return nil
}

func (m *Memory) ReadDir(path string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path = filepath.Clean(path)
	if !m.dirs[path] {
		return nil, fmt.Errorf("read directory %s: %w", path, ErrNotExist)
	}

	var entries []Entry
	for p := range m.files {
		if filepath.Dir(p) == path {
			entries = append(entries, Entry{Name: filepath.Base(p)})
		}
	}
	for d := range m.dirs {
		if d != path && filepath.Dir(d) == path {
			entries = append(entries, Entry{Name: filepath.Base(d), IsDir: true})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Memory) Remove(path string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if _, ok := m.files[path]; ok {
		delete(m.files, path)
		return nil
	}
	if !m.dirs[path] {
		return fmt.Errorf("remove %s: %w", path, ErrNotExist)
	}

	prefix := path + string(filepath.Separator)
	if !recursive {
		for p := range m.files {
			if strings.HasPrefix(p, prefix) {
				return fmt.Errorf("remove %s: directory not empty", path)
			}
		}
	}
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *Memory) Mkdir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mkdirAll(filepath.Clean(path))
	return nil
}

// Files returns the paths of every stored file in sorted order.
func (m *Memory) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *Memory) mkdirAll(path string) {
	for {
		m.dirs[path] = true
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}
