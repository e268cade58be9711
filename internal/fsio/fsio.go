package fsio

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotExist is returned (wrapped) for missing files and directories.
var ErrNotExist = fs.ErrNotExist

// Entry is one directory listing item.
type Entry struct {
	Name  string
	IsDir bool
}

// FS is the file system boundary used by the corpus engines.
type FS interface {
	ReadTextFile(path string) (string, error)
	WriteTextFile(path, content string) error
	ReadDir(path string) ([]Entry, error)
	Remove(path string, recursive bool) error
	Mkdir(path string) error
}

// OS implements FS on the local disk.
type OS struct{}

func (OS) ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteTextFile overwrites path, creating missing parent directories.
func (OS) WriteTextFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (OS) ReadDir(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{Name: de.Name(), IsDir: de.IsDir()})
	}
	return entries, nil
}

func (OS) Remove(path string, recursive bool) error {
	var err error
	if recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (OS) Mkdir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
