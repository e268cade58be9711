package fsio

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func exercise(t *testing.T, fsys FS, root string) {
	t.Helper()

	file := filepath.Join(root, "translation", "system.txt")
	if err := fsys.WriteTextFile(file, "a<#>b"); err != nil {
		t.Fatalf("WriteTextFile: %v", err)
	}

	got, err := fsys.ReadTextFile(file)
	if err != nil {
		t.Fatalf("ReadTextFile: %v", err)
	}
	if got != "a<#>b" {
		t.Errorf("ReadTextFile = %q, want %q", got, "a<#>b")
	}

	if err := fsys.Mkdir(filepath.Join(root, "translation", "nested")); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	entries, err := fsys.ReadDir(filepath.Join(root, "translation"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	want := []Entry{{Name: "nested", IsDir: true}, {Name: "system.txt"}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("ReadDir mismatch (-want +got):\n%s", diff)
	}

	if err := fsys.Remove(file, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := fsys.ReadTextFile(file); !errors.Is(err, ErrNotExist) {
		t.Errorf("ReadTextFile after Remove err = %v, want ErrNotExist", err)
	}

	if err := fsys.Remove(filepath.Join(root, "translation"), true); err != nil {
		t.Fatalf("recursive Remove: %v", err)
	}
	if _, err := fsys.ReadDir(filepath.Join(root, "translation")); !errors.Is(err, ErrNotExist) {
		t.Errorf("ReadDir after Remove err = %v, want ErrNotExist", err)
	}
}

func TestOS(t *testing.T) {
	exercise(t, OS{}, t.TempDir())
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory(), "/project")
}

func TestMemoryMissingFile(t *testing.T) {
	m := NewMemory()
	if _, err := m.ReadTextFile("/nope.txt"); !errors.Is(err, ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
	if err := m.Remove("/nope.txt", false); !errors.Is(err, ErrNotExist) {
		t.Errorf("Remove err = %v, want ErrNotExist", err)
	}
}
