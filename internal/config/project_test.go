package config

import (
	"testing"

	"rpgm-translator/internal/fsio"

	"github.com/google/go-cmp/cmp"
)

func TestLoadProjectDefaults(t *testing.T) {
	p, err := LoadProject(fsio.NewMemory(), "/game")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if got := p.ColumnName(1); got != "Translation" {
		t.Errorf("ColumnName(1) = %q, want %q", got, "Translation")
	}
	if got := p.TranslationPath(); got != "/game/.rpgmtranslate/translation" {
		t.Errorf("TranslationPath = %q", got)
	}
}

func TestProjectSaveLoad(t *testing.T) {
	fsys := fsio.NewMemory()

	p := DefaultProject("/game")
	p.TargetLanguage = "ru"
	p.ProjectContext = "Fantasy RPG"
	p.FileContexts["system.txt"] = "UI labels"
	if n := p.AddColumn("Edited", 0); n != 2 {
		t.Fatalf("AddColumn = %d, want 2", n)
	}

	if err := p.Save(fsys); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadProject(fsys, "/game")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if diff := cmp.Diff(p, loaded); diff != "" {
		t.Errorf("loaded project mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnNameFallback(t *testing.T) {
	p := DefaultProject("/game")
	if got := p.ColumnName(4); got != "Translation 4" {
		t.Errorf("ColumnName(4) = %q, want %q", got, "Translation 4")
	}
}

func TestLoadProjectInvalidYAML(t *testing.T) {
	fsys := fsio.NewMemory()
	p := DefaultProject("/game")
	if err := fsys.WriteTextFile(p.SettingsPath(), "columns: [unclosed"); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProject(fsys, "/game"); err == nil {
		t.Error("LoadProject with invalid YAML err = nil, want error")
	}
}
