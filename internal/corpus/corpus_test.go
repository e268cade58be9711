package corpus

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"

	"github.com/google/go-cmp/cmp"
)

func newProject(t *testing.T) (*fsio.Memory, *Walker) {
	t.Helper()
	fsys := fsio.NewMemory()
	project := config.DefaultProject("/game")
	return fsys, NewWalker(fsys, project)
}

func write(t *testing.T, fsys fsio.FS, path, content string) {
	t.Helper()
	if err := fsys.WriteTextFile(path, content); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestPath(t *testing.T) {
	_, w := newProject(t)

	tests := map[string]string{
		"map3":      "/game/.rpgmtranslate/temp-maps/map3.txt",
		"map3.txt":  "/game/.rpgmtranslate/temp-maps/map3.txt",
		"system":    "/game/.rpgmtranslate/translation/system.txt",
		"maps.txt":  "/game/.rpgmtranslate/translation/maps.txt",
		"mapinfos":  "/game/.rpgmtranslate/translation/mapinfos.txt",
		"items.txt": "/game/.rpgmtranslate/translation/items.txt",
	}
	for name, want := range tests {
		if got := w.Path(name); got != want {
			t.Errorf("Path(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestFilesOrder(t *testing.T) {
	fsys, w := newProject(t)
	write(t, fsys, w.Path("map10"), "a<#>b")
	write(t, fsys, w.Path("map2"), "a<#>b")
	write(t, fsys, w.Path("map1"), "a<#>b")
	write(t, fsys, w.Path("system"), "a<#>b")
	write(t, fsys, w.Path("items"), "a<#>b")
	write(t, fsys, w.Path("maps.txt"), "a<#>b")
	write(t, fsys, filepath.Join(w.project.TranslationPath(), "notes.md"), "x")

	files, err := w.Files("items")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"map1.txt", "map2.txt", "map10.txt", "system.txt"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesMissingTranslationDir(t *testing.T) {
	_, w := newProject(t)
	if _, err := w.Files(""); err == nil {
		t.Error("Files without translation dir err = nil, want error")
	}
}

func TestSplitAndMergeMaps(t *testing.T) {
	fsys, w := newProject(t)

	maps := strings.Join([]string{
		"<!-- Map ID --><#>1",
		"Hello<#>Привет",
		"<!-- Bookmark --><#>check this",
		"<!-- Map ID --><#>2",
		"Bye<#>",
	}, "\n")
	write(t, fsys, w.Path(MapsFile), maps+"\n")

	tabs, bookmarks, err := w.SplitMaps()
	if err != nil {
		t.Fatalf("SplitMaps: %v", err)
	}
	if diff := cmp.Diff([]string{"map1", "map2"}, tabs); diff != "" {
		t.Errorf("tabs mismatch (-want +got):\n%s", diff)
	}
	wantBookmarks := []Bookmark{{File: MapsFile, Row: 3, Description: "check this"}}
	if diff := cmp.Diff(wantBookmarks, bookmarks); diff != "" {
		t.Errorf("bookmarks mismatch (-want +got):\n%s", diff)
	}

	map2, err := fsys.ReadTextFile(w.Path("map2"))
	if err != nil {
		t.Fatalf("read map2: %v", err)
	}
	if map2 != "<!-- Map ID --><#>2\nBye<#>" {
		t.Errorf("map2 = %q", map2)
	}

	if err := fsys.Remove(w.Path(MapsFile), false); err != nil {
		t.Fatal(err)
	}
	if err := w.MergeMaps(); err != nil {
		t.Fatalf("MergeMaps: %v", err)
	}
	merged, err := fsys.ReadTextFile(w.Path(MapsFile))
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	if merged != maps {
		t.Errorf("merged = %q, want %q", merged, maps)
	}
}

func TestLoadSaveTabKeepsLines(t *testing.T) {
	fsys, w := newProject(t)
	content := "a<#>b\nMALFORMED LINE\n\nc<#>d\n"
	write(t, fsys, w.Path("items"), content)

	tab, err := w.LoadTab("items")
	if err != nil {
		t.Fatalf("LoadTab: %v", err)
	}
	if len(tab.Rows) != 5 {
		t.Fatalf("len(Rows) = %d, want 5", len(tab.Rows))
	}

	s := NewSaver(fsys, w)
	if err := s.SaveTab(tab); err != nil {
		t.Fatalf("SaveTab: %v", err)
	}
	got, err := fsys.ReadTextFile(w.Path("items"))
	if err != nil {
		t.Fatal(err)
	}
	if got != content {
		t.Errorf("saved = %q, want %q", got, content)
	}

	tab.Rows[3].Set(1, "e")
	if err := s.SaveTab(tab); err != nil {
		t.Fatalf("SaveTab: %v", err)
	}
	got, err = fsys.ReadTextFile(w.Path("items"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "a<#>b\nMALFORMED LINE\n\nc<#>e\n"; got != want {
		t.Errorf("saved = %q, want %q", got, want)
	}
}

func TestSaverSaveAll(t *testing.T) {
	fsys, w := newProject(t)
	write(t, fsys, w.Path("map1"), "<!-- Map ID --><#>1\nA<#>")
	write(t, fsys, w.Path("map2"), "<!-- Map ID --><#>2\nB<#>")

	tab, err := w.LoadTab("map2")
	if err != nil {
		t.Fatalf("LoadTab: %v", err)
	}
	tab.Rows[1].Set(1, "line one\nline two")

	s := NewSaver(fsys, w)
	if err := s.SaveAll(tab); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	s.Wait()

	got, err := fsys.ReadTextFile(w.Path(MapsFile))
	if err != nil {
		t.Fatalf("read maps: %v", err)
	}
	want := "<!-- Map ID --><#>1\nA<#>\n<!-- Map ID --><#>2\nB<#>line one\\#line two"
	if got != want {
		t.Errorf("maps.txt = %q, want %q", got, want)
	}
}

func TestBackupPrunes(t *testing.T) {
	fsys, w := newProject(t)
	write(t, fsys, w.Path("system"), "a<#>b")
	s := NewSaver(fsys, w)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var last string
	for i := 0; i < 3; i++ {
		dest, err := s.Backup(base.Add(time.Duration(i)*time.Minute), 2)
		if err != nil {
			t.Fatalf("Backup: %v", err)
		}
		last = dest
	}

	entries, err := fsys.ReadDir(w.project.BackupPath())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("backups = %d, want 2", len(entries))
	}

	copied, err := fsys.ReadTextFile(filepath.Join(last, config.TranslationDir, "system.txt"))
	if err != nil || copied != "a<#>b" {
		t.Errorf("backup copy = (%q, %v)", copied, err)
	}
}

func TestStats(t *testing.T) {
	content := strings.Join([]string{
		"<!-- Event ID --><#>1",
		"one<#>uno",
		"two<#>",
		"three<#><#>tres",
		"broken",
		"",
	}, "\n")

	got := Stats(content)
	if got != (Progress{Total: 3, Translated: 2}) {
		t.Errorf("Stats = %+v, want {Total:3 Translated:2}", got)
	}
}

func TestBookmarks(t *testing.T) {
	content := "a<#>b\n" + row.BookmarkComment + "<#>boss fight"
	got := Bookmarks("map4", content)
	want := []Bookmark{{File: "map4", Row: 2, Description: "boss fight"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Bookmarks mismatch (-want +got):\n%s", diff)
	}
}
