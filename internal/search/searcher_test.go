package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/fsio"
	"rpgm-translator/internal/row"

	"github.com/google/go-cmp/cmp"
)

type fixture struct {
	fs      *fsio.Memory
	project *config.Project
	walker  *corpus.Walker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fsys := fsio.NewMemory()
	project := config.DefaultProject("/game")
	f := &fixture{fs: fsys, project: project, walker: corpus.NewWalker(fsys, project)}

	f.write(t, "system", strings.Join([]string{
		"<!-- System Entry --><#>1",
		"New Game<#>Новая игра",
		"Continue<#>",
	}, "\n"))
	f.write(t, "map1", strings.Join([]string{
		"<!-- Map ID --><#>1",
		"Hello there<#>Привет",
		"<!-- Map ID --><#>2",
		`Hello again<#>Снова\#привет`,
	}, "\n"))
	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	if err := f.fs.WriteTextFile(f.walker.Path(name), content); err != nil {
		t.Fatal(err)
	}
}

func itemsTab() *row.Tab {
	return &row.Tab{
		Name: "items",
		Rows: []*row.LiveRow{
			row.NewLiveRow("Potion heals", "Зелье лечит"),
			row.NewLiveRow("Hello potion", ""),
		},
	}
}

func readAllPages(t *testing.T, f *fixture, pages int) []PageEntry {
	t.Helper()
	var all []PageEntry
	for n := 1; n <= pages; n++ {
		entries, err := ReadPage(f.fs, f.project.MatchesPath(), n)
		if err != nil {
			t.Fatalf("ReadPage(%d): %v", n, err)
		}
		all = append(all, entries...)
	}
	return all
}

func keys(entries []PageEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestSearchOnlyCurrentTab(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{
		Text:   "hello",
		Flags:  OnlyCurrentTab,
		Column: AnyColumn,
		Tab:    itemsTab(),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	got := keys(readAllPages(t, f, res.Pages))
	want := []string{"items -  - source - Source (0) - 2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchTabRowNumbersFollowFileLines(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	tab, malformed := row.ParseTab("items", "Potion<#>Зелье\nbroken hello\n\nHello potion<#>")
	if len(malformed) != 1 {
		t.Fatalf("malformed = %v, want one line", malformed)
	}

	res, err := s.Search(context.Background(), Request{
		Text:   "hello",
		Flags:  OnlyCurrentTab,
		Column: AnyColumn,
		Tab:    tab,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	got := keys(readAllPages(t, f, res.Pages))
	want := []string{"items -  - source - Source (0) - 4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchGlobal(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{
		Text:   "hello",
		Column: AnyColumn,
		Tab:    itemsTab(),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	entries := readAllPages(t, f, res.Pages)
	want := []string{
		"items -  - source - Source (0) - 2",
		"map1 - 1 - source - Source (0) - 2",
		"map1 - 2 - source - Source (0) - 4",
	}
	if diff := cmp.Diff(want, keys(entries)); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	last := entries[2]
	if last.Text != `<span class="bg-third">Hello</span> again` {
		t.Errorf("Text = %q", last.Text)
	}
	if last.CounterpartKey != "map1 - 2 - translation - Translation (1) - 4" {
		t.Errorf("CounterpartKey = %q", last.CounterpartKey)
	}
	if last.CounterpartText != "Снова\nпривет" {
		t.Errorf("CounterpartText = %q", last.CounterpartText)
	}
}

func TestSearchTranslationMode(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{
		Text:   "игра",
		Mode:   ModeTranslation,
		Column: 1,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	entries := readAllPages(t, f, res.Pages)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Key != "system - 1 - translation - Translation (1) - 2" {
		t.Errorf("Key = %q", entries[0].Key)
	}
	if entries[0].CounterpartKey != "system - 1 - source - Source (0) - 2" || entries[0].CounterpartText != "New Game" {
		t.Errorf("counterpart = %q / %q", entries[0].CounterpartKey, entries[0].CounterpartText)
	}
}

func TestSearchSourceModeSkipsTranslations(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{Text: "привет", Mode: ModeSource, Column: AnyColumn})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Pages != 0 || res.Matches != 0 {
		t.Errorf("Pages = %d, Matches = %d, want 0", res.Pages, res.Matches)
	}
}

func TestReplaceAndPutKeys(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)
	ctx := context.Background()

	res, err := s.Search(ctx, Request{Text: "привет", Action: ActionReplace, Column: AnyColumn, Tab: itemsTab()})
	if err != nil {
		t.Fatalf("replace search: %v", err)
	}
	want := map[ResultKey][]int{
		{File: "map1.txt", Entry: "1", Column: 1}: {2},
		{File: "map1.txt", Entry: "2", Column: 1}: {4},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("replace rows mismatch (-want +got):\n%s", diff)
	}
	if res.Pages != 0 {
		t.Errorf("replace Pages = %d, want 0", res.Pages)
	}

	res, err = s.Search(ctx, Request{Text: "зелье лечит", Action: ActionReplace, Column: AnyColumn, Tab: itemsTab(), Flags: OnlyCurrentTab})
	if err != nil {
		t.Fatalf("tab replace search: %v", err)
	}
	want = map[ResultKey][]int{{File: "items", Entry: "", Column: 1}: {1}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("tab replace rows mismatch (-want +got):\n%s", diff)
	}

	res, err = s.Search(ctx, Request{Text: "continue", Action: ActionPut, Column: AnyColumn})
	if err != nil {
		t.Fatalf("put search: %v", err)
	}
	want = map[ResultKey][]int{{File: "system.txt", Entry: "1", Column: 1}: {3}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("put rows mismatch (-want +got):\n%s", diff)
	}
	if got := (ResultKey{File: "system.txt", Entry: "1", Column: 1}).String(); got != "system.txt-1-1" {
		t.Errorf("ResultKey.String = %q", got)
	}
}

func TestReplaceSkipsSource(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{Text: "continue", Action: ActionReplace, Column: AnyColumn})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("Rows = %v, want none", res.Rows)
	}
}

func TestSearchUnknownMapStopsFile(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{
		Text:      "привет",
		Action:    ActionReplace,
		Column:    AnyColumn,
		KnownTabs: map[string]bool{"map1": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[ResultKey][]int{{File: "map1.txt", Entry: "1", Column: 1}: {2}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPagination(t *testing.T) {
	for _, total := range []int{0, 1, 3, 6, 7, 10} {
		t.Run(fmt.Sprint(total), func(t *testing.T) {
			f := newFixture(t)
			s := NewSearcher(f.fs, f.project)
			s.SetPageSize(3)

			// Split matches between the tab and a corpus file so pages
			// are flushed at more than one point.
			tab := &row.Tab{Name: "items"}
			var lines []string
			for i := 0; i < total; i++ {
				if i%2 == 0 {
					tab.Rows = append(tab.Rows, row.NewLiveRow(fmt.Sprintf("needle %d", i), ""))
				} else {
					lines = append(lines, fmt.Sprintf("needle %d<#>", i))
				}
			}
			f.write(t, "troops", strings.Join(lines, "\n"))

			res, err := s.Search(context.Background(), Request{Text: "needle", Mode: ModeSource, Column: AnyColumn, Tab: tab})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}

			wantPages := (total + 2) / 3
			if res.Pages != wantPages {
				t.Errorf("Pages = %d, want %d", res.Pages, wantPages)
			}
			if res.Matches != total {
				t.Errorf("Matches = %d, want %d", res.Matches, total)
			}

			var want []string
			for i := 0; i < len(tab.Rows); i++ {
				want = append(want, fmt.Sprintf("needle %d", 2*i))
			}
			for i := 0; i < len(lines); i++ {
				want = append(want, fmt.Sprintf("needle %d", 2*i+1))
			}

			var got []string
			for _, e := range readAllPages(t, f, res.Pages) {
				got = append(got, strings.ReplaceAll(strings.ReplaceAll(e.Text, `<span class="bg-third">`, ""), "</span>", ""))
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("concatenated pages mismatch (-want +got):\n%s", diff)
			}

			if _, err := f.fs.ReadTextFile(filepath.Join(f.project.MatchesPath(), PageName(wantPages+1))); !errors.Is(err, fsio.ErrNotExist) {
				t.Errorf("unexpected extra page %d", wantPages+1)
			}
		})
	}
}

func TestSearchRemovesOldPages(t *testing.T) {
	f := newFixture(t)
	stale := filepath.Join(f.project.MatchesPath(), PageName(7))
	if err := f.fs.WriteTextFile(stale, "[]"); err != nil {
		t.Fatal(err)
	}

	s := NewSearcher(f.fs, f.project)
	if _, err := s.Search(context.Background(), Request{Text: "hello", Column: AnyColumn}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.fs.ReadTextFile(stale); !errors.Is(err, fsio.ErrNotExist) {
		t.Errorf("stale page still present, err = %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("State = %v, want idle", s.State())
	}
}

func TestStateDuringSearch(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)
	s.SetPageSize(1)

	done := make(chan struct{})
	seen := make(chan State, 1)
	go func() {
		defer close(seen)
		for {
			select {
			case <-done:
				return
			default:
			}
			if st := s.State(); st != StateIdle && st != StateSearching && st != StatePaginating {
				seen <- st
				return
			}
		}
	}()

	for i := 0; i < 20; i++ {
		if _, err := s.Search(context.Background(), Request{Text: "hello", Column: AnyColumn, Tab: itemsTab()}); err != nil {
			t.Fatal(err)
		}
	}
	close(done)

	if st, ok := <-seen; ok {
		t.Errorf("State = %v during search, want a known phase", st)
	}
	if s.State() != StateIdle {
		t.Errorf("State = %v after search, want idle", s.State())
	}
}

func TestSearchInvalidPattern(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{Text: "[", Flags: RegExp})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("err = %v, want ErrInvalidPattern", err)
	}
	if res == nil || res.Pages != 0 || len(res.Rows) != 0 {
		t.Errorf("res = %+v, want empty", res)
	}
}

func TestSearchEmptyText(t *testing.T) {
	f := newFixture(t)
	s := NewSearcher(f.fs, f.project)

	res, err := s.Search(context.Background(), Request{Text: "  "})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.Pattern != nil || res.Pages != 0 {
		t.Errorf("res = %+v, want empty", res)
	}
}

func TestSearchMissingTranslationDirAborts(t *testing.T) {
	fsys := fsio.NewMemory()
	project := config.DefaultProject("/empty")
	s := NewSearcher(fsys, project)

	if _, err := s.Search(context.Background(), Request{Text: "x"}); err == nil {
		t.Error("Search err = nil, want listing error")
	}
}
