package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"rpgm-translator/internal/replace"
	"rpgm-translator/internal/row"
	"rpgm-translator/internal/search"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	mode          string
	column        int
	wholeWord     bool
	caseSensitive bool
	regexp        bool
	tab           string
	onlyTab       bool
}

func (o *searchOptions) register(cmd *cobra.Command, withMode bool) {
	if withMode {
		cmd.Flags().StringVar(&o.mode, "mode", "all", "Where to search: all, source or translation")
	}
	cmd.Flags().IntVar(&o.column, "column", search.AnyColumn, "Translation column number, -1 for any")
	cmd.Flags().BoolVarP(&o.wholeWord, "whole-word", "w", false, "Match whole words only")
	cmd.Flags().BoolVarP(&o.caseSensitive, "case-sensitive", "c", false, "Match case")
	cmd.Flags().BoolVarP(&o.regexp, "regexp", "r", false, "Treat the text as a regular expression")
	cmd.Flags().StringVar(&o.tab, "tab", "", "Tab to open before searching")
	cmd.Flags().BoolVar(&o.onlyTab, "only-tab", false, "Search only the open tab")
}

func (o *searchOptions) flags() search.Flags {
	var f search.Flags
	if o.wholeWord {
		f |= search.WholeWord
	}
	if o.caseSensitive {
		f |= search.CaseSensitive
	}
	if o.regexp {
		f |= search.RegExp
	}
	if o.onlyTab {
		f |= search.OnlyCurrentTab
	}
	return f
}

func parseMode(s string) (search.Mode, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return search.ModeAll, nil
	case "source":
		return search.ModeSource, nil
	case "translation":
		return search.ModeTranslation, nil
	}
	return 0, fmt.Errorf("unknown search mode %q", s)
}

// runSearch opens the requested tab and runs one search over the project.
func (a *app) runSearch(ctx context.Context, text string, o *searchOptions, action search.Action) (*search.Results, *row.Tab, error) {
	mode, err := parseMode(o.mode)
	if err != nil {
		return nil, nil, err
	}
	if o.onlyTab && o.tab == "" {
		return nil, nil, fmt.Errorf("--only-tab requires --tab")
	}

	a.saver.Wait()

	var tab *row.Tab
	if o.tab != "" {
		if tab, err = a.walker.LoadTab(o.tab); err != nil {
			return nil, nil, err
		}
	}

	knownTabs, err := a.walker.Tabs()
	if err != nil {
		return nil, nil, err
	}
	if tab != nil {
		knownTabs[tab.Name] = true
	}

	searcher := search.NewSearcher(a.fs, a.project)
	searcher.SetPageSize(a.cfg.MaxFileMatches)

	results, err := searcher.Search(ctx, search.Request{
		Text:      text,
		Flags:     o.flags(),
		Mode:      mode,
		Action:    action,
		Column:    o.column,
		Tab:       tab,
		KnownTabs: knownTabs,
	})
	if err != nil {
		return nil, nil, err
	}
	return results, tab, nil
}

func (a *app) searchCmd() *cobra.Command {
	o := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the corpus and write match pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			results, _, err := a.runSearch(ctx, args[0], o, search.ActionSearch)
			if err != nil {
				return err
			}

			if results.Matches == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d matches in %d pages under %s\n", results.Matches, results.Pages, a.project.MatchesPath())
			return nil
		},
	}
	o.register(cmd, true)
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [page]",
		Short: "Print a match page written by the last search",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid page %q", args[0])
				}
				page = n
			}

			entries, err := search.ReadPage(a.fs, a.project.MatchesPath(), page)
			if err != nil {
				return err
			}
			renderPage(cmd.OutOrStdout(), page, entries)
			return nil
		},
	}
}

func (a *app) replaceCmd() *cobra.Command {
	o := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "replace <text> <replacement>",
		Short: "Replace matches in translation cells",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReplace(cmd, args[0], args[1], o, search.ActionReplace)
		},
	}
	o.register(cmd, false)
	return cmd
}

func (a *app) putCmd() *cobra.Command {
	o := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "put <source> <translation>",
		Short: "Set the translation of every row whose source matches exactly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReplace(cmd, args[0], args[1], o, search.ActionPut)
		},
	}
	o.register(cmd, false)
	return cmd
}

func (a *app) runReplace(cmd *cobra.Command, text, replacement string, o *searchOptions, action search.Action) error {
	ctx, cancel := setupContext()
	defer cancel()

	results, tab, err := a.runSearch(ctx, text, o, action)
	if err != nil {
		return err
	}
	if len(results.Rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches")
		return nil
	}

	replacer := replace.NewReplacer(a.fs, a.walker)
	report, replaceErr := replacer.ReplaceAll(ctx, results, tab, replacement)
	if replaceErr != nil {
		log.Error().Err(replaceErr).Msg("Some cells could not be replaced")
	}

	if tab != nil {
		err = a.saver.SaveAll(tab)
	} else {
		err = a.walker.MergeMaps()
	}
	if err != nil {
		return err
	}

	if err := replacer.WriteLog(a.project.LogPath()); err != nil {
		return err
	}

	for file, delta := range report.Translated {
		if delta != 0 {
			log.Info().Str("file", file).Int("translated", delta).Msg("Translation progress changed")
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cells changed\n", action, report.Cells)
	return replaceErr
}
