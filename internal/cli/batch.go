package cli

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"rpgm-translator/internal/batch"
	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/translation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type batchOptions struct {
	column int
	limit  int
	from   string
	to     string
	all    bool
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Trim, wrap or machine-translate a translation column across files",
	}

	for _, action := range []batch.Action{batch.ActionTrim, batch.ActionWrap, batch.ActionTranslate} {
		cmd.AddCommand(a.batchActionCmd(action))
	}
	return cmd
}

func (a *app) batchActionCmd(action batch.Action) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   action.String() + " [tabs...]",
		Short: fmt.Sprintf("Run %s over the given tabs", action),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.batchTargets(args, o.all)
			if err != nil {
				return err
			}

			opts := batch.Options{
				Action: action,
				Column: o.column,
				Limit:  o.limit,
				From:   o.from,
				To:     o.to,
			}
			if opts.Limit == 0 {
				opts.Limit = a.project.LineLengthHint
			}
			if opts.From == "" {
				opts.From = a.project.SourceLanguage
			}
			if opts.To == "" {
				opts.To = a.project.TargetLanguage
			}

			ctx, cancel := setupContext()
			defer cancel()

			var translator translation.Translator
			if action == batch.ActionTranslate {
				if _, _, err := translation.ParseLanguages(opts.From, opts.To); err != nil {
					return err
				}

				deps, err := initDependencies(ctx, a.cfg)
				if err != nil {
					return err
				}
				defer deps.Close(ctx)

				if translator, err = a.newTranslator(ctx, deps); err != nil {
					return err
				}
			}

			a.saver.Wait()

			log.Info().Str("action", action.String()).Int("column", opts.Column).Int("files", len(names)).Msg("Starting batch")
			rw := batch.NewRewriter(translator, a.cfg.MaxConcurrentAPICalls)
			rewriteErr := rw.RewriteFiles(ctx, a.fs, a.walker, names, opts)

			if slices.ContainsFunc(names, corpus.IsMapTab) {
				if err := a.walker.MergeMaps(); err != nil {
					return errors.Join(rewriteErr, err)
				}
			}
			if rewriteErr != nil {
				return rewriteErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: processed %d files\n", action, len(names))
			return nil
		},
	}

	cmd.Flags().IntVar(&o.column, "column", 1, "Translation column number")
	cmd.Flags().BoolVar(&o.all, "all", false, "Process every tab of the project")
	switch action {
	case batch.ActionWrap:
		cmd.Flags().IntVar(&o.limit, "limit", 0, "Line length limit (defaults to the project hint)")
	case batch.ActionTranslate:
		cmd.Flags().StringVar(&o.from, "from", "", "Source language (defaults to the project setting)")
		cmd.Flags().StringVar(&o.to, "to", "", "Target language (defaults to the project setting)")
	}
	return cmd
}

func (a *app) batchTargets(args []string, all bool) ([]string, error) {
	if !all {
		if len(args) == 0 {
			return nil, fmt.Errorf("no tabs given, pass tab names or --all")
		}
		return args, nil
	}

	tabs, err := a.walker.Tabs()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tabs))
	for name := range tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
