package cli

import (
	"fmt"
	"sort"
	"time"

	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/glossary"
	"rpgm-translator/internal/rag"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) mapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maps",
		Short: "Split or merge the combined maps file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "split",
		Short: "Split maps.txt into one temp map per map",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.saver.Wait()

			tabs, bookmarks, err := a.walker.SplitMaps()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d temp maps\n", len(tabs))
			printBookmarks(cmd, bookmarks)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "merge",
		Short: "Merge temp maps back into maps.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.saver.Wait()

			if err := a.walker.MergeMaps(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Merged temp maps")
			return nil
		},
	})

	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var bookmarks bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show translation progress per tab",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.saver.Wait()

			progress, err := a.walker.Progress()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(progress))
			for name := range progress {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			var total corpus.Progress
			for _, name := range names {
				p := progress[name]
				total.Total += p.Total
				total.Translated += p.Translated
				fmt.Fprintf(out, "%-24s %6d / %-6d %6.2f%%\n", name, p.Translated, p.Total, p.Percent())
			}
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Total: %d / %d (%.2f%%)", total.Translated, total.Total, total.Percent())))

			if bookmarks {
				found, err := a.collectBookmarks()
				if err != nil {
					return err
				}
				printBookmarks(cmd, found)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&bookmarks, "bookmarks", false, "Also list bookmarks")
	return cmd
}

func (a *app) collectBookmarks() ([]corpus.Bookmark, error) {
	files, err := a.walker.Files("")
	if err != nil {
		return nil, err
	}

	var bookmarks []corpus.Bookmark
	for _, f := range files {
		content, err := a.fs.ReadTextFile(f.Path)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("Failed to read file, skipping")
			continue
		}
		bookmarks = append(bookmarks, corpus.Bookmarks(corpus.TabName(f.Name), content)...)
	}
	return bookmarks, nil
}

func printBookmarks(cmd *cobra.Command, bookmarks []corpus.Bookmark) {
	out := cmd.OutOrStdout()
	for _, b := range bookmarks {
		fmt.Fprintf(out, "%s %s\n", keyStyle.Render(fmt.Sprintf("%s-%d", b.File, b.Row)), b.Description)
	}
}

func (a *app) backupCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the translation files into a timestamped backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.saver.Wait()

			dest, err := a.saver.Backup(time.Now(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", dest)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "Number of backups to keep, 0 keeps all")
	return cmd
}

func (a *app) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Index translated rows into the translation memory and sync the glossary graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			if a.cfg.EmbeddingAPIKey == "" {
				return fmt.Errorf("EMBEDDING_API_KEY is not set")
			}

			ctx, cancel := setupContext()
			defer cancel()

			deps, err := initDependencies(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			embedder := rag.NewEmbeddingClient(a.cfg.EmbeddingAPIKey, a.cfg.EmbeddingModel, a.cfg.EmbeddingBaseURL, a.cfg.EmbeddingDimensions)
			store := rag.NewVectorStore(deps.pool)
			if err := store.EnsureSchema(ctx, embedder.Dimensions()); err != nil {
				return err
			}

			a.saver.Wait()
			ix := rag.NewIndexer(a.fs, a.walker, embedder, store, a.cfg.WorkerCount, a.cfg.BatchSize)

			if deps.driver != nil {
				graph := glossary.NewGraphStore(deps.driver)
				if err := graph.EnsureSchema(ctx); err != nil {
					return err
				}

				g, err := glossary.LoadFile(a.fs, a.project.GlossaryPath())
				if err != nil {
					return err
				}
				if err := graph.Upsert(ctx, g.Terms()); err != nil {
					return err
				}
				log.Info().Int("terms", g.Len()).Msg("Glossary graph synced")
				ix.SetGraph(graph)
			}

			start := time.Now()
			stored, err := ix.Index(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Some batches failed to index")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d rows in %s\n", stored, time.Since(start).Round(time.Millisecond))
			return err
		},
	}
}

func (a *app) glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the project glossary",
	}

	var note string
	add := &cobra.Command{
		Use:   "add <source> <translation>",
		Short: "Add or replace a glossary term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := glossary.LoadFile(a.fs, a.project.GlossaryPath())
			if err != nil {
				return err
			}

			g.Add(glossary.Term{Source: args[0], Translation: args[1], Note: note})
			if err := g.SaveFile(a.fs, a.project.GlossaryPath()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Glossary has %d terms\n", g.Len())
			return nil
		},
	}
	add.Flags().StringVar(&note, "note", "", "Usage note shown to the translator")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List glossary terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := glossary.LoadFile(a.fs, a.project.GlossaryPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range g.Terms() {
				line := keyStyle.Render(t.Source) + " → " + t.Translation
				if t.Note != "" {
					line += counterpartStyle.Render(" (" + t.Note + ")")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	})

	return cmd
}
