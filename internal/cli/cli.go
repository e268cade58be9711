package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/corpus"
	"rpgm-translator/internal/fsio"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the state shared by every command of one invocation.
type app struct {
	projectDir string
	verbose    bool

	fs      fsio.FS
	cfg     *config.Config
	project *config.Project
	walker  *corpus.Walker
	saver   *corpus.Saver
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd(fsio.OS{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fsys fsio.FS) *cobra.Command {
	a := &app{fs: fsys}

	rootCmd := &cobra.Command{
		Use:          "rpgm-translator",
		Short:        "Search, replace and batch-edit RPG Maker translation files",
		Long:         "A toolkit for RPG Maker translation projects: search and replace across the corpus, batch trim, wrap and machine translation, and a translation memory for consistent terminology.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if a.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.projectDir, "project", "p", ".", "Game project root directory")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(a.searchCmd())
	rootCmd.AddCommand(a.showCmd())
	rootCmd.AddCommand(a.replaceCmd())
	rootCmd.AddCommand(a.putCmd())
	rootCmd.AddCommand(a.batchCmd())
	rootCmd.AddCommand(a.mapsCmd())
	rootCmd.AddCommand(a.statsCmd())
	rootCmd.AddCommand(a.backupCmd())
	rootCmd.AddCommand(a.ingestCmd())
	rootCmd.AddCommand(a.glossaryCmd())

	return rootCmd
}

// load reads configuration and project settings.
func (a *app) load() error {
	root, err := filepath.Abs(a.projectDir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}

	a.cfg = config.Load()
	a.project, err = config.LoadProject(a.fs, root)
	if err != nil {
		return err
	}
	a.walker = corpus.NewWalker(a.fs, a.project)
	a.saver = corpus.NewSaver(a.fs, a.walker)

	log.Debug().Str("project", root).Msg("Loaded project")
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}
