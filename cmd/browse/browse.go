// Package browse implements the interactive findings browser command.
package browse

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/cmd/internal/cli"
	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/internal/pipeline"
	"github.com/joshsymonds/controlgap/internal/storage"
	"github.com/joshsymonds/controlgap/internal/ui"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// Options represents browse command options.
type Options struct {
	RunPath string
	DataDir string
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse findings interactively",
		Long: `Open a terminal browser over the findings of a saved run, or of a fresh
analysis of the input files when --run is not given. Nothing is written.`,
		Example: `  controlgap browse
  controlgap browse --run latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			browser, err := newBrowser(cfg, opts)
			if err != nil {
				return err
			}
			return browser.Run()
		},
	}

	cmd.Flags().StringVar(&opts.RunPath, "run", "", "Saved run to browse (directory or 'latest')")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "Directory holding the input files (overrides data.dir)")

	return cmd
}

func newBrowser(cfg *config.Config, opts *Options) (ui.Browser, error) {
	if opts.RunPath == "" {
		if opts.DataDir != "" {
			cfg.Data.Dir = opts.DataDir
		}
		result, err := pipeline.NewPipeline(cfg).Analyze()
		if err != nil {
			return ui.Browser{}, err
		}
		return ui.NewBrowser(cfg.Title(), result.Findings, result.Edges), nil
	}

	store := storage.NewStorage(cfg.Output.Dir)
	runPath, err := store.ResolveRun(opts.RunPath)
	if err != nil {
		return ui.Browser{}, fmt.Errorf("resolving run: %w", err)
	}
	saved, err := store.LoadRun(runPath)
	if err != nil {
		return ui.Browser{}, fmt.Errorf("loading run: %w", err)
	}
	logger.Debug("Browsing saved run", "path", runPath)

	title := saved.Metadata.Title
	if title == "" {
		title = cfg.Title()
	}
	return ui.NewBrowser(title, saved.Findings, saved.Edges), nil
}
