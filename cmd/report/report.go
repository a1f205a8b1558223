// Package report implements the report command for re-rendering saved analysis runs.
package report

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/cmd/internal/cli"
	"github.com/joshsymonds/controlgap/internal/pipeline"
	"github.com/joshsymonds/controlgap/internal/report"
	"github.com/joshsymonds/controlgap/internal/storage"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// Options represents report command options.
type Options struct {
	RunPath   string
	OutputDir string
	Formats   string
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports from a saved analysis run",
		Long: `Re-render reports from a run saved by "controlgap analyze" without reading
the input files again. Reports keep the run's original timestamp in their names.`,
		Example: `  controlgap report --run latest
  controlgap report --run output/runs/2024-01-15-140000 --format pdf
  controlgap report --format sarif,metrics --output exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.RunPath, "run", "latest", "Run directory to render (or 'latest')")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Output directory (defaults to output.dir)")
	cmd.Flags().StringVarP(&opts.Formats, "format", "f", "", "Comma-separated report formats (defaults to output.formats)")

	return cmd
}

func run(cmd *cobra.Command, opts *Options) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	store := storage.NewStorage(cfg.Output.Dir)
	runPath, err := store.ResolveRun(opts.RunPath)
	if errors.Is(err, storage.ErrNoRuns) {
		return fmt.Errorf("no saved runs in %s; run 'controlgap analyze' first", store.RunsDir())
	}
	if err != nil {
		return fmt.Errorf("resolving run: %w", err)
	}
	if opts.RunPath == "" || opts.RunPath == "latest" {
		logger.Info("Using latest run", "path", runPath)
	}

	saved, err := store.LoadRun(runPath)
	if err != nil {
		return fmt.Errorf("loading run: %w", err)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	formats := cli.ParseFormats(opts.Formats)
	if len(formats) == 0 {
		formats = cfg.Output.Formats
	}

	logger.Info("Generating reports",
		"run", filepath.Base(runPath),
		"formats", formats,
		"output", outputDir,
	)

	renderer := report.NewRenderer()
	renderer.SetCSVOptions(report.CSVOptions{SanitizeFormulas: cfg.Output.SanitizeCSV})
	paths, err := renderer.Render(pipeline.DocumentFromRun(saved), outputDir, formats)
	if err != nil {
		return fmt.Errorf("rendering reports: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		fmt.Fprintf(out, "📄 %s\n", path)
	}
	return nil
}
