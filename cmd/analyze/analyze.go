// Package analyze implements the analyze command, which runs a gap analysis
// over the configured dataset and renders its reports.
package analyze

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/cmd/internal/cli"
	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/internal/pipeline"
	"github.com/joshsymonds/controlgap/internal/publish"
	"github.com/joshsymonds/controlgap/internal/ui"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// summaryWidth is the width of the terminal summary box.
const summaryWidth = 100

// Options represents analyze command options.
type Options struct {
	DataDir   string
	OutputDir string
	Formats   string
	Timeout   time.Duration
	Publish   bool
	NoSave    bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a gap analysis and generate reports",
		Long: `Reconcile the requirements list, the implemented-controls catalogue and the
control mapping matrix into one finding per requirement, then render the
configured report formats.

Each run is saved under <output>/runs so reports can be regenerated later with
"controlgap report".`,
		Example: `  # Analyze using controlgap.yaml or the default data/ layout
  controlgap analyze

  # Read inputs from another directory and render selected formats
  controlgap analyze --data-dir audits/2024 --format markdown,sarif

  # Upload the rendered reports to the configured S3 bucket
  controlgap analyze --config acme.yaml --publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "Directory holding the input files (overrides data.dir)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Output directory (overrides output.dir)")
	cmd.Flags().StringVarP(&opts.Formats, "format", "f", "", "Comma-separated report formats (overrides output.formats)")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "Upload reports to the configured S3 bucket")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "Do not save the run for later re-rendering")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "Timeout for publishing reports")

	return cmd
}

func run(cmd *cobra.Command, opts *Options) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if opts.DataDir != "" {
		cfg.Data.Dir = opts.DataDir
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg)
	if opts.Publish {
		pub, err := newPublisher(ctx, cfg)
		if err != nil {
			return err
		}
		p.SetPublisher(pub)
	}

	logger.Info("Starting gap analysis", "project", cfg.Project.Name, "data", cfg.Data.Dir)

	outcome, err := p.Run(ctx, pipeline.Options{
		OutputDir: opts.OutputDir,
		Formats:   cli.ParseFormats(opts.Formats),
		NoSave:    opts.NoSave,
		Publish:   opts.Publish,
	})
	if outcome != nil {
		printOutcome(cmd.OutOrStdout(), outcome)
	}
	return err
}

func newPublisher(ctx context.Context, cfg *config.Config) (*publish.S3Publisher, error) {
	if !cfg.PublishEnabled() {
		return nil, fmt.Errorf("--publish requires publish.s3 in the configuration")
	}
	pub, err := publish.NewS3Publisher(ctx, *cfg.Publish.S3, logger.GetGlobalLogger())
	if err != nil {
		return nil, fmt.Errorf("creating S3 publisher: %w", err)
	}
	return pub, nil
}

func printOutcome(w io.Writer, outcome *pipeline.Outcome) {
	doc := outcome.Document
	fmt.Fprintln(w, ui.RenderSummary(doc.Findings, doc.Summary, summaryWidth))

	if len(outcome.Reports) > 0 {
		fmt.Fprintln(w, "\n📄 Reports:")
		for _, path := range outcome.Reports {
			fmt.Fprintf(w, "   %s\n", path)
		}
	}
	if outcome.RunDir != "" {
		fmt.Fprintf(w, "\n💾 Run saved: %s\n", outcome.RunDir)
	}
	if len(outcome.Published) > 0 {
		fmt.Fprintf(w, "\n☁️  Published %d files\n", len(outcome.Published))
	}
}
