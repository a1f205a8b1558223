// Package main is the entry point for the controlgap CLI. controlgap reconciles
// regulatory requirements, an implemented-controls catalogue and a control
// mapping matrix into a prioritized gap analysis, then renders it as reports.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/cmd/analyze"
	"github.com/joshsymonds/controlgap/cmd/browse"
	"github.com/joshsymonds/controlgap/cmd/config"
	"github.com/joshsymonds/controlgap/cmd/internal/cli"
	"github.com/joshsymonds/controlgap/cmd/list"
	"github.com/joshsymonds/controlgap/cmd/report"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		debug     bool
		logFormat string
	)

	root := &cobra.Command{
		Use:   "controlgap",
		Short: "🔍 Compliance control gap analysis",
		Long: `controlgap reconciles a requirements list (NIS2, ISO 27001, ...), the
implemented-controls catalogue and a control mapping matrix into one finding
per requirement with a status and a risk priority, then renders Markdown, PDF,
CSV, JSON, SARIF, remediation and metrics reports.`,
		Example: `  controlgap config init
  controlgap analyze --format markdown,pdf
  controlgap list
  controlgap report --run latest --format sarif`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.SetupLogger(debug, logFormat)
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	root.PersistentFlags().StringP(cli.ConfigFlag, "c", "", "Configuration file (defaults to ./controlgap.yaml when present)")

	root.AddCommand(
		analyze.NewAnalyzeCommand(),
		report.NewReportCommand(),
		list.NewListCommand(),
		browse.NewBrowseCommand(),
		config.NewConfigCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "controlgap version %s (built %s)\n", version, buildTime)
		},
	}
}
