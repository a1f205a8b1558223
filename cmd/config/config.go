// Package config implements the config command for validating and creating
// project configuration files.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/cmd/internal/cli"
	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate or create configuration files",
	}
	cmd.AddCommand(newValidateCommand(), newInitCommand())
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Example: `  controlgap config validate
  controlgap --config acme.yaml config validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.DefaultConfigFile
			if f := cmd.Flag(cli.ConfigFlag); f != nil && f.Value.String() != "" {
				path = f.Value.String()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔍 Validating configuration: %s\n\n", path)

			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}

			printValidationResults(out, cfg)
			fmt.Fprintln(out, "\n✅ Configuration is valid!")
			return nil
		},
	}
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with the default settings",
		Example: `  controlgap config init
  controlgap config init configs/acme.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Default().Save(path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			logger.Info("Wrote configuration", "file", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func printValidationResults(out io.Writer, cfg *config.Config) {
	paths := cfg.DatasetPaths()

	fmt.Fprintln(out, "📋 Project:")
	fmt.Fprintf(out, "   Name: %s\n", cfg.Project.Name)
	fmt.Fprintf(out, "   Title: %s\n", cfg.Title())

	fmt.Fprintln(out, "\n📂 Inputs:")
	fmt.Fprintf(out, "   Requirements: %s\n", paths.Requirements)
	fmt.Fprintf(out, "   Controls: %s\n", paths.Controls)
	fmt.Fprintf(out, "   Mapping: %s\n", paths.Mapping)

	fmt.Fprintln(out, "\n📄 Output:")
	fmt.Fprintf(out, "   Directory: %s\n", cfg.Output.Dir)
	fmt.Fprintf(out, "   Formats: %s\n", strings.Join(cfg.Output.Formats, ", "))

	if s3 := cfg.Publish.S3; s3 != nil {
		fmt.Fprintln(out, "\n☁️  Publishing:")
		fmt.Fprintf(out, "   Bucket: s3://%s/%s\n", s3.Bucket, s3.Prefix)
		fmt.Fprintf(out, "   Region: %s\n", s3.Region)
		if s3.Endpoint != "" {
			fmt.Fprintf(out, "   Endpoint: %s\n", s3.Endpoint)
		}
	}

	for _, p := range []string{paths.Requirements, paths.Controls, paths.Mapping} {
		if _, err := os.Stat(p); err != nil {
			logger.Warn("Input file not found", "path", p)
		}
	}
}
