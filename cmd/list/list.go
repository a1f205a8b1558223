// Package list implements the list command for viewing previous analysis runs.
package list

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/cmd/internal/cli"
	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/internal/storage"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// Options represents list command options.
type Options struct {
	OutputDir string
	Format    string
	Limit     int
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List previous analysis runs",
		Example: `  controlgap list
  controlgap list --limit 20
  controlgap list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "Maximum number of runs to show")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Output directory holding saved runs (defaults to output.dir)")
	cmd.Flags().StringVar(&opts.Format, "format", "table", "Output format (table, json)")

	return cmd
}

func run(cmd *cobra.Command, opts *Options) error {
	if opts.Format != "table" && opts.Format != "json" {
		return fmt.Errorf("unknown output format %q (table, json)", opts.Format)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		outputDir = cfg.Output.Dir
	}

	runs, err := storage.NewStorage(outputDir).ListRuns(opts.Limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if len(runs) == 0 {
		logger.Info("No runs found", "dir", outputDir)
		return nil
	}

	switch opts.Format {
	case "json":
		return displayJSON(cmd.OutOrStdout(), runs)
	default:
		return displayTable(cmd.OutOrStdout(), runs, time.Now())
	}
}

func displayTable(out io.Writer, runs []storage.RunInfo, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "RUN\tPROJECT\tREQUIREMENTS\tCRITICAL\tHIGH\tMEDIUM\tLOW\tTIME AGO"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 80)); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	for _, r := range runs {
		total := fmt.Sprintf("%d", r.Total)
		if r.CriticalHigh > 0 {
			total = fmt.Sprintf("%d (🚨 %d)", r.Total, r.CriticalHigh)
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			filepath.Base(r.Path),
			r.Project,
			total,
			r.ByPriority[string(models.PriorityCritical)],
			r.ByPriority[string(models.PriorityHigh)],
			r.ByPriority[string(models.PriorityMedium)],
			r.ByPriority[string(models.PriorityLow)],
			formatTimeAgo(r.StartTime, now),
		); err != nil {
			return fmt.Errorf("writing run entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}

	logger.Info("💡 Use 'controlgap report --run' to regenerate reports", "run", runs[0].Path)
	return nil
}

// runEntry is the JSON shape of one listed run.
type runEntry struct {
	StartTime    time.Time      `json:"start_time"`
	ByPriority   map[string]int `json:"by_priority"`
	ID           string         `json:"id"`
	Project      string         `json:"project"`
	Title        string         `json:"title"`
	Path         string         `json:"path"`
	Total        int            `json:"total_requirements"`
	CriticalHigh int            `json:"critical_high"`
}

func displayJSON(out io.Writer, runs []storage.RunInfo) error {
	entries := make([]runEntry, len(runs))
	for i, r := range runs {
		entries[i] = runEntry{
			ID:           r.ID,
			Project:      r.Project,
			Title:        r.Title,
			Path:         r.Path,
			StartTime:    r.StartTime,
			ByPriority:   r.ByPriority,
			Total:        r.Total,
			CriticalHigh: r.CriticalHigh,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encoding runs: %w", err)
	}
	return nil
}

func formatTimeAgo(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case duration < 30*24*time.Hour:
		weeks := int(duration.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	default:
		return t.Format("Jan 2, 2006")
	}
}
