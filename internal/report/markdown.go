package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// MatrixHeaders are the column labels of the traceability matrix.
var MatrixHeaders = []string{
	"Standard", "Req. ID", "Description", "Category", "Weight", "Status", "Max Cov.", "Priority", "Controls",
}

const summaryBlurb = "This report identifies compliance gaps based on the maximum coverage percentage " +
	"reported for supporting operational controls. Focus remediation efforts on the **Critical** " +
	"and **High** priority items below."

// MatrixRow returns a finding's cells in MatrixHeaders order, as shown in human-readable reports.
func MatrixRow(f models.Finding) []string {
	return []string{
		f.Standard,
		f.RequirementID,
		f.Description,
		f.Category,
		strconv.Itoa(f.RiskWeight),
		string(f.Status),
		CoverageLabel(f.MaxCoverage),
		string(f.Priority),
		f.AllControls,
	}
}

// CoverageLabel renders coverage as a truncated whole percentage ("62%").
func CoverageLabel(v float64) string {
	return strconv.Itoa(int(v)) + "%"
}

// RenderMarkdown renders the full Markdown report for doc.
func RenderMarkdown(doc *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "* **Date:** %s\n", doc.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "* **Total Requirements Analyzed:** %d\n", doc.Summary.Total)
	fmt.Fprintf(&b, "* **Critical/High Gaps Identified:** %d\n", doc.Summary.CriticalHigh)
	if doc.RunID != "" {
		fmt.Fprintf(&b, "* **Run:** %s\n", doc.RunID)
	}
	b.WriteString("\n")
	b.WriteString(summaryBlurb)
	b.WriteString("\n\n")

	b.WriteString("## Traceability & Gap Matrix (Sorted by Risk Priority)\n\n")
	writeMarkdownRow(&b, MatrixHeaders)
	sep := make([]string, len(MatrixHeaders))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(&b, sep)
	for _, f := range doc.Sorted() {
		writeMarkdownRow(&b, MatrixRow(f))
	}

	if len(doc.UnknownControls) > 0 || len(doc.UnknownRequirements) > 0 {
		b.WriteString("\n## Data Quality Notes\n\n")
		if len(doc.UnknownControls) > 0 {
			fmt.Fprintf(&b, "* Controls mapped but missing from the catalogue (treated as 0%% coverage): %s\n",
				strings.Join(doc.UnknownControls, ", "))
		}
		if len(doc.UnknownRequirements) > 0 {
			fmt.Fprintf(&b, "* Mapping columns with no matching requirement (ignored): %s\n",
				strings.Join(doc.UnknownRequirements, ", "))
		}
	}

	return b.String()
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeMarkdownCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var markdownCellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func escapeMarkdownCell(s string) string {
	return markdownCellReplacer.Replace(s)
}

type markdownFormat struct {
	logger logger.Logger
}

// Generate writes the Markdown report.
func (f *markdownFormat) Generate(doc *Document, outputPath string) error {
	if err := writeOutput(outputPath, []byte(RenderMarkdown(doc))); err != nil {
		return err
	}
	f.logger.Info("Generated Markdown report", "path", outputPath)
	return nil
}

func (f *markdownFormat) Name() string { return FormatMarkdown }

func (f *markdownFormat) Description() string {
	return "Markdown report with executive summary and traceability matrix"
}

func (f *markdownFormat) Extension() string { return ".md" }
