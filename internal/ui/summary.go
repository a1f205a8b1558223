package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/controlgap/internal/analysis"
	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/internal/report"
)

const minSummaryWidth = 60

// Columns of the urgent-findings table and their relative widths.
var (
	urgentHeaders = []string{"Priority", "Req. ID", "Standard", "Status", "Weight", "Controls"}
	urgentWeights = []int{2, 2, 2, 4, 1, 4}
)

// RenderSummary renders the terminal summary printed after an analysis: the
// counts by priority and status, then a table of the Critical and High findings.
func RenderSummary(findings []models.Finding, summary analysis.Summary, width int) string {
	if width < minSummaryWidth {
		width = minSummaryWidth
	}

	var b strings.Builder

	counts := make([]string, 0, len(models.ValidPriorities()))
	for _, p := range models.ValidPriorities() {
		counts = append(counts, PriorityStyle(p).Render(fmt.Sprintf("%s: %d", p, summary.ByPriority[p])))
	}
	statuses := fmt.Sprintf("Met: %d  Partial: %d  Gap: %d",
		summary.ByStatusKind[models.StatusKindMet],
		summary.ByStatusKind[models.StatusKindPartial],
		summary.ByStatusKind[models.StatusKindGap])

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Gap Analysis Summary"),
		"",
		fmt.Sprintf("%s %d   %s %d   %s %.1f%%",
			boldStyle.Render("Requirements:"), summary.Total,
			boldStyle.Render("Critical/High:"), summary.CriticalHigh,
			boldStyle.Render("Mean coverage:"), summary.MeanCoverage),
		strings.Join(counts, "  "),
		grayStyle.Render(statuses),
	)
	b.WriteString(boxStyle.Width(width - 2).Render(body))
	b.WriteString("\n\n")

	var rows [][]string
	for _, f := range report.SortFindings(findings) {
		if f.Priority != models.PriorityCritical && f.Priority != models.PriorityHigh {
			continue
		}
		rows = append(rows, []string{
			string(f.Priority),
			f.RequirementID,
			f.Standard,
			string(f.Status),
			fmt.Sprintf("%d", f.RiskWeight),
			f.AllControls,
		})
	}

	if len(rows) == 0 {
		b.WriteString(grayStyle.Render("No Critical or High priority gaps."))
		b.WriteString("\n")
		return b.String()
	}

	table := Table{
		Headers: urgentHeaders,
		Rows:    rows,
		Weights: urgentWeights,
		Width:   width,
	}
	b.WriteString(table.Render())
	b.WriteString("\n")
	return b.String()
}
