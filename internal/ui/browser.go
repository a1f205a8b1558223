package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/internal/report"
)

// browserChrome is the number of lines the browser uses around the list.
const browserChrome = 8

// filterCycle is the order the f key steps through; the empty priority shows everything.
var filterCycle = []models.Priority{
	"",
	models.PriorityCritical,
	models.PriorityHigh,
	models.PriorityMedium,
	models.PriorityLow,
}

// Browser is an interactive findings browser.
type Browser struct {
	edges    map[string][]models.Edge
	title    string
	findings []models.Finding
	visible  []int
	filter   int
	cursor   int
	offset   int
	width    int
	height   int
	detail   bool
	stopped  bool
}

// NewBrowser creates a browser over findings, shown most urgent first. Edges
// supply owners and remediation plans for the detail pane.
func NewBrowser(title string, findings []models.Finding, edges []models.Edge) Browser {
	b := Browser{
		title:    title,
		findings: report.SortFindings(findings),
		edges:    make(map[string][]models.Edge),
		width:    100,
		height:   30,
	}
	for _, e := range edges {
		b.edges[e.RequirementID] = append(b.edges[e.RequirementID], e)
	}
	b.applyFilter()
	return b
}

// Run starts the browser on the alternate screen and blocks until it exits.
func (b Browser) Run() error {
	if _, err := tea.NewProgram(b, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (b Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.clampOffset()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			b.stopped = true
			return b, tea.Quit
		case "esc":
			b.detail = false
		case "j", "down":
			if b.cursor < len(b.visible)-1 {
				b.cursor++
			}
		case "k", "up":
			if b.cursor > 0 {
				b.cursor--
			}
		case "g", "home":
			b.cursor = 0
		case "G", "end":
			if len(b.visible) > 0 {
				b.cursor = len(b.visible) - 1
			}
		case "enter":
			if len(b.visible) > 0 {
				b.detail = !b.detail
			}
		case "f":
			b.filter = (b.filter + 1) % len(filterCycle)
			b.applyFilter()
		}
		b.clampOffset()
	}
	return b, nil
}

// Selected returns the finding under the cursor.
func (b Browser) Selected() (models.Finding, bool) {
	if len(b.visible) == 0 {
		return models.Finding{}, false
	}
	return b.findings[b.visible[b.cursor]], true
}

// Visible returns the findings that pass the current filter, in display order.
func (b Browser) Visible() []models.Finding {
	out := make([]models.Finding, len(b.visible))
	for i, idx := range b.visible {
		out[i] = b.findings[idx]
	}
	return out
}

// Filter returns the active priority filter; empty means all priorities.
func (b Browser) Filter() models.Priority {
	return filterCycle[b.filter]
}

// Cursor returns the cursor position within the visible findings.
func (b Browser) Cursor() int { return b.cursor }

// DetailOpen reports whether the detail pane is shown.
func (b Browser) DetailOpen() bool { return b.detail }

// Stopped reports whether the user quit.
func (b Browser) Stopped() bool { return b.stopped }

func (b *Browser) applyFilter() {
	want := filterCycle[b.filter]
	visible := make([]int, 0, len(b.findings))
	for i, f := range b.findings {
		if want == "" || f.Priority == want {
			visible = append(visible, i)
		}
	}
	b.visible = visible
	b.cursor = 0
	b.offset = 0
	b.detail = false
}

func (b Browser) listHeight() int {
	h := b.height - browserChrome
	if b.detail {
		h /= 2
	}
	if h < 3 {
		h = 3
	}
	return h
}

// clampOffset scrolls the list so the cursor stays visible.
func (b *Browser) clampOffset() {
	h := b.listHeight()
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+h {
		b.offset = b.cursor - h + 1
	}
	if b.offset < 0 {
		b.offset = 0
	}
}

// View implements tea.Model.
func (b Browser) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(b.title))
	s.WriteString("\n")
	filter := "All"
	if p := b.Filter(); p != "" {
		filter = string(p)
	}
	s.WriteString(grayStyle.Render(fmt.Sprintf("Showing %d of %d requirements • Filter: %s",
		len(b.visible), len(b.findings), filter)))
	s.WriteString("\n\n")

	if len(b.visible) == 0 {
		s.WriteString(grayStyle.Render("No findings match the current filter."))
		s.WriteString("\n")
	} else {
		s.WriteString(b.renderList())
	}

	if b.detail {
		if f, ok := b.Selected(); ok {
			s.WriteString("\n")
			s.WriteString(b.renderDetail(f))
		}
	}

	s.WriteString(helpStyle.Render("↑/↓ j/k move • enter details • f filter priority • q quit"))
	return s.String()
}

func (b Browser) renderList() string {
	const (
		priorityWidth = 10
		idWidth       = 14
		statusWidth   = 26
	)
	descWidth := b.width - priorityWidth - idWidth - statusWidth - 8
	if descWidth < 10 {
		descWidth = 10
	}

	var s strings.Builder
	end := b.offset + b.listHeight()
	if end > len(b.visible) {
		end = len(b.visible)
	}
	for i := b.offset; i < end; i++ {
		f := b.findings[b.visible[i]]

		cursor := "  "
		rowStyle := lipgloss.NewStyle()
		if i == b.cursor {
			cursor = "▸ "
			rowStyle = selectedStyle
		}

		s.WriteString(cursor)
		s.WriteString(PriorityStyle(f.Priority).Render(padOrTruncate(string(f.Priority), priorityWidth)))
		s.WriteString(" ")
		s.WriteString(rowStyle.Render(strings.Join([]string{
			padOrTruncate(f.RequirementID, idWidth),
			padOrTruncate(string(f.Status), statusWidth),
			padOrTruncate(f.Description, descWidth),
		}, " ")))
		s.WriteString("\n")
	}
	if remaining := len(b.visible) - end; remaining > 0 {
		s.WriteString(grayStyle.Render(fmt.Sprintf("  ... and %d more", remaining)))
		s.WriteString("\n")
	}
	return s.String()
}

func (b Browser) renderDetail(f models.Finding) string {
	lines := []string{
		boldStyle.Render(f.Standard+" "+f.RequirementID) + "  " + PriorityStyle(f.Priority).Render(string(f.Priority)),
		f.Description,
		"",
		fmt.Sprintf("Category: %s   Risk weight: %d", f.Category, f.RiskWeight),
		fmt.Sprintf("Status: %s   Max coverage: %s", f.Status, report.CoverageLabel(f.MaxCoverage)),
		"Controls: " + f.AllControls,
	}

	for _, e := range b.edges[f.RequirementID] {
		coverage := "unknown"
		if e.Coverage != nil {
			coverage = report.CoverageLabel(*e.Coverage)
		}
		line := fmt.Sprintf("  • %s (%s, %s)", e.ControlID, e.MappingType, coverage)
		if e.Owner != "" {
			line += " owner: " + e.Owner
		}
		if !e.Known {
			line += " [not in catalogue]"
		}
		lines = append(lines, line)
		if e.RemediationPlan != "" {
			plan := "    plan: " + e.RemediationPlan
			if e.TargetDate != "" {
				plan += " (due " + e.TargetDate + ")"
			}
			lines = append(lines, grayStyle.Render(plan))
		}
	}

	width := b.width - 2
	if width < 20 {
		width = 20
	}
	return boxStyle.Width(width).Render(strings.Join(lines, "\n"))
}
