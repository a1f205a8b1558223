package report

import (
	"sort"
	"time"

	"github.com/joshsymonds/controlgap/internal/analysis"
	"github.com/joshsymonds/controlgap/internal/models"
)

// Document is everything a format needs to render one analysis run.
type Document struct {
	GeneratedAt time.Time
	Title       string
	RunID       string
	Project     string
	// Findings are in engine order; use Sorted for presentation.
	Findings []models.Finding
	Edges    []models.Edge
	// UnknownControls and UnknownRequirements are data-quality notes from the engine.
	UnknownControls     []string
	UnknownRequirements []string
	Summary             analysis.Summary
}

// NewDocument builds a document over findings and edges, computing the summary.
func NewDocument(title, runID string, findings []models.Finding, edges []models.Edge, generatedAt time.Time) *Document {
	return &Document{
		GeneratedAt: generatedAt,
		Title:       title,
		RunID:       runID,
		Findings:    findings,
		Edges:       edges,
		Summary:     analysis.Summarize(findings),
	}
}

// Sorted returns a copy of the findings ordered Critical, High, Medium, Low, N/A.
// Findings with equal priority keep their engine order.
func (d *Document) Sorted() []models.Finding {
	return SortFindings(d.Findings)
}

// SortFindings returns a priority-ordered copy of findings. The sort is stable.
func SortFindings(findings []models.Finding) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return models.PriorityRank(sorted[i].Priority) < models.PriorityRank(sorted[j].Priority)
	})
	return sorted
}
