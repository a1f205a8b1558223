package analysis

import "github.com/joshsymonds/controlgap/internal/models"

// Summary provides high-level statistics over a findings table.
type Summary struct {
	ByPriority   map[models.Priority]int `json:"by_priority"`
	ByStatusKind map[string]int          `json:"by_status_kind"`
	Total        int                     `json:"total"`
	CriticalHigh int                     `json:"critical_high"`
	MeanCoverage float64                 `json:"mean_coverage"`
}

// Summarize counts findings by priority and status kind.
func Summarize(findings []models.Finding) Summary {
	s := Summary{
		ByPriority:   make(map[models.Priority]int),
		ByStatusKind: make(map[string]int),
		Total:        len(findings),
	}

	var coverage float64
	for _, f := range findings {
		s.ByPriority[f.Priority]++
		s.ByStatusKind[f.Status.Kind()]++
		if f.Priority == models.PriorityCritical || f.Priority == models.PriorityHigh {
			s.CriticalHigh++
		}
		coverage += f.MaxCoverage
	}
	if len(findings) > 0 {
		s.MeanCoverage = coverage / float64(len(findings))
	}
	return s
}

// PriorityCounts returns ByPriority keyed by string, for serialization.
func (s Summary) PriorityCounts() map[string]int {
	out := make(map[string]int, len(s.ByPriority))
	for p, n := range s.ByPriority {
		out[string(p)] = n
	}
	return out
}
