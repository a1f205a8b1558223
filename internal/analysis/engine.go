// Package analysis implements the gap-analysis engine: it reconciles requirements,
// controls and the mapping between them into one finding per requirement.
//
// Analyze is a pure function. It performs no I/O, keeps no state and is safe to
// call concurrently on independent datasets.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/joshsymonds/controlgap/internal/models"
)

// ErrSchema marks structurally invalid input: missing keys, duplicate keys,
// out-of-range values or a ragged mapping matrix.
var ErrSchema = errors.New("schema error")

// Business thresholds for risk scoring.
const (
	PartialCoverageThreshold = 75.0
	PartialWeightThreshold   = 8
	GapCriticalWeight        = 9
)

// Result is the output of Analyze.
type Result struct {
	// Findings holds one entry per requirement, in requirement input order.
	Findings []models.Finding
	// Edges holds the active, enriched control-to-requirement relationships.
	Edges []models.Edge
	// UnknownControlIDs lists mapped controls missing from the catalogue, first-seen order.
	UnknownControlIDs []string
	// UnknownRequirementIDs lists mapping columns missing from the requirement list.
	UnknownRequirementIDs []string
}

// Group is the per-requirement roll-up of its edges.
type Group struct {
	// Controls lists contributing control ids, de-duplicated in first-seen order.
	Controls []string
	// MaxCoverage is only meaningful when Defined is true.
	MaxCoverage float64
	Defined     bool
}

// Analyze runs the full pipeline over ds.
func Analyze(ds *models.Dataset) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrSchema)
	}
	if err := validateRequirements(ds.Requirements); err != nil {
		return nil, err
	}
	catalogue, err := indexControls(ds.Controls)
	if err != nil {
		return nil, err
	}

	edges, err := ExtractEdges(ds.Mapping)
	if err != nil {
		return nil, err
	}
	enriched := Enrich(edges, catalogue)
	groups := Aggregate(enriched)

	findings := make([]models.Finding, 0, len(ds.Requirements))
	known := make(map[string]struct{}, len(ds.Requirements))
	for _, req := range ds.Requirements {
		known[req.ID] = struct{}{}
		findings = append(findings, buildFinding(req, groups))
	}

	return &Result{
		Findings:              findings,
		Edges:                 enriched,
		UnknownControlIDs:     unknownControls(enriched),
		UnknownRequirementIDs: unknownRequirements(ds.Mapping.RequirementIDs, known),
	}, nil
}

func buildFinding(req models.Requirement, groups map[string]*Group) models.Finding {
	f := models.Finding{
		Standard:      req.Standard,
		RequirementID: req.ID,
		Description:   req.Description,
		Category:      req.Category,
		RiskWeight:    req.RiskWeight,
	}

	agg, ok := groups[req.ID]
	if !ok {
		f.Status = models.StatusNoControlMapped
		f.AllControls = models.NoControls
		f.MaxCoverage = 0
	} else {
		f.Status = ClassifyStatus(agg.MaxCoverage, agg.Defined)
		f.AllControls = strings.Join(agg.Controls, models.ControlListSeparator)
		if agg.Defined {
			f.MaxCoverage = agg.MaxCoverage
		}
	}

	f.Priority = ScorePriority(f.Status, f.MaxCoverage, f.RiskWeight)
	return f
}

// ExtractEdges reshapes the wide mapping matrix into active edges. Columns are
// walked in header order and rows in file order; inactive cells are dropped.
func ExtractEdges(m models.Mapping) ([]models.Edge, error) {
	columns := make(map[string]struct{}, len(m.RequirementIDs))
	for i, id := range m.RequirementIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: mapping column %d has an empty requirement id", ErrSchema, i+1)
		}
		if _, dup := columns[id]; dup {
			return nil, fmt.Errorf("%w: mapping has duplicate requirement column %q", ErrSchema, id)
		}
		columns[id] = struct{}{}
	}
	for i, row := range m.Rows {
		if row.ControlID == "" {
			return nil, fmt.Errorf("%w: mapping row %d has an empty Control_ID", ErrSchema, i+1)
		}
		if len(row.Cells) != len(m.RequirementIDs) {
			return nil, fmt.Errorf("%w: mapping row %d (%s) has %d cells, expected %d",
				ErrSchema, i+1, row.ControlID, len(row.Cells), len(m.RequirementIDs))
		}
	}

	var edges []models.Edge
	for col, reqID := range m.RequirementIDs {
		for _, row := range m.Rows {
			cell := row.Cells[col]
			if !models.IsActiveMappingType(cell) {
				continue
			}
			edges = append(edges, models.Edge{
				ControlID:     row.ControlID,
				RequirementID: reqID,
				MappingType:   cell,
			})
		}
	}
	return edges, nil
}

// Enrich left-joins edges with the control catalogue. Edges to unknown
// controls are kept with undefined coverage.
func Enrich(edges []models.Edge, catalogue map[string]models.Control) []models.Edge {
	out := make([]models.Edge, len(edges))
	for i, e := range edges {
		out[i] = e
		ctrl, ok := catalogue[e.ControlID]
		if !ok {
			continue
		}
		out[i].Known = true
		out[i].Owner = ctrl.Owner
		out[i].RemediationPlan = ctrl.RemediationPlan
		out[i].TargetDate = ctrl.TargetDate
		if cov, defined := ctrl.Coverage(); defined {
			out[i].Coverage = models.Float64(cov)
		}
	}
	return out
}

// Aggregate groups edges by requirement. Coverage is the best single control;
// the control list is de-duplicated in first-seen order.
func Aggregate(edges []models.Edge) map[string]*Group {
	groups := make(map[string]*Group)
	seen := make(map[string]map[string]struct{})

	for _, e := range edges {
		agg, ok := groups[e.RequirementID]
		if !ok {
			agg = &Group{}
			groups[e.RequirementID] = agg
			seen[e.RequirementID] = make(map[string]struct{})
		}

		if _, dup := seen[e.RequirementID][e.ControlID]; !dup {
			seen[e.RequirementID][e.ControlID] = struct{}{}
			agg.Controls = append(agg.Controls, e.ControlID)
		}

		if e.Coverage == nil || math.IsNaN(*e.Coverage) {
			continue
		}
		if !agg.Defined || *e.Coverage > agg.MaxCoverage {
			agg.MaxCoverage = *e.Coverage
			agg.Defined = true
		}
	}
	return groups
}

// ClassifyStatus maps a requirement's best coverage to its status.
// The equality check for 100 precedes the partial branch.
func ClassifyStatus(maxCoverage float64, defined bool) models.Status {
	switch {
	case !defined || maxCoverage == 0 || math.IsNaN(maxCoverage):
		return models.StatusZeroCoverage
	case maxCoverage == 100:
		return models.StatusMet
	case maxCoverage > 0 && maxCoverage < 100:
		return models.PartialStatus(maxCoverage)
	default:
		// Unreachable for validated input.
		return models.Status("")
	}
}

// ScorePriority derives the remediation priority from status, coverage and weight.
func ScorePriority(status models.Status, maxCoverage float64, riskWeight int) models.Priority {
	switch {
	case status.IsMet():
		return models.PriorityLow
	case status.IsPartial():
		if maxCoverage < PartialCoverageThreshold && riskWeight >= PartialWeightThreshold {
			return models.PriorityHigh
		}
		return models.PriorityMedium
	case status.IsGap():
		if riskWeight >= GapCriticalWeight {
			return models.PriorityCritical
		}
		return models.PriorityHigh
	default:
		return models.PriorityNA
	}
}

func unknownControls(edges []models.Edge) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, e := range edges {
		if e.Known {
			continue
		}
		if _, ok := seen[e.ControlID]; ok {
			continue
		}
		seen[e.ControlID] = struct{}{}
		ids = append(ids, e.ControlID)
	}
	return ids
}

func unknownRequirements(columns []string, known map[string]struct{}) []string {
	var ids []string
	for _, id := range columns {
		if _, ok := known[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids
}
