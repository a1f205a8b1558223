package analysis

import (
	"fmt"

	"github.com/joshsymonds/controlgap/internal/models"
)

// Risk weight bounds, inclusive.
const (
	MinRiskWeight = 1
	MaxRiskWeight = 10
)

func validateRequirements(reqs []models.Requirement) error {
	seen := make(map[string]struct{}, len(reqs))
	for i, req := range reqs {
		if req.ID == "" {
			return fmt.Errorf("%w: requirement row %d has an empty Requirement_ID", ErrSchema, i+1)
		}
		if _, dup := seen[req.ID]; dup {
			return fmt.Errorf("%w: duplicate Requirement_ID %q", ErrSchema, req.ID)
		}
		seen[req.ID] = struct{}{}

		if req.RiskWeight < MinRiskWeight || req.RiskWeight > MaxRiskWeight {
			return fmt.Errorf("%w: requirement %s has Risk_Weight %d outside [%d,%d]",
				ErrSchema, req.ID, req.RiskWeight, MinRiskWeight, MaxRiskWeight)
		}
	}
	return nil
}

// indexControls keys the catalogue by Control_ID and checks its invariants.
func indexControls(controls []models.Control) (map[string]models.Control, error) {
	index := make(map[string]models.Control, len(controls))
	for i, c := range controls {
		id := string(c.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: control %d has an empty id", ErrSchema, i+1)
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("%w: duplicate Control_ID %q", ErrSchema, id)
		}
		if cov, ok := c.Coverage(); ok && (cov < 0 || cov > 100) {
			return nil, fmt.Errorf("%w: control %s has coverage_percent %s outside [0,100]",
				ErrSchema, id, models.FormatCoverage(cov))
		}
		index[id] = c
	}
	return index, nil
}
