// Package models contains the data structures shared by the controlgap loader, engine and renderers.
package models

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Mapping types that denote an active control-to-requirement relationship.
const (
	MappingPrimary    = "Primary"
	MappingSupporting = "Supporting"
)

// IsActiveMappingType reports whether a mapping cell denotes a relationship.
// Comparison is exact: case and surrounding whitespace matter.
func IsActiveMappingType(cell string) bool {
	return cell == MappingPrimary || cell == MappingSupporting
}

// Requirement is a single regulatory or standard obligation.
type Requirement struct {
	ID          string `json:"requirement_id" yaml:"requirement_id"`
	Standard    string `json:"standard" yaml:"standard"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"requirement_description" yaml:"requirement_description"`
	RiskWeight  int    `json:"risk_weight" yaml:"risk_weight"`
}

// ControlID is a control identifier. Catalogues sometimes encode ids as numbers;
// decoding from YAML keeps the scalar's literal text so joins compare strings.
type ControlID string

// UnmarshalYAML accepts any scalar node.
func (c *ControlID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: control id must be a scalar", value.Line)
	}
	*c = ControlID(value.Value)
	return nil
}

// Control is an implemented operational safeguard.
type Control struct {
	CoveragePercent *float64  `json:"coverage_percent,omitempty" yaml:"coverage_percent"`
	ID              ControlID `json:"control_id" yaml:"id"`
	Name            string    `json:"name,omitempty" yaml:"name,omitempty"`
	Owner           string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	RemediationPlan string    `json:"remediation_plan,omitempty" yaml:"remediation_plan,omitempty"`
	TargetDate      string    `json:"target_date,omitempty" yaml:"target_date,omitempty"`
}

// Coverage returns the coverage percentage and whether it is defined.
// A NaN coverage (YAML .nan) is undefined.
func (c Control) Coverage() (float64, bool) {
	if c.CoveragePercent == nil || math.IsNaN(*c.CoveragePercent) {
		return 0, false
	}
	return *c.CoveragePercent, true
}

// MappingRow is one row of the control/requirement matrix.
// Cells is aligned with Mapping.RequirementIDs.
type MappingRow struct {
	ControlID string
	Cells     []string
}

// Mapping is the sparse control-by-requirement matrix in its wide form.
type Mapping struct {
	RequirementIDs []string
	Rows           []MappingRow
}

// Dataset bundles the three input tables of a gap analysis.
type Dataset struct {
	Mapping      Mapping
	Requirements []Requirement
	Controls     []Control
}

// Float64 returns a pointer to v, for building controls in code.
func Float64(v float64) *float64 {
	return &v
}
