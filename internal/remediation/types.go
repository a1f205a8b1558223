// Package remediation turns open gap-analysis findings into an owner-oriented
// remediation plan.
package remediation

import (
	"math"
	"time"

	"github.com/joshsymonds/controlgap/internal/models"
)

// ManifestVersion is the schema version written to every manifest.
const ManifestVersion = "1.0"

// UnassignedOwner collects findings whose controls have no owner, or that have no controls.
const UnassignedOwner = "unassigned"

// Manifest represents a complete remediation plan.
type Manifest struct {
	GeneratedAt     time.Time        `yaml:"generated_at"`
	ManifestVersion string           `yaml:"manifest_version"`
	RunID           string           `yaml:"run_id"`
	Title           string           `yaml:"title"`
	Remediations    []Remediation    `yaml:"remediations"`
	Metadata        ManifestMetadata `yaml:"metadata"`
}

// ManifestMetadata contains summary information about the manifest.
type ManifestMetadata struct {
	OpenFindings           int     `yaml:"open_findings"`
	ActionableRemediations int     `yaml:"actionable_remediations"`
	UnassignedFindings     int     `yaml:"unassigned_findings"`
	PriorityScore          float64 `yaml:"priority_score"`
}

// Remediation is the work owned by one person or team.
type Remediation struct {
	ID           string           `yaml:"id"`
	Owner        string           `yaml:"owner"`
	Priority     models.Priority  `yaml:"priority"`
	Requirements []RequirementRef `yaml:"requirements"`
	Controls     []ControlAction  `yaml:"controls,omitempty"`
}

// RequirementRef is an open requirement in a remediation.
type RequirementRef struct {
	ID          string          `yaml:"id"`
	Standard    string          `yaml:"standard"`
	Status      models.Status   `yaml:"status"`
	Priority    models.Priority `yaml:"priority"`
	RiskWeight  int             `yaml:"risk_weight"`
	MaxCoverage float64         `yaml:"max_coverage"`
}

// ControlAction is a control the owner should improve, with its plan.
type ControlAction struct {
	Coverage        *float64 `yaml:"coverage_percent,omitempty"`
	ControlID       string   `yaml:"control_id"`
	RemediationPlan string   `yaml:"remediation_plan,omitempty"`
	TargetDate      string   `yaml:"target_date,omitempty"`
	Requirements    []string `yaml:"requirements"`
}

// Group represents open findings that share an owner.
type Group struct {
	Owner    string
	Findings []models.Finding
	Controls []ControlAction
	Priority models.Priority
}

// CalculatePriorityScore averages the priority of each remediation, weighted by
// how many requirements it closes, on a 0-10 scale.
func CalculatePriorityScore(remediations []Remediation) float64 {
	if len(remediations) == 0 {
		return 0.0
	}

	var totalScore float64
	for _, rem := range remediations {
		score := priorityScore(rem.Priority) * (1 + float64(len(rem.Requirements))*0.1)
		totalScore += score
	}

	avgScore := totalScore / float64(len(remediations))
	return math.Min(avgScore, 10.0)
}

func priorityScore(p models.Priority) float64 {
	switch p {
	case models.PriorityCritical:
		return 10.0
	case models.PriorityHigh:
		return 7.5
	case models.PriorityMedium:
		return 5.0
	case models.PriorityLow:
		return 2.5
	default:
		return 0.0
	}
}
