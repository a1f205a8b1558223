package models

import (
	"strconv"
	"time"
)

// NoControls is the all_controls value for requirements with no mapped control.
const NoControls = "N/A"

// ControlListSeparator joins control ids in Finding.AllControls.
const ControlListSeparator = ", "

// FindingColumns is the fixed column order of the findings table.
var FindingColumns = []string{
	"Standard",
	"Requirement_ID",
	"Requirement_Description",
	"Category",
	"Risk_Weight",
	"Status",
	"max_coverage",
	"Risk_Priority",
	"all_controls",
}

// Finding is the analysis result for one requirement.
type Finding struct {
	Standard      string   `json:"standard"`
	RequirementID string   `json:"requirement_id"`
	Description   string   `json:"requirement_description"`
	Category      string   `json:"category"`
	Status        Status   `json:"status"`
	Priority      Priority `json:"risk_priority"`
	AllControls   string   `json:"all_controls"`
	RiskWeight    int      `json:"risk_weight"`
	MaxCoverage   float64  `json:"max_coverage"`
}

// Record returns the finding's fields as strings in FindingColumns order.
func (f Finding) Record() []string {
	return []string{
		f.Standard,
		f.RequirementID,
		f.Description,
		f.Category,
		strconv.Itoa(f.RiskWeight),
		string(f.Status),
		FormatCoverage(f.MaxCoverage),
		string(f.Priority),
		f.AllControls,
	}
}

// FormatCoverage renders a coverage value without trailing zeros ("90", "62.5").
func FormatCoverage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Edge is an active control-to-requirement relationship joined with the control catalogue.
// Known is false when the mapping names a control absent from the catalogue.
type Edge struct {
	Coverage        *float64 `json:"coverage_percent,omitempty"`
	ControlID       string   `json:"control_id"`
	RequirementID   string   `json:"requirement_id"`
	MappingType     string   `json:"mapping_type"`
	Owner           string   `json:"owner,omitempty"`
	RemediationPlan string   `json:"remediation_plan,omitempty"`
	TargetDate      string   `json:"target_date,omitempty"`
	Known           bool     `json:"known"`
}

// RunMetadata describes one persisted analysis run.
type RunMetadata struct {
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	ByPriority   map[string]int `json:"by_priority"`
	ID           string         `json:"id"`
	Project      string         `json:"project"`
	Title        string         `json:"title"`
	Requirements string         `json:"requirements_file"`
	Controls     string         `json:"controls_file"`
	Mapping      string         `json:"mapping_file"`
	Reports      []string       `json:"reports,omitempty"`
	Published    []string       `json:"published,omitempty"`
	// Engine data-quality notes, kept so reports can be re-rendered from a saved run.
	UnknownControls     []string `json:"unknown_controls,omitempty"`
	UnknownRequirements []string `json:"unknown_requirements,omitempty"`
	Total               int      `json:"total_requirements"`
	CriticalHigh        int      `json:"critical_high"`
}
