package report

import (
	"time"

	"github.com/joshsymonds/controlgap/internal/models"
)

var fixtureTime = time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

// testDocument returns four findings in engine order: R-01 Critical gap,
// R-02 High partial, R-03 Low met and R-04 Medium partial.
func testDocument() *Document {
	findings := []models.Finding{
		{
			Standard: "NIS2", RequirementID: "R-01", Description: "Incident handling | escalation",
			Category: "Incident Response", RiskWeight: 9, Status: models.StatusNoControlMapped,
			Priority: models.PriorityCritical, AllControls: models.NoControls,
		},
		{
			Standard: "ISO 27001", RequirementID: "R-02", Description: "Access control policy",
			Category: "Access", RiskWeight: 8, Status: models.PartialStatus(50),
			Priority: models.PriorityHigh, AllControls: "C-1, C-2", MaxCoverage: 50,
		},
		{
			Standard: "ISO 27001", RequirementID: "R-03", Description: "Asset inventory",
			Category: "Assets", RiskWeight: 4, Status: models.StatusMet,
			Priority: models.PriorityLow, AllControls: "C-3", MaxCoverage: 100,
		},
		{
			Standard: "NIS2", RequirementID: "R-04", Description: "=HYPERLINK(\"http://evil\")",
			Category: "Supply Chain", RiskWeight: 6, Status: models.PartialStatus(80.5),
			Priority: models.PriorityMedium, AllControls: "C-2", MaxCoverage: 80.5,
		},
	}
	edges := []models.Edge{
		{ControlID: "C-1", RequirementID: "R-02", MappingType: "Primary", Known: true,
			Coverage: floatPtr(50), Owner: "IT Ops", RemediationPlan: "Roll out PAM", TargetDate: "2024-06-30"},
		{ControlID: "C-2", RequirementID: "R-02", MappingType: "Supporting", Known: true,
			Coverage: floatPtr(40), Owner: "Security"},
		{ControlID: "C-3", RequirementID: "R-03", MappingType: "Primary", Known: true,
			Coverage: floatPtr(100), Owner: "IT Ops"},
		{ControlID: "C-2", RequirementID: "R-04", MappingType: "Primary", Known: true,
			Coverage: floatPtr(80.5), Owner: "Security"},
	}

	doc := NewDocument("Gap Report", "run-123", findings, edges, fixtureTime)
	doc.Project = "acme"
	return doc
}
