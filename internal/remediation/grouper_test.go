package remediation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

func testFindings() []models.Finding {
	return []models.Finding{
		{RequirementID: "R1", Standard: "NIS2", Status: models.PartialStatus(40), Priority: models.PriorityHigh, RiskWeight: 9, MaxCoverage: 40},
		{RequirementID: "R2", Standard: "ISO 27001", Status: models.StatusMet, Priority: models.PriorityLow, RiskWeight: 6, MaxCoverage: 100},
		{RequirementID: "R3", Standard: "NIS2", Status: models.StatusNoControlMapped, Priority: models.PriorityCritical, RiskWeight: 10},
		{RequirementID: "R4", Standard: "ISO 27001", Status: models.PartialStatus(80), Priority: models.PriorityMedium, RiskWeight: 5, MaxCoverage: 80},
		{RequirementID: "R5", Standard: "ISO 27001", Status: models.StatusZeroCoverage, Priority: models.PriorityHigh, RiskWeight: 4},
	}
}

func testEdges() []models.Edge {
	return []models.Edge{
		{RequirementID: "R1", ControlID: "C-01", Owner: "alice", RemediationPlan: "Roll out EDR", TargetDate: "2025-03-31", Coverage: models.Float64(40), Known: true},
		{RequirementID: "R1", ControlID: "C-02", Owner: "bob", Coverage: models.Float64(30), Known: true},
		{RequirementID: "R1", ControlID: "C-09", Known: true},
		{RequirementID: "R2", ControlID: "C-03", Owner: "alice", Coverage: models.Float64(100), Known: true},
		{RequirementID: "R4", ControlID: "C-01", Owner: "alice", RemediationPlan: "Roll out EDR", TargetDate: "2025-03-31", Coverage: models.Float64(40), Known: true},
		{RequirementID: "R4", ControlID: "C-04", Owner: "alice", Coverage: models.Float64(80), Known: true},
		{RequirementID: "R5", ControlID: "GHOST"},
	}
}

func groupFor(t *testing.T, groups []Group, owner string) Group {
	t.Helper()
	for _, g := range groups {
		if g.Owner == owner {
			return g
		}
	}
	t.Fatalf("no group for owner %s", owner)
	return Group{}
}

func TestFindingGrouper_GroupByOwner(t *testing.T) {
	grouper := NewFindingGrouper(logger.NewMockLogger())
	groups := grouper.GroupByOwner(testFindings(), testEdges())

	require.Len(t, groups, 3)

	unassigned := groupFor(t, groups, UnassignedOwner)
	assert.Equal(t, models.PriorityCritical, unassigned.Priority)
	require.Len(t, unassigned.Findings, 2)
	assert.Equal(t, "R3", unassigned.Findings[0].RequirementID)
	assert.Equal(t, "R5", unassigned.Findings[1].RequirementID)
	require.Len(t, unassigned.Controls, 1, "R3 has no controls, R5 maps to an unowned control")
	assert.Equal(t, "GHOST", unassigned.Controls[0].ControlID)

	alice := groupFor(t, groups, "alice")
	assert.Equal(t, models.PriorityHigh, alice.Priority)
	require.Len(t, alice.Findings, 2, "MET requirements are not open")
	assert.Equal(t, "R1", alice.Findings[0].RequirementID)
	assert.Equal(t, "R4", alice.Findings[1].RequirementID)
	require.Len(t, alice.Controls, 2)
	assert.Equal(t, "C-01", alice.Controls[0].ControlID)
	assert.Equal(t, []string{"R1", "R4"}, alice.Controls[0].Requirements)
	assert.Equal(t, "Roll out EDR", alice.Controls[0].RemediationPlan)
	assert.Equal(t, "C-04", alice.Controls[1].ControlID)

	bob := groupFor(t, groups, "bob")
	assert.Len(t, bob.Findings, 1)

	// Critical first, then High groups by size then name.
	assert.Equal(t, []string{UnassignedOwner, "alice", "bob"},
		[]string{groups[0].Owner, groups[1].Owner, groups[2].Owner})
}

func TestFindingGrouper_AllMet(t *testing.T) {
	grouper := NewFindingGrouper(logger.NewMockLogger())
	findings := []models.Finding{{RequirementID: "R1", Status: models.StatusMet, Priority: models.PriorityLow}}
	assert.Empty(t, grouper.GroupByOwner(findings, nil))
}

func TestFindingGrouper_BuildManifest(t *testing.T) {
	grouper := NewFindingGrouper(logger.NewMockLogger())
	groups := grouper.GroupByOwner(testFindings(), testEdges())
	generated := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	manifest := grouper.BuildManifest(groups, "run-1", "Gap Report", generated)

	assert.Equal(t, ManifestVersion, manifest.ManifestVersion)
	assert.Equal(t, "run-1", manifest.RunID)
	assert.Equal(t, generated, manifest.GeneratedAt)
	require.Len(t, manifest.Remediations, 3)
	assert.Equal(t, "rem-001", manifest.Remediations[0].ID)
	assert.Equal(t, "rem-003", manifest.Remediations[2].ID)

	assert.Equal(t, 4, manifest.Metadata.OpenFindings, "R1 counts once across alice and bob")
	assert.Equal(t, 3, manifest.Metadata.ActionableRemediations)
	assert.Equal(t, 2, manifest.Metadata.UnassignedFindings)
	assert.Greater(t, manifest.Metadata.PriorityScore, 0.0)
	assert.LessOrEqual(t, manifest.Metadata.PriorityScore, 10.0)

	alice := manifest.Remediations[1]
	assert.Equal(t, "alice", alice.Owner)
	assert.Equal(t, models.PriorityHigh, alice.Requirements[0].Priority)
	assert.Equal(t, models.PriorityMedium, alice.Requirements[1].Priority)
}

func TestFindingGrouper_BuildManifestEmpty(t *testing.T) {
	manifest := NewFindingGrouper(logger.NewMockLogger()).BuildManifest(nil, "run-1", "t", time.Now())
	assert.NotNil(t, manifest.Remediations)
	assert.Empty(t, manifest.Remediations)
	assert.Zero(t, manifest.Metadata.PriorityScore)
}

func TestCalculatePriorityScore(t *testing.T) {
	tests := []struct {
		name         string
		remediations []Remediation
		want         float64
	}{
		{name: "empty", want: 0},
		{
			name:         "single critical with one requirement",
			remediations: []Remediation{{Priority: models.PriorityCritical, Requirements: make([]RequirementRef, 1)}},
			want:         10,
		},
		{
			name:         "single medium with two requirements",
			remediations: []Remediation{{Priority: models.PriorityMedium, Requirements: make([]RequirementRef, 2)}},
			want:         6,
		},
		{
			name: "average",
			remediations: []Remediation{
				{Priority: models.PriorityHigh},
				{Priority: models.PriorityLow},
			},
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculatePriorityScore(tt.remediations), 0.0001)
		})
	}
}
