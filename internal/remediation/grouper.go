package remediation

import (
	"fmt"
	"sort"
	"time"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// FindingGrouper groups open findings by the owners of their mapped controls.
type FindingGrouper struct {
	logger logger.Logger
}

// NewFindingGrouper creates a new finding grouper.
func NewFindingGrouper(log logger.Logger) *FindingGrouper {
	return &FindingGrouper{
		logger: log,
	}
}

// GroupByOwner assigns every open finding to the owners of its mapped controls.
// A finding whose controls are all unowned, or that has no controls, goes to
// UnassignedOwner. MET findings are not open and are skipped.
func (g *FindingGrouper) GroupByOwner(findings []models.Finding, edges []models.Edge) []Group {
	edgesByReq := make(map[string][]models.Edge)
	for _, e := range edges {
		edgesByReq[e.RequirementID] = append(edgesByReq[e.RequirementID], e)
	}

	byOwner := make(map[string]*Group)
	var order []string
	group := func(owner string) *Group {
		grp, ok := byOwner[owner]
		if !ok {
			grp = &Group{Owner: owner, Priority: models.PriorityNA}
			byOwner[owner] = grp
			order = append(order, owner)
		}
		return grp
	}

	for _, f := range findings {
		if f.Status.IsMet() {
			continue
		}

		reqEdges := edgesByReq[f.RequirementID]
		owners := ownersOf(reqEdges)
		for _, owner := range owners {
			grp := group(owner)
			grp.Findings = append(grp.Findings, f)
			if models.PriorityRank(f.Priority) < models.PriorityRank(grp.Priority) {
				grp.Priority = f.Priority
			}
			for _, e := range reqEdges {
				if ownerOf(e) == owner {
					grp.Controls = addControl(grp.Controls, e)
				}
			}
		}
	}

	groups := make([]Group, 0, len(order))
	for _, owner := range order {
		groups = append(groups, *byOwner[owner])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		ri, rj := models.PriorityRank(groups[i].Priority), models.PriorityRank(groups[j].Priority)
		if ri != rj {
			return ri < rj
		}
		if len(groups[i].Findings) != len(groups[j].Findings) {
			return len(groups[i].Findings) > len(groups[j].Findings)
		}
		return groups[i].Owner < groups[j].Owner
	})

	g.logger.Debug("Grouped open findings by owner", "groups", len(groups))
	return groups
}

// BuildManifest converts groups into a remediation manifest.
func (g *FindingGrouper) BuildManifest(groups []Group, runID, title string, generatedAt time.Time) *Manifest {
	manifest := &Manifest{
		ManifestVersion: ManifestVersion,
		GeneratedAt:     generatedAt,
		RunID:           runID,
		Title:           title,
		Remediations:    []Remediation{},
	}

	open := make(map[string]struct{})
	unassigned := 0
	for i, grp := range groups {
		rem := Remediation{
			ID:           fmt.Sprintf("rem-%03d", i+1),
			Owner:        grp.Owner,
			Priority:     grp.Priority,
			Requirements: make([]RequirementRef, 0, len(grp.Findings)),
			Controls:     grp.Controls,
		}
		for _, f := range grp.Findings {
			open[f.RequirementID] = struct{}{}
			rem.Requirements = append(rem.Requirements, RequirementRef{
				ID:          f.RequirementID,
				Standard:    f.Standard,
				Status:      f.Status,
				Priority:    f.Priority,
				RiskWeight:  f.RiskWeight,
				MaxCoverage: f.MaxCoverage,
			})
		}
		sort.SliceStable(rem.Requirements, func(a, b int) bool {
			return models.PriorityRank(rem.Requirements[a].Priority) < models.PriorityRank(rem.Requirements[b].Priority)
		})
		if grp.Owner == UnassignedOwner {
			unassigned = len(grp.Findings)
		}
		manifest.Remediations = append(manifest.Remediations, rem)
	}

	manifest.Metadata = ManifestMetadata{
		OpenFindings:           len(open),
		ActionableRemediations: len(manifest.Remediations),
		UnassignedFindings:     unassigned,
		PriorityScore:          CalculatePriorityScore(manifest.Remediations),
	}
	return manifest
}

func ownerOf(e models.Edge) string {
	if e.Owner == "" {
		return UnassignedOwner
	}
	return e.Owner
}

// ownersOf returns the distinct owners of edges in first-seen order. Unowned
// edges only count when no edge has an owner.
func ownersOf(edges []models.Edge) []string {
	var owners []string
	seen := make(map[string]struct{})
	for _, e := range edges {
		if e.Owner == "" {
			continue
		}
		if _, ok := seen[e.Owner]; ok {
			continue
		}
		seen[e.Owner] = struct{}{}
		owners = append(owners, e.Owner)
	}
	if len(owners) == 0 {
		return []string{UnassignedOwner}
	}
	return owners
}

func addControl(controls []ControlAction, e models.Edge) []ControlAction {
	for i := range controls {
		if controls[i].ControlID != e.ControlID {
			continue
		}
		for _, req := range controls[i].Requirements {
			if req == e.RequirementID {
				return controls
			}
		}
		controls[i].Requirements = append(controls[i].Requirements, e.RequirementID)
		return controls
	}
	return append(controls, ControlAction{
		ControlID:       e.ControlID,
		Coverage:        e.Coverage,
		RemediationPlan: e.RemediationPlan,
		TargetDate:      e.TargetDate,
		Requirements:    []string{e.RequirementID},
	})
}
