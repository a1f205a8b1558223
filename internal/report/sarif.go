package report

import (
	"bytes"
	"fmt"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

const (
	sarifToolName = "controlgap"
	sarifToolURI  = "https://github.com/joshsymonds/controlgap"
)

type sarifFormat struct {
	logger logger.Logger
}

// Build converts doc into a SARIF 2.1.0 report. Every requirement becomes a
// rule; every finding that is not MET becomes a result against that rule.
func (f *sarifFormat) Build(doc *Document) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(sarifToolName, sarifToolURI)
	for _, finding := range doc.Sorted() {
		level := toSarifLevel(finding.Priority)
		rule := run.AddRule(finding.RequirementID).
			WithName(finding.Standard + " " + finding.RequirementID).
			WithDescription(finding.Description).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level}).
			WithProperties(sarif.Properties{
				"standard":    finding.Standard,
				"category":    finding.Category,
				"risk_weight": finding.RiskWeight,
			})

		if finding.Status.IsMet() {
			continue
		}

		location := sarif.NewLocation().WithLogicalLocations([]*sarif.LogicalLocation{
			sarif.NewLogicalLocation().
				WithName(finding.RequirementID).
				WithFullyQualifiedName(finding.Standard + "/" + finding.RequirementID).
				WithKind("requirement"),
		})

		props := sarif.NewPropertyBag()
		props.Add("status", string(finding.Status))
		props.Add("risk_priority", string(finding.Priority))
		props.Add("max_coverage", finding.MaxCoverage)
		props.Add("all_controls", finding.AllControls)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(sarifMessage(finding))).
			WithLevel(level).
			WithLocations([]*sarif.Location{location})
		result.AttachPropertyBag(props)
		run.AddResult(result)
	}
	report.AddRun(run)
	return report, nil
}

// Generate writes the SARIF report.
func (f *sarifFormat) Generate(doc *Document, outputPath string) error {
	report, err := f.Build(doc)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.PrettyWrite(&buf); err != nil {
		return fmt.Errorf("encoding SARIF report: %w", err)
	}
	if err := writeOutput(outputPath, buf.Bytes()); err != nil {
		return err
	}

	f.logger.Info("Generated SARIF report", "path", outputPath)
	return nil
}

func (f *sarifFormat) Name() string { return FormatSARIF }

func (f *sarifFormat) Description() string {
	return "SARIF 2.1.0 log with one result per open requirement"
}

func (f *sarifFormat) Extension() string { return ".sarif" }

func sarifMessage(finding models.Finding) string {
	controls := finding.AllControls
	if controls == models.NoControls {
		controls = "none"
	}
	return fmt.Sprintf("%s %s: %s (controls: %s)",
		finding.Standard, finding.RequirementID, finding.Status, controls)
}

func toSarifLevel(p models.Priority) string {
	switch p {
	case models.PriorityCritical, models.PriorityHigh:
		return "error"
	case models.PriorityMedium:
		return "warning"
	case models.PriorityLow:
		return "note"
	default:
		return "none"
	}
}
