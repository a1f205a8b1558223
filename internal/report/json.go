package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/joshsymonds/controlgap/internal/analysis"
	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// JSONReport is the document written by the json format.
type JSONReport struct {
	GeneratedAt         time.Time        `json:"generated_at"`
	Title               string           `json:"title"`
	RunID               string           `json:"run_id,omitempty"`
	Findings            []models.Finding `json:"findings"`
	UnknownControls     []string         `json:"unknown_controls,omitempty"`
	UnknownRequirements []string         `json:"unknown_requirements,omitempty"`
	Summary             analysis.Summary `json:"summary"`
}

type jsonFormat struct {
	logger logger.Logger
}

// Generate writes findings and summary as indented JSON.
func (f *jsonFormat) Generate(doc *Document, outputPath string) error {
	out := JSONReport{
		GeneratedAt:         doc.GeneratedAt,
		Title:               doc.Title,
		RunID:               doc.RunID,
		Findings:            doc.Findings,
		UnknownControls:     doc.UnknownControls,
		UnknownRequirements: doc.UnknownRequirements,
		Summary:             doc.Summary,
	}
	if out.Findings == nil {
		out.Findings = []models.Finding{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON report: %w", err)
	}
	if err := writeOutput(outputPath, data); err != nil {
		return err
	}
	f.logger.Info("Generated JSON report", "path", outputPath)
	return nil
}

func (f *jsonFormat) Name() string { return FormatJSON }

func (f *jsonFormat) Description() string { return "JSON document with findings and summary" }

func (f *jsonFormat) Extension() string { return ".json" }
