package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

func TestSarifFormat_Build(t *testing.T) {
	f := &sarifFormat{logger: logger.NewMockLogger()}

	report, err := f.Build(testDocument())
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.Len(t, run.Tool.Driver.Rules, 4, "one rule per requirement")
	require.Len(t, run.Results, 3, "MET requirements produce no result")

	got := map[string]string{}
	for _, r := range run.Results {
		require.NotNil(t, r.RuleID)
		require.NotNil(t, r.Level)
		got[*r.RuleID] = *r.Level
	}
	assert.Equal(t, map[string]string{"R-01": "error", "R-02": "error", "R-04": "warning"}, got)

	first := run.Results[0]
	require.NotNil(t, first.Message.Text)
	assert.Equal(t, "NIS2 R-01: GAP (NO CONTROL MAPPED) (controls: none)", *first.Message.Text)
	require.Len(t, first.Locations, 1)
	require.Len(t, first.Locations[0].LogicalLocations, 1)
	loc := first.Locations[0].LogicalLocations[0]
	assert.Equal(t, "R-01", *loc.Name)
	assert.Equal(t, "NIS2/R-01", *loc.FullyQualifiedName)
	assert.Equal(t, "requirement", *loc.Kind)
}

func TestSarifFormat_Generate(t *testing.T) {
	log := logger.NewMockLogger()
	path := filepath.Join(t.TempDir(), "report.sarif")

	require.NoError(t, (&sarifFormat{logger: log}).Generate(testDocument(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Results []struct {
				RuleID     string         `json:"ruleId"`
				Properties map[string]any `json:"properties"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	require.Len(t, doc.Runs[0].Results, 3)
	assert.Equal(t, "C-1, C-2", doc.Runs[0].Results[1].Properties["all_controls"])
	assert.True(t, log.HasMessage("INFO", "Generated SARIF report"))
}

func TestToSarifLevel(t *testing.T) {
	assert.Equal(t, "error", toSarifLevel(models.PriorityCritical))
	assert.Equal(t, "error", toSarifLevel(models.PriorityHigh))
	assert.Equal(t, "warning", toSarifLevel(models.PriorityMedium))
	assert.Equal(t, "note", toSarifLevel(models.PriorityLow))
	assert.Equal(t, "none", toSarifLevel(models.PriorityNA))
}
