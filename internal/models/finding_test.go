package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFindingRecord(t *testing.T) {
	f := Finding{
		Standard:      "ISO 27001",
		RequirementID: "A.5.1",
		Description:   "Policies for information security",
		Category:      "Governance",
		RiskWeight:    8,
		Status:        PartialStatus(62.5),
		MaxCoverage:   62.5,
		Priority:      PriorityHigh,
		AllControls:   "C-1, C-2",
	}

	record := f.Record()
	require.Len(t, record, len(FindingColumns))
	assert.Equal(t, []string{
		"ISO 27001",
		"A.5.1",
		"Policies for information security",
		"Governance",
		"8",
		"PARTIAL (Max 62%)",
		"62.5",
		"High",
		"C-1, C-2",
	}, record)
}

func TestFormatCoverage(t *testing.T) {
	tests := []struct {
		want string
		in   float64
	}{
		{in: 0, want: "0"},
		{in: 100, want: "100"},
		{in: 90, want: "90"},
		{in: 33.3, want: "33.3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCoverage(tt.in))
		})
	}
}

func TestIsActiveMappingType(t *testing.T) {
	assert.True(t, IsActiveMappingType("Primary"))
	assert.True(t, IsActiveMappingType("Supporting"))

	for _, cell := range []string{"", "primary", "SUPPORTING", " Primary", "Primary ", "N/A", "Partial"} {
		assert.False(t, IsActiveMappingType(cell), "cell %q must not be active", cell)
	}
}

func TestControlIDUnmarshalYAML(t *testing.T) {
	var doc struct {
		Controls []Control `yaml:"controls"`
	}
	input := `
controls:
  - id: 101
    coverage_percent: 80
  - id: AC-2
  - id: "007"
    coverage_percent: 12.5
`
	require.NoError(t, yaml.Unmarshal([]byte(input), &doc))
	require.Len(t, doc.Controls, 3)

	assert.Equal(t, ControlID("101"), doc.Controls[0].ID)
	assert.Equal(t, ControlID("AC-2"), doc.Controls[1].ID)
	assert.Equal(t, ControlID("007"), doc.Controls[2].ID)

	cov, ok := doc.Controls[0].Coverage()
	assert.True(t, ok)
	assert.InDelta(t, 80.0, cov, 0)

	_, ok = doc.Controls[1].Coverage()
	assert.False(t, ok, "missing coverage must be undefined, not zero")
}

func TestControlIDUnmarshalYAML_RejectsNonScalar(t *testing.T) {
	var c Control
	err := yaml.Unmarshal([]byte("id: [1, 2]"), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control id must be a scalar")
}
