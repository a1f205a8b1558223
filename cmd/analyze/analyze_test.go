package analyze

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/controlgap/internal/config"
)

func writeDataset(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	files := map[string]string{
		config.DefaultRequirements: "Standard,Requirement_ID,Requirement_Description,Category,Risk_Weight\n" +
			"NIS2,NIS2-21a,Risk analysis policies,Risk,9\n" +
			"NIS2,NIS2-21b,Incident handling,Operations,7\n",
		config.DefaultControls: "controls:\n  - id: C-01\n    coverage_percent: 0\n",
		config.DefaultMapping:  "Control_ID,NIS2-21a,NIS2-21b\nC-01,Primary,\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	writeDataset(t, filepath.Join(dir, "inputs"))

	cmd := NewAnalyzeCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--data-dir", "inputs", "--output", "reports", "--format", "markdown, json"})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "Gap Analysis Summary")
	assert.Contains(t, text, "NIS2-21a")
	assert.Contains(t, text, "📄 Reports:")
	assert.Contains(t, text, "💾 Run saved:")

	md, err := filepath.Glob(filepath.Join(dir, "reports", "Gap_Analysis_Report_*.md"))
	require.NoError(t, err)
	assert.Len(t, md, 1)
	runs, err := os.ReadDir(filepath.Join(dir, "reports", "runs"))
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestAnalyzeCommand_NoSave(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	writeDataset(t, filepath.Join(dir, "data"))

	cmd := NewAnalyzeCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "csv", "--no-save"})
	require.NoError(t, cmd.Execute())

	assert.NoDirExists(t, filepath.Join(dir, "output", "runs"))
	csvFiles, err := filepath.Glob(filepath.Join(dir, "output", "Gap_Analysis_Data_*.csv"))
	require.NoError(t, err)
	assert.Len(t, csvFiles, 1)
}

func TestAnalyzeCommand_PublishNeedsTarget(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	writeDataset(t, filepath.Join(dir, "data"))

	cmd := NewAnalyzeCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--publish"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish.s3")
	assert.NoDirExists(t, filepath.Join(dir, "output"))
}

func TestAnalyzeCommand_MissingData(t *testing.T) {
	chdirForTest(t, t.TempDir())

	cmd := NewAnalyzeCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading dataset")
}
