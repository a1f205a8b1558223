package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/internal/dataset"
	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/internal/storage"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

const requirementsCSV = `Standard,Requirement_ID,Requirement_Description,Category,Risk_Weight (1-10)
NIS2,NIS2-21a,Policies on risk analysis,Risk,9
ISO 27001,ISO-A.5.1,Information security policies,Governance,6
`

const controlsYAML = `controls:
  - id: C-01
    coverage_percent: 40
    owner: alice
    remediation_plan: Roll out EDR to servers
  - id: 102
    coverage_percent: 100
`

const mappingCSV = `Control_ID,NIS2-21a,ISO-A.5.1,X-1
C-01,Primary,,
102,,Supporting,Primary
C-99,Supporting,,
`

var fixedTime = time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)

type fakePublisher struct {
	err   error
	runID string
	files []string
}

func (f *fakePublisher) Publish(_ context.Context, runID string, files []string) ([]string, error) {
	f.runID = runID
	f.files = files
	if f.err != nil {
		return nil, f.err
	}
	keys := make([]string, len(files))
	for i, file := range files {
		keys[i] = "reports/" + runID + "/" + filepath.Base(file)
	}
	return keys, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultRequirements), []byte(requirementsCSV), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultControls), []byte(controlsYAML), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultMapping), []byte(mappingCSV), 0600))

	cfg := config.Default()
	cfg.Project.Name = "acme"
	cfg.Data.Dir = dir
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.Formats = []string{"markdown", "csv"}
	return cfg
}

func newTestPipeline(cfg *config.Config, log logger.Logger) *Pipeline {
	p := NewPipelineWithLogger(cfg, log)
	p.SetClock(func() time.Time { return fixedTime })
	return p
}

func TestPipeline_Analyze(t *testing.T) {
	log := logger.NewMockLogger()
	result, err := newTestPipeline(testConfig(t), log).Analyze()
	require.NoError(t, err)

	require.Len(t, result.Findings, 2)
	assert.Equal(t, "NIS2-21a", result.Findings[0].RequirementID)
	assert.Equal(t, models.PartialStatus(40), result.Findings[0].Status)
	assert.Equal(t, models.PriorityHigh, result.Findings[0].Priority)
	assert.Equal(t, models.StatusMet, result.Findings[1].Status)
	assert.Equal(t, models.PriorityLow, result.Findings[1].Priority)

	assert.Equal(t, []string{"C-99"}, result.UnknownControlIDs)
	assert.Equal(t, []string{"X-1"}, result.UnknownRequirementIDs)
	assert.True(t, log.HasMessageContaining("WARN", "Mapped controls missing from catalogue"))
	assert.True(t, log.HasMessage("WARN", "Mapping columns without a requirement are ignored"))
}

func TestPipeline_AnalyzeLoadError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Mapping = "missing.csv"

	_, err := newTestPipeline(cfg, logger.NewMockLogger()).Analyze()
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrLoad)
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t)
	pub := &fakePublisher{}
	p := newTestPipeline(cfg, logger.NewMockLogger())
	p.SetPublisher(pub)

	outcome, err := p.Run(context.Background(), Options{Publish: true})
	require.NoError(t, err)

	require.Len(t, outcome.Reports, 2)
	assert.Equal(t, "Gap_Analysis_Report_20240314_092653.md", filepath.Base(outcome.Reports[0]))
	assert.Equal(t, "Gap_Analysis_Data_20240314.csv", filepath.Base(outcome.Reports[1]))
	for _, path := range outcome.Reports {
		assert.FileExists(t, path)
	}

	meta := outcome.Metadata
	assert.Equal(t, meta.ID, outcome.Document.RunID)
	assert.Equal(t, meta.ID, pub.runID)
	assert.Equal(t, outcome.Reports, pub.files)
	assert.Len(t, outcome.Published, 2)
	assert.Equal(t, "acme", meta.Project)
	assert.Equal(t, config.DefaultTitle, meta.Title)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 1, meta.CriticalHigh)
	assert.Equal(t, map[string]int{"High": 1, "Low": 1}, meta.ByPriority)

	assert.Equal(t, filepath.Join(cfg.Output.Dir, "runs", "2024-03-14-092653"), outcome.RunDir)
	run, err := storage.NewStorageWithLogger(cfg.Output.Dir, logger.NewMockLogger()).LoadRun(outcome.RunDir)
	require.NoError(t, err)
	assert.Equal(t, outcome.Published, run.Metadata.Published)
	assert.Equal(t, []string{"C-99"}, run.Metadata.UnknownControls)
	assert.Equal(t, outcome.Result.Findings, run.Findings)
}

func TestPipeline_RunOverrides(t *testing.T) {
	cfg := testConfig(t)
	outDir := filepath.Join(t.TempDir(), "elsewhere")

	outcome, err := newTestPipeline(cfg, logger.NewMockLogger()).Run(context.Background(), Options{
		OutputDir: outDir,
		Formats:   []string{"json"},
		NoSave:    true,
	})
	require.NoError(t, err)

	require.Len(t, outcome.Reports, 1)
	assert.Equal(t, outDir, filepath.Dir(outcome.Reports[0]))
	assert.Empty(t, outcome.RunDir)
	assert.NoDirExists(t, filepath.Join(outDir, "runs"))
	assert.NotNil(t, outcome.Metadata)
}

func TestPipeline_PublishWithoutTarget(t *testing.T) {
	cfg := testConfig(t)

	_, err := newTestPipeline(cfg, logger.NewMockLogger()).Run(context.Background(), Options{Publish: true})
	require.ErrorIs(t, err, ErrNoPublisher)
	assert.NoDirExists(t, cfg.Output.Dir, "nothing is rendered")
}

func TestPipeline_PublishFailureStillSaves(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(cfg, logger.NewMockLogger())
	p.SetPublisher(&fakePublisher{err: errors.New("access denied")})

	outcome, err := p.Run(context.Background(), Options{Publish: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishing reports: access denied")

	require.NotNil(t, outcome)
	assert.DirExists(t, outcome.RunDir)
	assert.Empty(t, outcome.Metadata.Published)
}

func TestPipeline_RunRejectsUnknownFormat(t *testing.T) {
	cfg := testConfig(t)

	_, err := newTestPipeline(cfg, logger.NewMockLogger()).Run(context.Background(), Options{Formats: []string{"docx"}})
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(cfg.Output.Dir, "runs"))
}

func TestDocumentFromRun(t *testing.T) {
	cfg := testConfig(t)
	outcome, err := newTestPipeline(cfg, logger.NewMockLogger()).Run(context.Background(), Options{})
	require.NoError(t, err)

	run, err := storage.NewStorageWithLogger(cfg.Output.Dir, logger.NewMockLogger()).LoadRun(outcome.RunDir)
	require.NoError(t, err)

	doc := DocumentFromRun(run)
	assert.Equal(t, outcome.Document.Title, doc.Title)
	assert.Equal(t, outcome.Document.RunID, doc.RunID)
	assert.Equal(t, "acme", doc.Project)
	assert.True(t, fixedTime.Equal(doc.GeneratedAt))
	assert.Equal(t, outcome.Document.Summary, doc.Summary)
	assert.Equal(t, []string{"X-1"}, doc.UnknownRequirements)
}

func TestPipeline_RunSanitizeCSV(t *testing.T) {
	tests := []struct {
		name     string
		sanitize bool
		want     string
	}{
		{name: "off by default", want: "NIS2,NIS2-21a,=1+1,"},
		{name: "enabled in config", sanitize: true, want: "NIS2,NIS2-21a,'=1+1,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			reqs := "Standard,Requirement_ID,Requirement_Description,Category,Risk_Weight (1-10)\n" +
				"NIS2,NIS2-21a,=1+1,Risk,9\n"
			require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.Dir, config.DefaultRequirements), []byte(reqs), 0600))
			cfg.Output.SanitizeCSV = tt.sanitize

			outcome, err := newTestPipeline(cfg, logger.NewMockLogger()).Run(context.Background(), Options{
				Formats: []string{"csv"},
				NoSave:  true,
			})
			require.NoError(t, err)
			require.Len(t, outcome.Reports, 1)

			data, err := os.ReadFile(outcome.Reports[0])
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)
		})
	}
}
