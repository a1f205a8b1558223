// Package pipeline runs a gap analysis end to end: it loads the dataset,
// analyzes it, renders reports, saves the run and optionally publishes the
// rendered files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshsymonds/controlgap/internal/analysis"
	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/internal/dataset"
	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/internal/report"
	"github.com/joshsymonds/controlgap/internal/storage"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// ErrNoPublisher is returned when publishing is requested without a target.
var ErrNoPublisher = errors.New("no publish target configured")

// Publisher uploads rendered report files for a run and returns their remote keys.
type Publisher interface {
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}

// Options adjust a single run. Zero values fall back to the configuration.
type Options struct {
	OutputDir string
	Formats   []string
	NoSave    bool
	Publish   bool
}

// Outcome is everything a run produced.
type Outcome struct {
	Result    *analysis.Result
	Document  *report.Document
	Metadata  *models.RunMetadata
	RunDir    string // empty when the run was not saved
	Reports   []string
	Published []string
}

// Pipeline coordinates the stages of an analysis run.
type Pipeline struct {
	logger    logger.Logger
	config    *config.Config
	publisher Publisher
	now       func() time.Time
}

// NewPipeline creates a pipeline for cfg.
func NewPipeline(cfg *config.Config) *Pipeline {
	return NewPipelineWithLogger(cfg, logger.GetGlobalLogger())
}

// NewPipelineWithLogger creates a pipeline for cfg with a custom logger.
func NewPipelineWithLogger(cfg *config.Config, log logger.Logger) *Pipeline {
	return &Pipeline{
		config: cfg,
		logger: log,
		now:    time.Now,
	}
}

// SetPublisher sets the target used when Options.Publish is set.
func (p *Pipeline) SetPublisher(pub Publisher) {
	p.publisher = pub
}

// SetClock replaces the time source used for run timestamps.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Analyze loads the configured dataset and runs the engine over it. Unknown
// identifiers are logged as warnings.
func (p *Pipeline) Analyze() (*analysis.Result, error) {
	paths := p.config.DatasetPaths()
	p.logger.Info("Loading dataset",
		"requirements", paths.Requirements,
		"controls", paths.Controls,
		"mapping", paths.Mapping,
	)

	ds, err := dataset.NewLoaderWithLogger(paths, p.logger).Load()
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	result, err := analysis.Analyze(ds)
	if err != nil {
		return nil, fmt.Errorf("analyzing dataset: %w", err)
	}

	if len(result.UnknownControlIDs) > 0 {
		p.logger.Warn("Mapped controls missing from catalogue; they count as undefined coverage",
			"controls", result.UnknownControlIDs)
	}
	if len(result.UnknownRequirementIDs) > 0 {
		p.logger.Warn("Mapping columns without a requirement are ignored",
			"requirements", result.UnknownRequirementIDs)
	}
	return result, nil
}

// Run performs a full analysis run: analyze, render, publish, then save.
// A failed upload still saves the run before the error is returned.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Outcome, error) {
	if opts.Publish && p.publisher == nil {
		return nil, ErrNoPublisher
	}

	start := p.now()
	result, err := p.Analyze()
	if err != nil {
		return nil, err
	}

	runID := storage.NewRunID()
	doc := report.NewDocument(p.config.Title(), runID, result.Findings, result.Edges, start)
	doc.Project = p.config.Project.Name
	doc.UnknownControls = result.UnknownControlIDs
	doc.UnknownRequirements = result.UnknownRequirementIDs

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = p.config.Output.Dir
	}
	formats := opts.Formats
	if len(formats) == 0 {
		formats = p.config.Output.Formats
	}

	renderer := report.NewRendererWithLogger(p.logger)
	renderer.SetCSVOptions(report.CSVOptions{SanitizeFormulas: p.config.Output.SanitizeCSV})
	reports, err := renderer.Render(doc, outputDir, formats)
	if err != nil {
		return nil, fmt.Errorf("rendering reports: %w", err)
	}

	outcome := &Outcome{
		Result:   result,
		Document: doc,
		Reports:  reports,
	}

	var publishErr error
	if opts.Publish {
		if err := ctx.Err(); err != nil {
			publishErr = err
		} else {
			outcome.Published, publishErr = p.publisher.Publish(ctx, runID, reports)
		}
	}

	paths := p.config.DatasetPaths()
	outcome.Metadata = &models.RunMetadata{
		ID:                  runID,
		Project:             p.config.Project.Name,
		Title:               doc.Title,
		StartTime:           start,
		EndTime:             p.now(),
		Requirements:        paths.Requirements,
		Controls:            paths.Controls,
		Mapping:             paths.Mapping,
		Reports:             reports,
		Published:           outcome.Published,
		UnknownControls:     result.UnknownControlIDs,
		UnknownRequirements: result.UnknownRequirementIDs,
		Total:               doc.Summary.Total,
		CriticalHigh:        doc.Summary.CriticalHigh,
		ByPriority:          doc.Summary.PriorityCounts(),
	}

	if !opts.NoSave {
		store := storage.NewStorageWithLogger(outputDir, p.logger)
		dir := store.NewRunDir(start)
		if err := store.SaveRun(dir, outcome.Metadata, result.Findings, result.Edges); err != nil {
			return outcome, fmt.Errorf("saving run: %w", err)
		}
		outcome.RunDir = dir
	}

	if publishErr != nil {
		return outcome, fmt.Errorf("publishing reports: %w", publishErr)
	}
	return outcome, nil
}

// DocumentFromRun rebuilds the report document of a saved run. The document
// keeps the run's start time so re-rendered files get the original names.
func DocumentFromRun(run *storage.Run) *report.Document {
	meta := run.Metadata
	doc := report.NewDocument(meta.Title, meta.ID, run.Findings, run.Edges, meta.StartTime)
	doc.Project = meta.Project
	doc.UnknownControls = meta.UnknownControls
	doc.UnknownRequirements = meta.UnknownRequirements
	return doc
}
