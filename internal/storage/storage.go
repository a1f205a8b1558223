// Package storage handles persistence of analysis runs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
	"github.com/joshsymonds/controlgap/pkg/pathutil"
)

// Files written into every run directory.
const (
	MetadataFile = "metadata.json"
	FindingsFile = "findings.json"
	EdgesFile    = "edges.json"
	RunLogFile   = "run.log"
)

const (
	runsDirName   = "runs"
	runDirLayout  = "2006-01-02-150405"
	logTimeLayout = "2006-01-02 15:04:05"
)

// ErrNoRuns is returned when the runs directory holds no run.
var ErrNoRuns = errors.New("no runs found")

// Run is a persisted analysis run.
type Run struct {
	Metadata *models.RunMetadata
	Dir      string
	Findings []models.Finding
	Edges    []models.Edge
}

// RunInfo provides summary information about a run.
type RunInfo struct {
	StartTime    time.Time
	ByPriority   map[string]int
	ID           string
	Path         string
	Project      string
	Title        string
	Total        int
	CriticalHigh int
}

// Storage handles saving and loading analysis runs under <baseDir>/runs.
type Storage struct {
	logger  logger.Logger
	baseDir string
}

// NewStorage creates a new storage instance.
func NewStorage(baseDir string) *Storage {
	return NewStorageWithLogger(baseDir, logger.GetGlobalLogger())
}

// NewStorageWithLogger creates a new storage instance with a custom logger.
func NewStorageWithLogger(baseDir string, log logger.Logger) *Storage {
	return &Storage{
		baseDir: baseDir,
		logger:  log,
	}
}

// BaseDir returns the base directory for the storage.
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// RunsDir returns the directory that holds one subdirectory per run.
func (s *Storage) RunsDir() string {
	return filepath.Join(s.baseDir, runsDirName)
}

// NewRunDir returns the directory a run started at now is stored in.
func (s *Storage) NewRunDir(now time.Time) string {
	return filepath.Join(s.RunsDir(), now.Format(runDirLayout))
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// SaveRun writes metadata, findings, edges and a human-readable log into dir.
func (s *Storage) SaveRun(dir string, metadata *models.RunMetadata, findings []models.Finding, edges []models.Edge) error {
	validDir, err := pathutil.ValidateDataPath(dir, "")
	if err != nil {
		return fmt.Errorf("invalid run directory: %w", err)
	}
	if mkErr := os.MkdirAll(validDir, 0750); mkErr != nil {
		return fmt.Errorf("creating run directory: %w", mkErr)
	}

	if findings == nil {
		findings = []models.Finding{}
	}
	if edges == nil {
		edges = []models.Edge{}
	}

	files := []struct {
		name string
		data any
	}{
		{MetadataFile, metadata},
		{FindingsFile, findings},
		{EdgesFile, edges},
	}
	for _, f := range files {
		path, err := pathutil.JoinAndValidate(validDir, f.name)
		if err != nil {
			return fmt.Errorf("invalid %s path: %w", f.name, err)
		}
		if err := s.saveJSON(path, f.data); err != nil {
			return fmt.Errorf("saving %s: %w", f.name, err)
		}
		s.logger.Debug("Saved run file", "path", path)
	}

	logPath, err := pathutil.JoinAndValidate(validDir, RunLogFile)
	if err != nil {
		s.logger.Warn("Invalid run log path", "error", err)
		return nil
	}
	if err := s.saveRunLog(logPath, metadata); err != nil {
		s.logger.Warn("Failed to save run log", "error", err)
	}

	s.logger.Info("Saved analysis run", "dir", validDir, "findings", len(findings))
	return nil
}

// LoadRun loads a run from its directory. Edges are optional.
func (s *Storage) LoadRun(dir string) (*Run, error) {
	validDir, err := pathutil.ValidateDataPath(dir, "")
	if err != nil {
		return nil, fmt.Errorf("invalid run directory: %w", err)
	}

	run := &Run{Dir: validDir, Metadata: &models.RunMetadata{}}

	metadataPath, err := pathutil.JoinAndValidate(validDir, MetadataFile)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata path: %w", err)
	}
	if err := s.loadJSON(metadataPath, run.Metadata); err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}

	findingsPath, err := pathutil.JoinAndValidate(validDir, FindingsFile)
	if err != nil {
		return nil, fmt.Errorf("invalid findings path: %w", err)
	}
	if err := s.loadJSON(findingsPath, &run.Findings); err != nil {
		return nil, fmt.Errorf("loading findings: %w", err)
	}

	edgesPath, err := pathutil.JoinAndValidate(validDir, EdgesFile)
	if err != nil {
		return nil, fmt.Errorf("invalid edges path: %w", err)
	}
	if err := s.loadJSON(edgesPath, &run.Edges); err != nil {
		// Not fatal: reports other than remediation do not need edges.
		s.logger.Warn("Failed to load edges", "error", err)
	}

	return run, nil
}

// FindLatestRun finds the most recent run directory.
func (s *Storage) FindLatestRun() (string, error) {
	names, err := s.runDirNames()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.RunsDir(), names[len(names)-1]), nil
}

// ResolveRun maps "latest" or an empty string to the newest run and returns other values unchanged.
func (s *Storage) ResolveRun(ref string) (string, error) {
	if ref == "" || ref == "latest" {
		return s.FindLatestRun()
	}
	return ref, nil
}

// ListRuns returns runs newest first. A limit of zero or less lists all runs.
// Directories without readable metadata are skipped.
func (s *Storage) ListRuns(limit int) ([]RunInfo, error) {
	names, err := s.runDirNames()
	if errors.Is(err, ErrNoRuns) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var runs []RunInfo
	for i := len(names) - 1; i >= 0; i-- {
		metadataPath, err := pathutil.JoinAndValidate(s.RunsDir(), names[i], MetadataFile)
		if err != nil {
			s.logger.Debug("Invalid metadata path", "dir", names[i], "error", err)
			continue
		}
		var metadata models.RunMetadata
		if err := s.loadJSON(metadataPath, &metadata); err != nil {
			s.logger.Debug("Skipping invalid run directory", "dir", names[i], "error", err)
			continue
		}

		runs = append(runs, RunInfo{
			ID:           metadata.ID,
			Path:         filepath.Join(s.RunsDir(), names[i]),
			Project:      metadata.Project,
			Title:        metadata.Title,
			StartTime:    metadata.StartTime,
			ByPriority:   metadata.ByPriority,
			Total:        metadata.Total,
			CriticalHigh: metadata.CriticalHigh,
		})

		if limit > 0 && len(runs) >= limit {
			break
		}
	}
	return runs, nil
}

// runDirNames returns run directory names in ascending (oldest first) order.
func (s *Storage) runDirNames() ([]string, error) {
	entries, err := os.ReadDir(s.RunsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRuns
		}
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, ErrNoRuns
	}
	sort.Strings(names)
	return names, nil
}

// saveJSON saves data as JSON to a file.
func (s *Storage) saveJSON(path string, data any) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // #nosec G304 - path is validated by caller
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// loadJSON loads JSON data from a file.
func (s *Storage) loadJSON(path string, data any) (err error) {
	file, err := os.Open(path) // #nosec G304 - path is validated by caller
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return json.NewDecoder(file).Decode(data)
}

// saveRunLog saves a human-readable run log.
func (s *Storage) saveRunLog(path string, metadata *models.RunMetadata) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // #nosec G304 - path is validated by caller
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := func(format string, args ...any) error {
		_, err := fmt.Fprintf(file, format, args...)
		return err
	}

	if err := w("Control Gap Analysis Run Log\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w("============================\n\n"); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}
	if err := w("Run: %s\nProject: %s\nTitle: %s\n", metadata.ID, metadata.Project, metadata.Title); err != nil {
		return fmt.Errorf("writing run header: %w", err)
	}
	if err := w("Start Time: %s\n", metadata.StartTime.Format(logTimeLayout)); err != nil {
		return fmt.Errorf("writing start time: %w", err)
	}
	if err := w("End Time: %s\n", metadata.EndTime.Format(logTimeLayout)); err != nil {
		return fmt.Errorf("writing end time: %w", err)
	}
	if err := w("Duration: %s\n\n", metadata.EndTime.Sub(metadata.StartTime)); err != nil {
		return fmt.Errorf("writing duration: %w", err)
	}

	if err := w("Inputs:\n  Requirements: %s\n  Controls: %s\n  Mapping: %s\n",
		metadata.Requirements, metadata.Controls, metadata.Mapping); err != nil {
		return fmt.Errorf("writing inputs: %w", err)
	}

	if err := w("\nSummary:\n  Total Requirements: %d\n  Critical/High: %d\n", metadata.Total, metadata.CriticalHigh); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	for _, p := range models.ValidPriorities() {
		if count := metadata.ByPriority[string(p)]; count > 0 {
			if err := w("  %s: %d\n", p, count); err != nil {
				return fmt.Errorf("writing priority count: %w", err)
			}
		}
	}

	if len(metadata.UnknownControls) > 0 {
		if err := w("\nControls missing from catalogue:\n"); err != nil {
			return fmt.Errorf("writing unknown controls header: %w", err)
		}
		for _, id := range metadata.UnknownControls {
			if err := w("  - %s\n", id); err != nil {
				return fmt.Errorf("writing unknown control: %w", err)
			}
		}
	}
	if len(metadata.UnknownRequirements) > 0 {
		if err := w("\nMapping columns without a requirement:\n"); err != nil {
			return fmt.Errorf("writing unknown requirements header: %w", err)
		}
		for _, id := range metadata.UnknownRequirements {
			if err := w("  - %s\n", id); err != nil {
				return fmt.Errorf("writing unknown requirement: %w", err)
			}
		}
	}

	if len(metadata.Reports) > 0 {
		if err := w("\nReports:\n"); err != nil {
			return fmt.Errorf("writing reports header: %w", err)
		}
		for _, r := range metadata.Reports {
			if err := w("  - %s\n", r); err != nil {
				return fmt.Errorf("writing report path: %w", err)
			}
		}
	}

	return nil
}
