package report

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/controlgap/internal/remediation"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// RemediationReporter generates YAML remediation manifests grouped by control owner.
type RemediationReporter struct {
	logger  logger.Logger
	grouper *remediation.FindingGrouper
}

// NewRemediationReporter creates a new remediation reporter.
func NewRemediationReporter(log logger.Logger) *RemediationReporter {
	return &RemediationReporter{
		logger:  log,
		grouper: remediation.NewFindingGrouper(log),
	}
}

// Manifest builds the remediation manifest for doc without writing it.
func (r *RemediationReporter) Manifest(doc *Document) *remediation.Manifest {
	groups := r.grouper.GroupByOwner(doc.Findings, doc.Edges)
	return r.grouper.BuildManifest(groups, doc.RunID, doc.Title, doc.GeneratedAt)
}

// Generate creates a remediation manifest from the open findings in doc.
func (r *RemediationReporter) Generate(doc *Document, outputPath string) error {
	manifest := r.Manifest(doc)
	if len(manifest.Remediations) == 0 {
		r.logger.Warn("No open findings to remediate")
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(manifest); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := writeOutput(outputPath, buf.Bytes()); err != nil {
		return err
	}

	r.logger.Info("Generated remediation manifest",
		"path", outputPath,
		"remediations", len(manifest.Remediations))
	return nil
}

// Name returns the format identifier.
func (r *RemediationReporter) Name() string {
	return FormatRemediation
}

// Description returns a human-readable description.
func (r *RemediationReporter) Description() string {
	return "YAML manifest of open findings grouped by control owner"
}

// Extension returns the file extension.
func (r *RemediationReporter) Extension() string {
	return ".yaml"
}
