package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// CSVOptions configures the CSV export.
type CSVOptions struct {
	// ExcelCompatible adds a UTF-8 BOM so Excel detects the encoding.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing cells that start
	// with = + - @ TAB or CR with a single quote. Sanitized cells no longer
	// match the findings table verbatim.
	SanitizeFormulas bool
}

// CSVFormat exports the findings table in engine order.
type CSVFormat struct {
	logger logger.Logger
	opts   CSVOptions
}

// NewCSVFormat creates a CSV format.
func NewCSVFormat(log logger.Logger, opts CSVOptions) *CSVFormat {
	return &CSVFormat{logger: log, opts: opts}
}

// Write writes the header and one record per finding to w.
func (c *CSVFormat) Write(w io.Writer, findings []models.Finding) error {
	if c.opts.ExcelCompatible {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return fmt.Errorf("writing BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(models.FindingColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, f := range findings {
		record := f.Record()
		if c.opts.SanitizeFormulas {
			for i := range record {
				record[i] = sanitizeCSVField(record[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV record %s: %w", f.RequirementID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Generate writes the CSV export.
func (c *CSVFormat) Generate(doc *Document, outputPath string) error {
	var buf bytes.Buffer
	if err := c.Write(&buf, doc.Findings); err != nil {
		return err
	}
	if err := writeOutput(outputPath, buf.Bytes()); err != nil {
		return err
	}
	c.logger.Info("Data saved for external analysis", "path", outputPath, "rows", len(doc.Findings))
	return nil
}

// Name returns the format identifier.
func (c *CSVFormat) Name() string { return FormatCSV }

// Description returns a human-readable description.
func (c *CSVFormat) Description() string {
	if c.opts.SanitizeFormulas {
		return "Flat CSV export of the findings table, with spreadsheet formulas neutralized"
	}
	return "Flat CSV export of the findings table for external analysis"
}

// Extension returns the file extension.
func (c *CSVFormat) Extension() string { return ".csv" }

func sanitizeCSVField(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
