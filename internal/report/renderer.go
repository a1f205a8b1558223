package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshsymonds/controlgap/pkg/logger"
	"github.com/joshsymonds/controlgap/pkg/pathutil"
)

const (
	reportFilePrefix = "Gap_Analysis_Report_"
	dataFilePrefix   = "Gap_Analysis_Data_"
	fallbackExt      = ".txt"
)

// Renderer generates a set of report formats into one output directory.
type Renderer struct {
	logger     logger.Logger
	csvOptions CSVOptions
}

// NewRenderer creates a renderer using the global logger.
func NewRenderer() *Renderer {
	return NewRendererWithLogger(logger.GetGlobalLogger())
}

// NewRendererWithLogger creates a renderer with a custom logger.
func NewRendererWithLogger(log logger.Logger) *Renderer {
	return &Renderer{logger: log}
}

// SetCSVOptions configures the csv format rendered by this renderer.
func (r *Renderer) SetCSVOptions(opts CSVOptions) {
	r.csvOptions = opts
}

// FileName returns the file name a format is written to for a run generated at doc.GeneratedAt.
// The CSV export is named per day; every other format carries the full timestamp.
func FileName(doc *Document, format Format) string {
	if format.Name() == FormatCSV {
		return dataFilePrefix + doc.GeneratedAt.Format("20060102") + format.Extension()
	}
	return reportFilePrefix + doc.GeneratedAt.Format("20060102_150405") + format.Extension()
}

// Render writes every requested format for doc into outputDir and returns the
// written paths in request order. A format requested more than once is
// rendered once. A failed PDF is replaced by the Markdown text
// in a .txt file next to where the PDF would have gone; any other failure stops
// rendering and is returned.
func (r *Renderer) Render(doc *Document, outputDir string, formats []string) ([]string, error) {
	if len(formats) == 0 {
		return nil, errors.New("no report formats requested")
	}

	formatters := make([]Format, 0, len(formats))
	seen := make(map[string]struct{}, len(formats))
	for _, name := range formats {
		if _, dup := seen[name]; dup {
			r.logger.Debug("Skipping repeated report format", "format", name)
			continue
		}
		seen[name] = struct{}{}

		f, err := GetFormat(name, r.logger)
		if err != nil {
			return nil, fmt.Errorf("getting format %s: %w", name, err)
		}
		if name == FormatCSV {
			f = NewCSVFormat(r.logger, r.csvOptions)
		}
		formatters = append(formatters, f)
	}

	var written []string
	for _, f := range formatters {
		outputFile := filepath.Join(outputDir, FileName(doc, f))
		r.logger.Debug("Generating report", "format", f.Name(), "path", outputFile)

		if err := f.Generate(doc, outputFile); err != nil {
			if f.Name() != FormatPDF {
				return written, fmt.Errorf("generating %s report: %w", f.Name(), err)
			}

			r.logger.Error("PDF generation failed, writing plain-text report instead", "error", err)
			// A partial PDF may have been left behind.
			_ = os.Remove(outputFile)
			outputFile = outputFile[:len(outputFile)-len(f.Extension())] + fallbackExt
			if werr := writeOutput(outputFile, []byte(RenderMarkdown(doc))); werr != nil {
				return written, fmt.Errorf("writing plain-text fallback: %w", werr)
			}
		}
		written = append(written, outputFile)
	}

	r.logger.Info("Reports generated", "count", len(written), "dir", outputDir)
	return written, nil
}

// prepareOutput validates an output path and creates its parent directory.
func prepareOutput(outputPath string) (string, error) {
	cleanPath, err := pathutil.ValidatePath(outputPath)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	validPath, err := pathutil.ValidateOutputPath(cleanPath)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	return validPath, nil
}

// writeOutput writes data to a validated output path.
func writeOutput(outputPath string, data []byte) error {
	validPath, err := prepareOutput(outputPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(validPath, data, 0600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
