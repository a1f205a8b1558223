// Package dataset loads the three gap-analysis inputs from disk: the requirements
// CSV, the implemented controls YAML catalogue and the control mapping CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/controlgap/internal/analysis"
	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
	"github.com/joshsymonds/controlgap/pkg/pathutil"
)

// ErrLoad marks an input that could not be read or parsed.
var ErrLoad = errors.New("load error")

// Column names of the requirements and mapping tables.
const (
	ColRequirementID = "Requirement_ID"
	ColStandard      = "Standard"
	ColCategory      = "Category"
	ColDescription   = "Requirement_Description"
	ColRiskWeight    = "Risk_Weight"
	ColControlID     = "Control_ID"
)

// riskWeightAliases lists accepted headers for the weight column, preferred first.
var riskWeightAliases = []string{ColRiskWeight, "Risk_Weight (1-10)"}

const utf8BOM = "\uFEFF"

// Paths locates the input files.
type Paths struct {
	Requirements string `yaml:"requirements"`
	Controls     string `yaml:"controls"`
	Mapping      string `yaml:"mapping"`
}

// Loader reads a Dataset from Paths.
type Loader struct {
	logger logger.Logger
	paths  Paths
}

// NewLoader creates a loader using the global logger.
func NewLoader(paths Paths) *Loader {
	return NewLoaderWithLogger(paths, logger.GetGlobalLogger())
}

// NewLoaderWithLogger creates a loader with a custom logger.
func NewLoaderWithLogger(paths Paths, log logger.Logger) *Loader {
	return &Loader{paths: paths, logger: log}
}

// Load reads and parses all three inputs. Any failure aborts the load.
func (l *Loader) Load() (*models.Dataset, error) {
	ds := &models.Dataset{}

	reqs, err := loadFile(l.paths.Requirements, "requirements", ParseRequirements, ".csv")
	if err != nil {
		return nil, err
	}
	ds.Requirements = reqs
	l.logger.Debug("Loaded requirements", "path", l.paths.Requirements, "count", len(reqs))

	controls, err := loadFile(l.paths.Controls, "controls", ParseControls, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	ds.Controls = controls
	l.logger.Debug("Loaded controls", "path", l.paths.Controls, "count", len(controls))

	mapping, err := loadFile(l.paths.Mapping, "mapping", ParseMapping, ".csv")
	if err != nil {
		return nil, err
	}
	ds.Mapping = *mapping
	l.logger.Debug("Loaded mapping",
		"path", l.paths.Mapping,
		"controls", len(mapping.Rows),
		"requirements", len(mapping.RequirementIDs))

	l.logger.Info("Data loaded successfully",
		"requirements", len(ds.Requirements),
		"controls", len(ds.Controls),
		"mapping_rows", len(ds.Mapping.Rows))
	return ds, nil
}

func loadFile[T any](path, what string, parse func(io.Reader) (T, error), extensions ...string) (T, error) {
	var zero T
	if path == "" {
		return zero, fmt.Errorf("%w: no %s file configured", ErrLoad, what)
	}
	validPath, err := pathutil.ValidateInputFile(path, extensions...)
	if err != nil {
		return zero, fmt.Errorf("%w: %s file: %w", ErrLoad, what, err)
	}

	f, err := os.Open(validPath) // #nosec G304 - path validated above
	if err != nil {
		return zero, fmt.Errorf("%w: opening %s file: %w", ErrLoad, what, err)
	}
	defer func() { _ = f.Close() }()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("loading %s from %s: %w", what, path, err)
	}
	return v, nil
}

// readCSV reads every record of r. Rows may have differing lengths; the
// engine decides whether that is acceptable.
func readCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parsing CSV: %w", ErrLoad, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: CSV has no header row", analysis.ErrSchema)
	}

	header = make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}
	return header, records[1:], nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseRequirements reads the requirements table.
func ParseRequirements(r io.Reader) ([]models.Requirement, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	idx := columnIndex(header)

	for _, col := range []string{ColRequirementID, ColStandard, ColCategory, ColDescription} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: requirements missing column %q", analysis.ErrSchema, col)
		}
	}
	weightCol := -1
	for _, alias := range riskWeightAliases {
		if i, ok := idx[alias]; ok {
			weightCol = i
			break
		}
	}
	if weightCol < 0 {
		return nil, fmt.Errorf("%w: requirements missing column %q", analysis.ErrSchema, ColRiskWeight)
	}

	reqs := make([]models.Requirement, 0, len(rows))
	for n, row := range rows {
		id := strings.TrimSpace(cell(row, idx[ColRequirementID]))
		weight, err := parseWeight(cell(row, weightCol))
		if err != nil {
			return nil, fmt.Errorf("%w: requirement row %d (%s): %w", analysis.ErrSchema, n+2, id, err)
		}
		reqs = append(reqs, models.Requirement{
			ID:          id,
			Standard:    cell(row, idx[ColStandard]),
			Category:    cell(row, idx[ColCategory]),
			Description: cell(row, idx[ColDescription]),
			RiskWeight:  weight,
		})
	}
	return reqs, nil
}

// parseWeight accepts integers, and floats with no fractional part ("8.0").
func parseWeight(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("missing risk weight")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Trunc(f) != f || math.IsInf(f, 0) {
		return 0, fmt.Errorf("risk weight %q is not an integer", raw)
	}
	return int(f), nil
}

type controlsFile struct {
	Controls []models.Control `yaml:"controls"`
}

// ParseControls reads the YAML control catalogue. A document without a
// controls key yields an empty catalogue.
func ParseControls(r io.Reader) ([]models.Control, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading controls: %w", ErrLoad, err)
	}

	var doc controlsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing controls YAML: %w", ErrLoad, err)
	}
	for i := range doc.Controls {
		doc.Controls[i].ID = models.ControlID(strings.TrimSpace(string(doc.Controls[i].ID)))
	}
	return doc.Controls, nil
}

// ParseMapping reads the wide mapping matrix. The first column must be
// Control_ID; every other header names a requirement. Cells are kept verbatim
// and short rows are padded with blank cells.
func ParseMapping(r io.Reader) (*models.Mapping, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if header[0] != ColControlID {
		return nil, fmt.Errorf("%w: mapping first column must be %q, got %q", analysis.ErrSchema, ColControlID, header[0])
	}

	m := &models.Mapping{
		RequirementIDs: append([]string(nil), header[1:]...),
		Rows:           make([]models.MappingRow, 0, len(rows)),
	}
	width := len(m.RequirementIDs)
	for _, row := range rows {
		cells := append([]string(nil), row[min(1, len(row)):]...)
		// Missing trailing cells are blank; extra cells are left for the engine to reject.
		for len(cells) < width {
			cells = append(cells, "")
		}
		m.Rows = append(m.Rows, models.MappingRow{
			ControlID: strings.TrimSpace(cell(row, 0)),
			Cells:     cells,
		})
	}
	return m, nil
}
