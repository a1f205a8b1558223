// Package report renders gap-analysis results into report files.
package report

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/joshsymonds/controlgap/pkg/logger"
)

// ErrUnknownFormat is returned for format names that are not registered.
var ErrUnknownFormat = errors.New("unknown report format")

// Format represents a report generation strategy.
type Format interface {
	// Generate writes the report for doc to outputPath.
	Generate(doc *Document, outputPath string) error
	// Name returns the format identifier (e.g., "markdown", "pdf", "sarif").
	Name() string
	// Description returns a human-readable description of the format.
	Description() string
	// Extension returns the file extension, including the dot.
	Extension() string
}

// FormatFactory creates instances of report formats.
type FormatFactory func(log logger.Logger) (Format, error)

var (
	formatRegistry = make(map[string]FormatFactory)
	registryMutex  sync.RWMutex
)

// RegisterFormat registers a new report format factory.
func RegisterFormat(name string, factory FormatFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("report: RegisterFormat factory is nil for format %q", name))
	}
	if _, dup := formatRegistry[name]; dup {
		panic(fmt.Sprintf("report: RegisterFormat called twice for format %q", name))
	}
	formatRegistry[name] = factory
}

// GetFormat creates an instance of the specified report format.
func GetFormat(name string, log logger.Logger) (Format, error) {
	registryMutex.RLock()
	factory, exists := formatRegistry[name]
	registryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}

	return factory(log)
}

// IsRegistered reports whether a format with the given name exists.
func IsRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := formatRegistry[name]
	return ok
}

// ListFormats returns the sorted names of all registered formats.
func ListFormats() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	formats := make([]string, 0, len(formatRegistry))
	for name := range formatRegistry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// Register built-in formats during package initialization.
func init() {
	RegisterFormat(FormatMarkdown, func(log logger.Logger) (Format, error) {
		return &markdownFormat{logger: log}, nil
	})
	RegisterFormat(FormatPDF, func(log logger.Logger) (Format, error) {
		return NewPDFFormat(log), nil
	})
	RegisterFormat(FormatCSV, func(log logger.Logger) (Format, error) {
		return NewCSVFormat(log, CSVOptions{}), nil
	})
	RegisterFormat(FormatJSON, func(log logger.Logger) (Format, error) {
		return &jsonFormat{logger: log}, nil
	})
	RegisterFormat(FormatSARIF, func(log logger.Logger) (Format, error) {
		return &sarifFormat{logger: log}, nil
	})
	RegisterFormat(FormatRemediation, func(log logger.Logger) (Format, error) {
		return NewRemediationReporter(log), nil
	})
	RegisterFormat(FormatMetrics, func(log logger.Logger) (Format, error) {
		return &metricsFormat{logger: log}, nil
	})
}

// Built-in format names.
const (
	FormatMarkdown    = "markdown"
	FormatPDF         = "pdf"
	FormatCSV         = "csv"
	FormatJSON        = "json"
	FormatSARIF       = "sarif"
	FormatRemediation = "remediation"
	FormatMetrics     = "metrics"
)
