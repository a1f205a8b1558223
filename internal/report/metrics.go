package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// gapMetrics are the gauges exported for one analysis run.
type gapMetrics struct {
	RequirementsTotal prometheus.Gauge
	Findings          *prometheus.GaugeVec
	FindingsByStatus  *prometheus.GaugeVec
	Coverage          *prometheus.GaugeVec
	GeneratedAt       prometheus.Gauge
}

func newGapMetrics(reg prometheus.Registerer) *gapMetrics {
	factory := promauto.With(reg)
	return &gapMetrics{
		RequirementsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "controlgap_requirements_total",
			Help: "Number of requirements analyzed",
		}),
		Findings: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "controlgap_findings",
			Help: "Findings by risk priority",
		}, []string{"priority"}),
		FindingsByStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "controlgap_findings_by_status",
			Help: "Findings by status kind (MET, PARTIAL, GAP)",
		}, []string{"status"}),
		Coverage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "controlgap_requirement_coverage_percent",
			Help: "Maximum coverage percentage of the controls mapped to a requirement",
		}, []string{"requirement_id", "standard"}),
		GeneratedAt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "controlgap_generated_timestamp_seconds",
			Help: "Unix time the analysis was generated",
		}),
	}
}

func (m *gapMetrics) observe(doc *Document) {
	m.RequirementsTotal.Set(float64(doc.Summary.Total))
	for _, p := range models.ValidPriorities() {
		m.Findings.WithLabelValues(string(p)).Set(float64(doc.Summary.ByPriority[p]))
	}
	for _, kind := range []string{models.StatusKindMet, models.StatusKindPartial, models.StatusKindGap} {
		m.FindingsByStatus.WithLabelValues(kind).Set(float64(doc.Summary.ByStatusKind[kind]))
	}
	for _, f := range doc.Findings {
		m.Coverage.WithLabelValues(f.RequirementID, f.Standard).Set(f.MaxCoverage)
	}
	if !doc.GeneratedAt.IsZero() {
		m.GeneratedAt.Set(float64(doc.GeneratedAt.Unix()))
	}
}

type metricsFormat struct {
	logger logger.Logger
}

// Registry returns a fresh registry holding the gauges for doc.
func (f *metricsFormat) Registry(doc *Document) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	newGapMetrics(reg).observe(doc)
	return reg
}

// Generate writes the gauges in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector.
func (f *metricsFormat) Generate(doc *Document, outputPath string) error {
	validPath, err := prepareOutput(outputPath)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(validPath, f.Registry(doc)); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	f.logger.Info("Generated metrics textfile", "path", validPath)
	return nil
}

func (f *metricsFormat) Name() string { return FormatMetrics }

func (f *metricsFormat) Description() string {
	return "Prometheus textfile with coverage and priority gauges"
}

func (f *metricsFormat) Extension() string { return ".prom" }
