// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package veritas

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const metricsWindowSize = 100

var (
	tracer = otel.Tracer("veritas.validation")
	meter  = otel.Meter("veritas.validation")
)

var (
	factRatioGauge             metric.Float64Gauge
	citationCoverageGauge       metric.Float64Gauge
	contradictionRateGauge      metric.Float64Gauge
	provenanceScoreGauge        metric.Float64Gauge
	repairRateGauge             metric.Float64Gauge
	validationTimeHistogram     metric.Float64Histogram
	gateFailureRateGauge        metric.Float64Gauge
	regulatoryAccuracyGauge     metric.Float64Gauge
	bufferAdherenceGauge        metric.Float64Gauge
	auditPassRateGauge          metric.Float64Gauge
	calibrationAccuracyGauge    metric.Float64Gauge
	averageConfidenceGauge      metric.Float64Gauge
	confidenceVarianceGauge     metric.Float64Gauge
	healthScoreGauge            metric.Float64Gauge
	validationsTotal            metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		record := func(name string, target *metric.Float64Gauge, desc string) {
			if err != nil {
				return
			}
			*target, err = meter.Float64Gauge(name, metric.WithDescription(desc))
		}

		record("veritas_fact_ratio", &factRatioGauge, "Moving average of explicit-vs-inferred claim ratio")
		record("veritas_citation_coverage", &citationCoverageGauge, "Moving average of citation coverage")
		record("veritas_contradiction_rate", &contradictionRateGauge, "Moving average of contradictions per claim")
		record("veritas_provenance_score", &provenanceScoreGauge, "Moving average of provenance audit score")
		record("veritas_repair_rate", &repairRateGauge, "Moving average of repair actions per validation")
		record("veritas_gate_failure_rate", &gateFailureRateGauge, "Moving average of blocking gate failure rate")
		record("veritas_regulatory_accuracy", &regulatoryAccuracyGauge, "Moving average of regulatory flag accuracy")
		record("veritas_buffer_adherence", &bufferAdherenceGauge, "Moving average of timeline buffer adherence")
		record("veritas_audit_pass_rate", &auditPassRateGauge, "Moving average of provenance audit pass rate")
		record("veritas_calibration_accuracy", &calibrationAccuracyGauge, "Moving average of calibration confidence delta")
		record("veritas_average_confidence", &averageConfidenceGauge, "Moving average of calibrated confidence")
		record("veritas_confidence_variance", &confidenceVarianceGauge, "Moving variance of calibrated confidence")
		record("veritas_health_score", &healthScoreGauge, "Derived weighted health score")
		if err != nil {
			metricsErr = err
			return
		}

		validationTimeHistogram, err = meter.Float64Histogram(
			"veritas_validation_time_ms",
			metric.WithDescription("Moving average of end-to-end validation time"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validationsTotal, err = meter.Int64Counter(
			"veritas_validations_total",
			metric.WithDescription("Total validate() invocations by outcome"),
		)
		metricsErr = err
	})
	return metricsErr
}

// Metrics holds the thirteen named moving averages the Orchestrator feeds
// at the end of every validation, each backed by a window=100 ring buffer
// (§5 Resource Model, §6 Metrics).
type Metrics struct {
	factRatio            *RingBuffer
	citationCoverage     *RingBuffer
	contradictionRate    *RingBuffer
	provenanceScore      *RingBuffer
	repairRate           *RingBuffer
	validationTimeMs     *RingBuffer
	gateFailureRate      *RingBuffer
	regulatoryAccuracy   *RingBuffer
	bufferAdherence      *RingBuffer
	auditPassRate        *RingBuffer
	calibrationAccuracy  *RingBuffer
	averageConfidence    *RingBuffer
	confidenceVariance   *RingBuffer
}

// NewMetrics returns a ready-to-use Metrics with all thirteen buffers sized
// to the specification's window of 100.
func NewMetrics() *Metrics {
	return &Metrics{
		factRatio:           NewRingBuffer(metricsWindowSize),
		citationCoverage:    NewRingBuffer(metricsWindowSize),
		contradictionRate:   NewRingBuffer(metricsWindowSize),
		provenanceScore:     NewRingBuffer(metricsWindowSize),
		repairRate:          NewRingBuffer(metricsWindowSize),
		validationTimeMs:    NewRingBuffer(metricsWindowSize),
		gateFailureRate:     NewRingBuffer(metricsWindowSize),
		regulatoryAccuracy:  NewRingBuffer(metricsWindowSize),
		bufferAdherence:     NewRingBuffer(metricsWindowSize),
		auditPassRate:       NewRingBuffer(metricsWindowSize),
		calibrationAccuracy: NewRingBuffer(metricsWindowSize),
		averageConfidence:   NewRingBuffer(metricsWindowSize),
		confidenceVariance:  NewRingBuffer(metricsWindowSize),
	}
}

// ValidationSample is everything one completed validation run contributes
// to the rolling metrics.
type ValidationSample struct {
	ExplicitCount        int
	InferredCount        int
	CitationCoverage     float64
	ContradictionsPerClaim float64
	AverageProvenance    float64
	RepairsPerValidation float64
	ValidationTimeMs     float64
	GateFailureRate      float64
	RegulatoryAccuracy   float64
	BufferAdherence      float64
	AuditPassRate        float64
	CalibrationDelta     float64
	AverageConfidence    float64
}

// Record pushes one validation's contribution onto every applicable buffer
// and mirrors the resulting moving averages to otel gauges.
func (m *Metrics) Record(ctx context.Context, s ValidationSample) {
	total := s.ExplicitCount + s.InferredCount
	ratio := 0.0
	if total > 0 {
		ratio = float64(s.ExplicitCount) / float64(total)
	}
	m.factRatio.Push(ratio)
	m.citationCoverage.Push(s.CitationCoverage)
	m.contradictionRate.Push(s.ContradictionsPerClaim)
	m.provenanceScore.Push(s.AverageProvenance)
	m.repairRate.Push(s.RepairsPerValidation)
	m.validationTimeMs.Push(s.ValidationTimeMs)
	m.gateFailureRate.Push(s.GateFailureRate)
	m.regulatoryAccuracy.Push(s.RegulatoryAccuracy)
	m.bufferAdherence.Push(s.BufferAdherence)
	m.auditPassRate.Push(s.AuditPassRate)
	m.calibrationAccuracy.Push(s.CalibrationDelta)
	m.averageConfidence.Push(s.AverageConfidence)
	m.confidenceVariance.Push(s.AverageConfidence)

	if err := initMetrics(); err != nil {
		return
	}
	factRatioGauge.Record(ctx, m.factRatio.Average())
	citationCoverageGauge.Record(ctx, m.citationCoverage.Average())
	contradictionRateGauge.Record(ctx, m.contradictionRate.Average())
	provenanceScoreGauge.Record(ctx, m.provenanceScore.Average())
	repairRateGauge.Record(ctx, m.repairRate.Average())
	validationTimeHistogram.Record(ctx, m.validationTimeMs.Average())
	gateFailureRateGauge.Record(ctx, m.gateFailureRate.Average())
	regulatoryAccuracyGauge.Record(ctx, m.regulatoryAccuracy.Average())
	bufferAdherenceGauge.Record(ctx, m.bufferAdherence.Average())
	auditPassRateGauge.Record(ctx, m.auditPassRate.Average())
	calibrationAccuracyGauge.Record(ctx, m.calibrationAccuracy.Average())
	averageConfidenceGauge.Record(ctx, m.averageConfidence.Average())
	confidenceVarianceGauge.Record(ctx, m.confidenceVariance.Variance())
	healthScoreGauge.Record(ctx, m.HealthScore())

	outcome := "passed"
	if s.GateFailureRate > 0 {
		outcome = "failed"
	}
	validationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// HealthSnapshot is the user-visible rendering of Metrics attached to a
// Result.
type HealthSnapshot struct {
	FactRatio           float64 `json:"factRatio"`
	CitationCoverage    float64 `json:"citationCoverage"`
	ContradictionRate   float64 `json:"contradictionRate"`
	ProvenanceScore     float64 `json:"provenanceScore"`
	RepairRate          float64 `json:"repairRate"`
	ValidationTimeMs    float64 `json:"validationTimeMs"`
	GateFailureRate     float64 `json:"gateFailureRate"`
	RegulatoryAccuracy  float64 `json:"regulatoryAccuracy"`
	BufferAdherence     float64 `json:"bufferAdherence"`
	AuditPassRate       float64 `json:"auditPassRate"`
	CalibrationAccuracy float64 `json:"calibrationAccuracy"`
	AverageConfidence   float64 `json:"averageConfidence"`
	ConfidenceVariance  float64 `json:"confidenceVariance"`
	HealthScore         float64 `json:"healthScore"`
}

// Snapshot reads every moving average (and the derived health score) as of
// now, without mutating any buffer.
func (m *Metrics) Snapshot() HealthSnapshot {
	return HealthSnapshot{
		FactRatio:           m.factRatio.Average(),
		CitationCoverage:    m.citationCoverage.Average(),
		ContradictionRate:   m.contradictionRate.Average(),
		ProvenanceScore:     m.provenanceScore.Average(),
		RepairRate:          m.repairRate.Average(),
		ValidationTimeMs:    m.validationTimeMs.Average(),
		GateFailureRate:     m.gateFailureRate.Average(),
		RegulatoryAccuracy:  m.regulatoryAccuracy.Average(),
		BufferAdherence:     m.bufferAdherence.Average(),
		AuditPassRate:       m.auditPassRate.Average(),
		CalibrationAccuracy: m.calibrationAccuracy.Average(),
		AverageConfidence:   m.averageConfidence.Average(),
		ConfidenceVariance:  m.confidenceVariance.Variance(),
		HealthScore:         m.HealthScore(),
	}
}

// healthWeights are the six inputs the derived health score blends,
// weighted by how directly each reflects trustworthy output.
var healthWeights = map[string]float64{
	"citationCoverage":  0.25,
	"auditPassRate":     0.20,
	"averageConfidence": 0.20,
	"gateFailureRate":   0.15, // inverted: lower failure rate -> higher health
	"contradictionRate": 0.10, // inverted
	"regulatoryAccuracy": 0.10,
}

// HealthScore blends six moving averages into a single [0,100] indicator:
// citation coverage, audit pass rate, average confidence, and regulatory
// accuracy contribute positively; gate failure rate and contradiction rate
// contribute negatively (1 - rate).
func (m *Metrics) HealthScore() float64 {
	score := 0.0
	score += healthWeights["citationCoverage"] * m.citationCoverage.Average()
	score += healthWeights["auditPassRate"] * m.auditPassRate.Average()
	score += healthWeights["averageConfidence"] * m.averageConfidence.Average()
	score += healthWeights["gateFailureRate"] * (1 - clamp01(m.gateFailureRate.Average()))
	score += healthWeights["contradictionRate"] * (1 - clamp01(m.contradictionRate.Average()))
	score += healthWeights["regulatoryAccuracy"] * m.regulatoryAccuracy.Average()
	return score * 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
