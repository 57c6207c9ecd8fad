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
	"math"
	"time"
)

// CitationType classifies the source a claim's citation points to, for the
// calibrator's multiplier table.
type CitationType string

const (
	CitationRegulatoryDoc CitationType = "regulatory_doc"
	CitationPeerReviewed  CitationType = "peer_reviewed"
	CitationInternalDoc   CitationType = "internal_doc"
	CitationLLMOutput     CitationType = "llm_output"
	CitationUncited       CitationType = "uncited"
)

// CalibrationInput carries everything the Calibrator needs for one claim or
// task; the caller (Orchestrator) assembles it from the ledger, the
// detector's contradictions, and the auditor's result.
type CalibrationInput struct {
	RawConfidence          float64
	CitationType           CitationType
	HighestContradiction   Severity // "" means none
	ConsensusPercent       float64  // 0-100
	ProvenanceScore01      float64
	Origin                 Origin
	HasRegulatoryRequirement bool
	HasFinancialBreakdown    bool
}

var citationMultiplier = map[CitationType]float64{
	CitationRegulatoryDoc: 1.20,
	CitationPeerReviewed:  1.15,
	CitationInternalDoc:   1.00,
	CitationLLMOutput:     0.85,
	CitationUncited:       0.60,
}

func contradictionMultiplier(s Severity) float64 {
	switch s {
	case SeverityLow:
		return 0.95
	case SeverityMedium:
		return 0.85
	case SeverityHigh:
		return 0.70
	default:
		return 1.00
	}
}

func consensusBonus(percent float64) float64 {
	switch {
	case percent > 90:
		return 1.10
	case percent >= 70:
		return 1.05
	case percent >= 50:
		return 1.00
	default:
		return 0.90
	}
}

const (
	calibrationFloor   = 0.30
	calibrationCeiling = 0.99
)

// Calibrator replaces the reasoner-reported confidence with a calibrated
// value that reflects evidence (§4.5). Pure arithmetic over tagged factors;
// stateless.
type Calibrator struct {
	now func() time.Time
}

// NewCalibrator returns a ready-to-use Calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{now: time.Now}
}

// Calibrate runs the seven-step multiplicative chain and returns the
// clamped, rounded confidence plus the full factor breakdown.
func (cal *Calibrator) Calibrate(in CalibrationInput) (float64, CalibrationMetadata) {
	factors := make(map[string]float64, 6)

	baseline := 0.60
	if in.Origin == OriginExplicit {
		baseline = 0.85
	}
	factors["originBaseline"] = baseline
	value := baseline

	cm := citationMultiplier[in.CitationType]
	if cm == 0 {
		cm = citationMultiplier[CitationUncited]
	}
	factors["citationMultiplier"] = cm
	value *= cm

	contraMult := contradictionMultiplier(in.HighestContradiction)
	factors["contradictionMultiplier"] = contraMult
	value *= contraMult

	bonus := consensusBonus(in.ConsensusPercent)
	factors["consensusBonus"] = bonus
	value *= bonus

	provTerm := 0.80 + 0.20*in.ProvenanceScore01
	factors["provenanceTerm"] = provTerm
	value *= provTerm

	if in.HasRegulatoryRequirement {
		factors["regulatoryBoost"] = 1.10
		value *= 1.10
	}
	if in.HasFinancialBreakdown {
		factors["financialBoost"] = 1.05
		value *= 1.05
	}

	clamped := math.Max(calibrationFloor, math.Min(calibrationCeiling, value))
	rounded := math.Round(clamped*100) / 100

	return rounded, CalibrationMetadata{
		OriginalConfidence: in.RawConfidence,
		Factors:            factors,
		CalibratedAt:       cal.now(),
	}
}

// CitationTypeFor derives a CitationType from a claim's citation and
// provider, for callers that don't already classify it explicitly.
func CitationTypeFor(c *Claim, registry interface {
	HasRegulatoryKeyword(string) (string, bool)
}) CitationType {
	if !c.HasCitation() {
		return CitationUncited
	}
	if registry != nil {
		if _, ok := registry.HasRegulatoryKeyword(c.Source.Citation.DocumentName); ok {
			return CitationRegulatoryDoc
		}
	}
	if llmProviders[c.Source.Provider] {
		return CitationLLMOutput
	}
	return CitationInternalDoc
}
