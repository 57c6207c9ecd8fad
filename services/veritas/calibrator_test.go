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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrate_ExplicitUncitedBaseline(t *testing.T) {
	cal := NewCalibrator()
	in := CalibrationInput{
		RawConfidence:     0.9,
		CitationType:      CitationUncited,
		ConsensusPercent:  60,
		ProvenanceScore01: 1.0,
		Origin:            OriginExplicit,
	}

	confidence, meta := cal.Calibrate(in)

	// 0.85 (explicit baseline) * 0.60 (uncited) * 1.00 (no contradiction)
	// * 1.00 (consensus 50-70%) * 1.00 (provenance 1.0) = 0.51
	assert.InDelta(t, 0.51, confidence, 0.001)
	assert.Equal(t, 0.9, meta.OriginalConfidence)
}

func TestCalibrate_RegulatoryCitationBoostsConfidence(t *testing.T) {
	cal := NewCalibrator()
	uncited := CalibrationInput{RawConfidence: 0.9, CitationType: CitationUncited, ConsensusPercent: 100, ProvenanceScore01: 1.0, Origin: OriginExplicit}
	regulatory := uncited
	regulatory.CitationType = CitationRegulatoryDoc

	uncitedConf, _ := cal.Calibrate(uncited)
	regulatoryConf, _ := cal.Calibrate(regulatory)

	assert.Greater(t, regulatoryConf, uncitedConf)
}

func TestCalibrate_HighSeverityContradictionPenalizesConfidence(t *testing.T) {
	cal := NewCalibrator()
	clean := CalibrationInput{RawConfidence: 0.9, CitationType: CitationInternalDoc, ConsensusPercent: 100, ProvenanceScore01: 1.0, Origin: OriginExplicit}
	contested := clean
	contested.HighestContradiction = SeverityHigh

	cleanConf, _ := cal.Calibrate(clean)
	contestedConf, _ := cal.Calibrate(contested)

	assert.Less(t, contestedConf, cleanConf)
}

func TestCalibrate_RegulatoryAndFinancialBoostsCompound(t *testing.T) {
	cal := NewCalibrator()
	base := CalibrationInput{RawConfidence: 0.5, CitationType: CitationInternalDoc, ConsensusPercent: 100, ProvenanceScore01: 1.0, Origin: OriginExplicit}
	boosted := base
	boosted.HasRegulatoryRequirement = true
	boosted.HasFinancialBreakdown = true

	_, baseMeta := cal.Calibrate(base)
	_, boostedMeta := cal.Calibrate(boosted)

	assert.NotContains(t, baseMeta.Factors, "regulatoryBoost")
	assert.Equal(t, 1.10, boostedMeta.Factors["regulatoryBoost"])
	assert.Equal(t, 1.05, boostedMeta.Factors["financialBoost"])
}

func TestCalibrate_ClampsToFloorAndCeiling(t *testing.T) {
	cal := NewCalibrator()
	floor := CalibrationInput{
		RawConfidence: 0.1, CitationType: CitationUncited, ConsensusPercent: 0,
		ProvenanceScore01: 0, Origin: OriginInferred, HighestContradiction: SeverityHigh,
	}
	confidence, _ := cal.Calibrate(floor)
	assert.GreaterOrEqual(t, confidence, 0.30)

	ceiling := CalibrationInput{
		RawConfidence: 0.99, CitationType: CitationRegulatoryDoc, ConsensusPercent: 100,
		ProvenanceScore01: 1.0, Origin: OriginExplicit, HasRegulatoryRequirement: true, HasFinancialBreakdown: true,
	}
	confidence, _ = cal.Calibrate(ceiling)
	assert.LessOrEqual(t, confidence, 0.99)
}

func TestCalibrate_UnknownCitationTypeFallsBackToUncited(t *testing.T) {
	cal := NewCalibrator()
	in := CalibrationInput{RawConfidence: 0.5, CitationType: CitationType("not-a-real-type"), ConsensusPercent: 100, ProvenanceScore01: 1.0, Origin: OriginExplicit}

	_, meta := cal.Calibrate(in)

	assert.Equal(t, citationMultiplier[CitationUncited], meta.Factors["citationMultiplier"])
}

func TestCitationTypeFor_UncitedClaimHasNoRegistryLookup(t *testing.T) {
	claim := &Claim{ID: "c1"}
	assert.Equal(t, CitationUncited, CitationTypeFor(claim, nil))
}

func TestCitationTypeFor_LLMProviderWithoutRegulatoryMatchIsLLMOutput(t *testing.T) {
	claim := &Claim{
		ID:     "c1",
		Source: ClaimSource{Provider: ProviderGPT, Citation: &Citation{DocumentName: "chat-log.txt"}},
	}
	assert.Equal(t, CitationLLMOutput, CitationTypeFor(claim, nil))
}
