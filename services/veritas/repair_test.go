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
	"github.com/stretchr/testify/require"
)

func TestRepairer_CitationCoverage_DowngradesUncitedClaim(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	claim := &Claim{ID: "c1", Origin: OriginExplicit, Confidence: 0.95}
	artifact := &Artifact{Claims: []*Claim{claim}}

	report := &GateReport{Failures: []GateResult{{Name: "CITATION_COVERAGE"}}}
	outcome := r.RepairGates(report, artifact)

	require.Equal(t, RepairRepaired, outcome.State)
	require.Len(t, outcome.Actions, 1)
	assert.Equal(t, OriginInferred, claim.Origin)
	assert.LessOrEqual(t, claim.Confidence, 0.85)
	assert.NotEmpty(t, claim.InferenceRationale)
}

func TestRepairer_CitationCoverage_IsIdempotent(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	claim := &Claim{ID: "c1", Origin: OriginExplicit, Confidence: 0.95}
	artifact := &Artifact{Claims: []*Claim{claim}}
	report := &GateReport{Failures: []GateResult{{Name: "CITATION_COVERAGE"}}}

	r.RepairGates(report, artifact)
	outcome := r.RepairGates(report, artifact) // second pass: already downgraded

	assert.Equal(t, RepairUnrepairable, outcome.State)
	assert.Empty(t, outcome.Actions)
}

func TestRepairer_ContradictionSeverity_PenalizesLoserAndResolves(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	winner := &Claim{ID: "c1", Confidence: 0.9}
	loser := &Claim{ID: "c2", Confidence: 0.9}
	contra := &Contradiction{
		ID: "x1", Severity: SeverityHigh, ClaimPairA: "c1", ClaimPairB: "c2",
		Resolution: Resolution{Action: ActionAcceptHigherFlagLower, PreferredClaim: "c1", Rule: "higher-confidence-wins"},
	}
	artifact := &Artifact{Claims: []*Claim{winner, loser}, Contradictions: []*Contradiction{contra}}
	report := &GateReport{Failures: []GateResult{{Name: "CONTRADICTION_SEVERITY"}}}

	outcome := r.RepairGates(report, artifact)

	require.Equal(t, RepairRepaired, outcome.State)
	assert.InDelta(t, 0.9*0.85, loser.Confidence, 1e-9)
	assert.Equal(t, 0.9, winner.Confidence)
	require.NotNil(t, contra.ResolvedAt)
}

func TestRepairer_ConfidenceMinimum_BoostsWithCitationElseFlags(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	citation := &Citation{DocumentName: "doc.txt"}
	cited := &Claim{ID: "c1", Confidence: 0.10, Source: ClaimSource{Citation: citation}}
	uncited := &Claim{ID: "c2", Confidence: 0.10}
	artifact := &Artifact{Claims: []*Claim{cited, uncited}}
	report := &GateReport{Failures: []GateResult{{Name: "CONFIDENCE_MINIMUM"}}}

	outcome := r.RepairGates(report, artifact)

	require.Equal(t, RepairRepaired, outcome.State)
	assert.Equal(t, 0.50, cited.Confidence)
	assert.Equal(t, 0.10, uncited.Confidence)
	require.Len(t, uncited.ReviewFlags, 1)
	assert.Equal(t, "LOW_CONFIDENCE", uncited.ReviewFlags[0].Type)
}

func TestRepairer_SchemaCompliance_RegeneratesIDAndClamps(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	claim := &Claim{ID: "", Origin: "bogus", Confidence: 1.5}
	artifact := &Artifact{Claims: []*Claim{claim}}
	report := &GateReport{Failures: []GateResult{{Name: "SCHEMA_COMPLIANCE"}}}

	outcome := r.RepairGates(report, artifact)

	require.Equal(t, RepairRepaired, outcome.State)
	assert.NotEmpty(t, claim.ID)
	assert.Equal(t, OriginInferred, claim.Origin)
	assert.Equal(t, 1.0, claim.Confidence)
}

func TestRepairer_SchemaCompliance_PrunesInvalidContradiction(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	good := &Contradiction{ID: "contra-good", ClaimPairA: "c1", ClaimPairB: "c2"}
	selfPaired := &Contradiction{ID: "contra-bad", ClaimPairA: "c1", ClaimPairB: "c1"}
	artifact := &Artifact{Contradictions: []*Contradiction{good, selfPaired}}
	report := &GateReport{Failures: []GateResult{{Name: "SCHEMA_COMPLIANCE"}}}

	outcome := r.RepairGates(report, artifact)

	require.Equal(t, RepairRepaired, outcome.State)
	require.Len(t, outcome.Actions, 1)
	assert.Equal(t, RepairRemovedInvalidContradiction, outcome.Actions[0].Action)
	require.Len(t, artifact.Contradictions, 1)
	assert.Equal(t, "contra-good", artifact.Contradictions[0].ID)
}

func TestRepairer_NoFailures_ReturnsRepaired(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	outcome := r.RepairGates(&GateReport{}, &Artifact{})
	assert.Equal(t, RepairRepaired, outcome.State)
	assert.Empty(t, outcome.Actions)
}

func TestRepairer_UnknownGate_IsUnrepairable(t *testing.T) {
	r := NewRepairer(DefaultRepairConfig())
	report := &GateReport{Failures: []GateResult{{Name: "PROVENANCE_QUALITY"}}}
	outcome := r.RepairGates(report, &Artifact{})
	assert.Equal(t, RepairUnrepairable, outcome.State)
}
