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

	"github.com/veritas-labs/veritas/services/veritas/patterns"
)

func financialClaim(id, text string, origin Origin, confidence float64) *Claim {
	return &Claim{ID: id, Text: text, ClaimType: ClaimFinancial, Origin: origin, Confidence: confidence}
}

func TestDetectAll_FindsNumericalContradiction(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(financialClaim("c1", "the budget is $100,000", OriginExplicit, 0.9))
	ledger.AddClaim(financialClaim("c2", "the budget is $500,000", OriginExplicit, 0.9))

	contras := d.DetectAll(ledger)

	require.Len(t, contras, 1)
	assert.Equal(t, ContradictionNumerical, contras[0].Type)
}

func TestDetectAll_FindsTemporalContradiction(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(&Claim{ID: "c1", Text: "launch is scheduled for 2026-01-01", ClaimType: ClaimStartDate, Origin: OriginExplicit, Confidence: 0.9})
	ledger.AddClaim(&Claim{ID: "c2", Text: "launch is scheduled for 2026-06-01", ClaimType: ClaimStartDate, Origin: OriginExplicit, Confidence: 0.9})

	contras := d.DetectAll(ledger)

	require.Len(t, contras, 1)
	assert.Equal(t, ContradictionTemporal, contras[0].Type)
	assert.Equal(t, SeverityHigh, contras[0].Severity)
}

func TestDetectAll_HighSeverityNoClearWinnerFlagsBothForReview(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(&Claim{ID: "c1", Text: "launch is scheduled for 2026-01-01", ClaimType: ClaimStartDate, Origin: OriginExplicit, Confidence: 0.9})
	ledger.AddClaim(&Claim{ID: "c2", Text: "launch is scheduled for 2026-06-01", ClaimType: ClaimStartDate, Origin: OriginExplicit, Confidence: 0.9})

	contras := d.DetectAll(ledger)

	require.Len(t, contras, 1)
	assert.Equal(t, ActionFlagBothForManualReview, contras[0].Resolution.Action)
	assert.Empty(t, contras[0].Resolution.PreferredClaim)
}

func TestDetectAll_ExplicitBeatsInferred(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(financialClaim("c1", "the budget is $100,000", OriginExplicit, 0.9))
	ledger.AddClaim(financialClaim("c2", "the budget is $500,000", OriginInferred, 0.9))

	contras := d.DetectAll(ledger)

	require.Len(t, contras, 1)
	assert.Equal(t, ActionAcceptExplicitReduceOther, contras[0].Resolution.Action)
	assert.Equal(t, "c1", contras[0].Resolution.PreferredClaim)
}

func TestDetectAll_ConfidenceDominanceWhenBothExplicit(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(financialClaim("c1", "the budget is $100,000", OriginExplicit, 0.95))
	ledger.AddClaim(financialClaim("c2", "the budget is $500,000", OriginExplicit, 0.60))

	contras := d.DetectAll(ledger)

	require.Len(t, contras, 1)
	assert.Equal(t, ActionAcceptHigherFlagLower, contras[0].Resolution.Action)
	assert.Equal(t, "c1", contras[0].Resolution.PreferredClaim)
}

func TestDetectAll_IsIdempotentOnRepeatedCalls(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(financialClaim("c1", "the budget is $100,000", OriginExplicit, 0.9))
	ledger.AddClaim(financialClaim("c2", "the budget is $500,000", OriginExplicit, 0.9))

	first := d.DetectAll(ledger)
	second := d.DetectAll(ledger)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Len(t, ledger.Contradictions(), 1)
}

func TestDetectAll_SkipsClaimsFromTheSameTask(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	a := financialClaim("c1", "the budget is $100,000", OriginExplicit, 0.9)
	a.TaskID = "t1"
	b := financialClaim("c2", "the budget is $500,000", OriginExplicit, 0.9)
	b.TaskID = "t1"
	ledger.AddClaim(a)
	ledger.AddClaim(b)

	contras := d.DetectAll(ledger)

	assert.Empty(t, contras)
}

func TestDetectAll_NoContradictionWithinTolerance(t *testing.T) {
	d := NewDetector(nil, patterns.MustNew())
	ledger := NewLedger()
	ledger.AddClaim(financialClaim("c1", "the budget is $100,000", OriginExplicit, 0.9))
	ledger.AddClaim(financialClaim("c2", "the budget is $105,000", OriginExplicit, 0.9))

	contras := d.DetectAll(ledger)

	assert.Empty(t, contras)
}

func TestExtractDate_RejectsOutOfRangeSlashDate(t *testing.T) {
	_, ok := extractDate("due on 25/03/2024")
	assert.False(t, ok, "month 25 is out of range and must not silently overflow into a different date")
}

func TestExtractDate_RecognizesAllSupportedFormats(t *testing.T) {
	cases := []string{
		"due on 2026-03-05",
		"due on March 5, 2026",
		"due on 03/05/2026",
		"due in Q1 2026",
	}
	for _, text := range cases {
		_, ok := extractDate(text)
		assert.True(t, ok, "expected a date to be recognized in %q", text)
	}
}
