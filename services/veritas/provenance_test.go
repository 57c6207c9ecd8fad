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

func citedClaim(id, text, documentName, quote string, provider Provider) *Claim {
	return &Claim{
		ID:         id,
		Text:       text,
		ClaimType:  ClaimGeneric,
		Origin:     OriginExplicit,
		Confidence: 0.9,
		Source: ClaimSource{
			DocumentName: documentName,
			Provider:     provider,
			Citation:     &Citation{DocumentName: documentName, ExactQuote: quote},
		},
	}
}

func TestAudit_ExactCitationRoundTripScoresFull(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	sources := map[string]Source{
		"doc.txt": {Name: "doc.txt", UTF8Content: "the widget costs $500 per unit"},
	}
	claim := citedClaim("c1", "widget costs $500", "doc.txt", "widget costs $500", ProviderInternal)

	res := a.Audit(claim, sources)

	require.True(t, res.Valid)
	assert.Equal(t, 100.0, res.Score100)
	assert.Empty(t, res.Findings)
}

func TestAudit_QuoteMissingEverywhereIsHallucination(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	sources := map[string]Source{
		"doc.txt":   {Name: "doc.txt", UTF8Content: "completely unrelated content"},
		"other.txt": {Name: "other.txt", UTF8Content: "also unrelated"},
	}
	claim := citedClaim("c1", "widget costs $500", "doc.txt", "widget costs $500", ProviderInternal)

	res := a.Audit(claim, sources)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "HALLUCINATION", res.Findings[0].Code)
	assert.Equal(t, 50.0, res.Score100)
}

// TestAudit_QuoteFoundInDifferentSourceIsIncorrectAttribution is the
// regression case: a citation naming the wrong document must be charged
// the lesser incorrect-attribution penalty, not the full hallucination
// penalty, once the quote is confirmed to exist verbatim elsewhere.
func TestAudit_QuoteFoundInDifferentSourceIsIncorrectAttribution(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	sources := map[string]Source{
		"doc.txt":   {Name: "doc.txt", UTF8Content: "completely unrelated content"},
		"other.txt": {Name: "other.txt", UTF8Content: "the widget costs $500 per unit"},
	}
	claim := citedClaim("c1", "widget costs $500", "doc.txt", "widget costs $500", ProviderInternal)

	res := a.Audit(claim, sources)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, "INCORRECT_ATTRIBUTION", res.Findings[0].Code)
	assert.Equal(t, 80.0, res.Score100)
}

func TestAudit_ValidCitationIsNeverPenalizedForMatchesElsewhere(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	sources := map[string]Source{
		"doc.txt":   {Name: "doc.txt", UTF8Content: "the widget costs $500 per unit"},
		"other.txt": {Name: "other.txt", UTF8Content: "the widget costs $500 per unit, also mentioned here"},
	}
	claim := citedClaim("c1", "widget costs $500", "doc.txt", "widget costs $500", ProviderInternal)

	res := a.Audit(claim, sources)

	assert.Empty(t, res.Findings)
	assert.Equal(t, 100.0, res.Score100)
}

func TestAudit_MissingCitationOnExplicitClaim(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	claim := &Claim{ID: "c1", Text: "widget costs $500", ClaimType: ClaimGeneric, Origin: OriginExplicit, Confidence: 0.9,
		Source: ClaimSource{Provider: ProviderInternal}}

	res := a.Audit(claim, map[string]Source{})

	require.NotEmpty(t, res.Findings)
	assert.Equal(t, "MISSING_CITATION", res.Findings[0].Code)
	assert.Equal(t, 70.0, res.Score100)
}

func TestAudit_HighConfidenceInferredClaimWithoutRationaleIsMissingCitation(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	claim := &Claim{ID: "c1", Text: "the project will finish early", ClaimType: ClaimGeneric, Origin: OriginInferred, Confidence: 0.95}

	res := a.Audit(claim, map[string]Source{})

	require.NotEmpty(t, res.Findings)
	assert.Equal(t, "MISSING_CITATION", res.Findings[0].Code)
}

func TestAudit_CircularReferenceWhenReasonerCitesReasonerOutput(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	claim := citedClaim("c1", "widget costs $500", "claude-generated-output.txt", "widget costs $500", ProviderClaude)
	sources := map[string]Source{
		"claude-generated-output.txt": {Name: "claude-generated-output.txt", UTF8Content: "the widget costs $500"},
	}

	res := a.Audit(claim, sources)

	var found bool
	for _, f := range res.Findings {
		if f.Code == "CIRCULAR_REFERENCE" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAudit_WeakInferenceWhenNoSupportingFactsOrRationale(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	claim := &Claim{ID: "c1", Text: "the project will finish early", ClaimType: ClaimGeneric, Origin: OriginInferred, Confidence: 0.5}

	res := a.Audit(claim, map[string]Source{})

	var found bool
	for _, f := range res.Findings {
		if f.Code == "WEAK_INFERENCE" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAudit_StructuralTamperingIndicatorsAreNonScoring(t *testing.T) {
	v := NewVerifier(nil)
	a := NewAuditor(nil, v)
	claim := citedClaim("c1", "widget costs $500", "doc.txt", "widget costs $500", ProviderInternal)
	claim.Source.Citation.StartChar = -1
	sources := map[string]Source{"doc.txt": {Name: "doc.txt", UTF8Content: "the widget costs $500"}}

	res := a.Audit(claim, sources)

	var found bool
	for _, f := range res.Findings {
		if f.Code == "NEGATIVE_OFFSET" {
			found = true
		}
	}
	assert.True(t, found)
	// A negative offset is reported but must not affect the score, since
	// the citation still verifies via context search.
	assert.Equal(t, 100.0, res.Score100)
}

func TestAudit_HallucinationThresholdIsConfigurable(t *testing.T) {
	v := NewVerifier(nil)
	config := DefaultAuditorConfig()
	config.HallucinationThreshold = 0.9
	a := NewAuditor(config, v)
	// Missing-citation penalty drops the score to 70/100 = 0.70, below a 0.9 floor.
	claim := &Claim{ID: "c1", Text: "widget costs $500", ClaimType: ClaimGeneric, Origin: OriginExplicit, Confidence: 0.9,
		Source: ClaimSource{Provider: ProviderInternal}}

	res := a.Audit(claim, map[string]Source{})

	assert.Equal(t, 70.0, res.Score100)
	assert.False(t, res.Valid, "a 0.9 hallucination threshold must reject a 0.70 score that the default 0.5 would accept")
}

func TestAudit_ProviderWeightScalesFinalScore(t *testing.T) {
	v := NewVerifier(nil)
	config := DefaultAuditorConfig()
	config.ProviderWeights = map[Provider]float64{ProviderUnknown: 0.0}
	a := NewAuditor(config, v)
	claim := &Claim{ID: "c1", Text: "something", ClaimType: ClaimGeneric, Origin: OriginInferred, Confidence: 0.5,
		Source: ClaimSource{Provider: ProviderUnknown}, SupportingFacts: []string{"fact"}, InferenceRationale: "because"}

	res := a.Audit(claim, map[string]Source{})

	// base 100, weight 0 => score *= 0.75 + 0.25*0 = 0.75
	assert.InDelta(t, 75.0, res.Score100, 0.001)
}
