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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDocument_AssignsOriginFromCitationHint(t *testing.T) {
	e := NewExtractor()
	source := Source{Name: "doc.txt", Provider: ProviderClaude}
	raw := []RawClaim{
		{Text: "widget costs $500", ClaimType: ClaimFinancial, CitationHint: &Citation{DocumentName: "doc.txt"}},
		{Text: "the project will likely finish early", ClaimType: ClaimGeneric},
	}

	claims, stageErr := e.ExtractFromDocument(source, raw)

	require.Nil(t, stageErr)
	require.Len(t, claims, 2)
	assert.Equal(t, OriginExplicit, claims[0].Origin)
	assert.True(t, claims[0].HasCitation())
	assert.Equal(t, OriginInferred, claims[1].Origin)
	assert.False(t, claims[1].HasCitation())
}

func TestExtractFromDocument_DeterministicIDAcrossRuns(t *testing.T) {
	e := NewExtractor()
	source := Source{Name: "doc.txt", Provider: ProviderGPT}
	raw := []RawClaim{{Text: "widget costs $500", ClaimType: ClaimFinancial}}

	first, err1 := e.ExtractFromDocument(source, raw)
	second, err2 := e.ExtractFromDocument(source, raw)

	require.Nil(t, err1)
	require.Nil(t, err2)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestExtractFromDocument_RejectsEmptyText(t *testing.T) {
	e := NewExtractor()
	source := Source{Name: "doc.txt", Provider: ProviderGPT}
	raw := []RawClaim{{Text: "", ClaimType: ClaimGeneric}}

	claims, stageErr := e.ExtractFromDocument(source, raw)

	assert.Nil(t, claims)
	require.NotNil(t, stageErr)
	assert.Equal(t, KindInvalidInput, stageErr.Kind)
}

func TestExtractFromDocument_RejectsUnknownClaimType(t *testing.T) {
	e := NewExtractor()
	source := Source{Name: "doc.txt", Provider: ProviderGPT}
	raw := []RawClaim{{Text: "something", ClaimType: ClaimType("not-a-real-type")}}

	claims, stageErr := e.ExtractFromDocument(source, raw)

	assert.Nil(t, claims)
	require.NotNil(t, stageErr)
	assert.Equal(t, KindInvalidInput, stageErr.Kind)
}

func TestExtractFromTask_RejectsNilOrUnidentifiedTask(t *testing.T) {
	e := NewExtractor()

	_, stageErr := e.ExtractFromTask(nil)
	require.NotNil(t, stageErr)
	assert.Equal(t, KindInvalidInput, stageErr.Kind)

	_, stageErr = e.ExtractFromTask(&TimelineTask{})
	require.NotNil(t, stageErr)
	assert.Equal(t, KindInvalidInput, stageErr.Kind)
}

func TestExtractFromTask_OneClaimPerPopulatedField(t *testing.T) {
	e := NewExtractor()
	duration := 12.5
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	task := &TimelineTask{
		ID:                    "t1",
		Name:                  "kickoff",
		Origin:                OriginExplicit,
		Duration:              &duration,
		StartDate:             &start,
		Dependencies:          []Dependency{{TaskID: "t0", Confidence: 0.8}},
		RegulatoryRequirement: &RegulatoryRequirement{IsRequired: true, Regulation: "SOX", Confidence: 0.9},
		FinancialMetrics:      []FinancialMetric{{Name: "budget", Value: 1000, Currency: "USD", Confidence: 0.7}},
	}

	claims, stageErr := e.ExtractFromTask(task)

	require.Nil(t, stageErr)
	require.Len(t, claims, 5)
	types := make(map[ClaimType]bool, len(claims))
	for _, c := range claims {
		types[c.ClaimType] = true
		assert.Equal(t, "t1", c.TaskID)
	}
	assert.True(t, types[ClaimDuration])
	assert.True(t, types[ClaimStartDate])
	assert.True(t, types[ClaimDependency])
	assert.True(t, types[ClaimRequirement])
	assert.True(t, types[ClaimFinancial])
}

func TestExtractFromTask_SkipsUnrequiredRegulatoryRequirement(t *testing.T) {
	e := NewExtractor()
	task := &TimelineTask{
		ID:                    "t1",
		Name:                  "kickoff",
		RegulatoryRequirement: &RegulatoryRequirement{IsRequired: false},
	}

	claims, stageErr := e.ExtractFromTask(task)

	require.Nil(t, stageErr)
	assert.Empty(t, claims)
}
