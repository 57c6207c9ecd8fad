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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const claimIDLength = 16

// Extractor projects upstream-reasoner output into a flat list of Claims.
// It never consults primary sources and never calls a reasoning provider;
// rawClaimList is assumed to already be in hand (§4.1).
type Extractor struct {
	now func() time.Time
}

// NewExtractor returns a ready-to-use Extractor. now defaults to time.Now.
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// claimID computes H(documentName || ":" || index || ":" || text[0:100])
// truncated to claimIDLength hex characters. Two extractions of the same
// input produce byte-identical ids.
func claimID(documentName string, index int, text string) string {
	n := len(text)
	if n > 100 {
		n = 100
	}
	payload := documentName + ":" + strconv.Itoa(index) + ":" + text[:n]
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:claimIDLength]
}

// ExtractFromDocument turns a source document's raw claim list into Claims.
// Each raw item must carry non-empty text and a valid ClaimType, or the
// call fails with InvalidInput identifying the offending index.
func (e *Extractor) ExtractFromDocument(source Source, rawClaimList []RawClaim) ([]*Claim, *StageError) {
	out := make([]*Claim, 0, len(rawClaimList))
	for i, raw := range rawClaimList {
		if raw.Text == "" {
			return nil, NewStageError(KindInvalidInput, "Extractor", fmt.Sprintf("%s#%d", source.Name, i),
				fmt.Errorf("claim text must not be empty"))
		}
		if !raw.ClaimType.Valid() {
			return nil, NewStageError(KindInvalidInput, "Extractor", fmt.Sprintf("%s#%d", source.Name, i),
				fmt.Errorf("unknown claim type %q", raw.ClaimType))
		}

		origin := raw.Origin
		if origin == "" {
			if raw.CitationHint != nil {
				origin = OriginExplicit
			} else {
				origin = OriginInferred
			}
		}

		claim := &Claim{
			ID:         claimID(source.Name, i, raw.Text),
			Text:       raw.Text,
			ClaimType:  raw.ClaimType,
			Origin:     origin,
			Confidence: raw.Confidence,
			Source: ClaimSource{
				DocumentName: source.Name,
				Provider:     source.Provider,
				Citation:     raw.CitationHint,
			},
			ValidatedAt: e.now(),
		}
		out = append(out, claim)
	}
	return out, nil
}

// ExtractFromTask emits one Claim per populated field on a Timeline Task:
// duration, startDate, endDate, each dependency, regulatoryRequirement (only
// if isRequired), and each financial metric present.
func (e *Extractor) ExtractFromTask(task *TimelineTask) ([]*Claim, *StageError) {
	if task == nil || task.ID == "" {
		return nil, NewStageError(KindInvalidInput, "Extractor", "", fmt.Errorf("task must have a non-empty id"))
	}

	var out []*Claim
	idx := 0
	now := e.now()

	mk := func(claimType ClaimType, text string, confidence float64, citations []Citation) *Claim {
		var cite *Citation
		if len(citations) > 0 {
			cite = &citations[0]
		}
		origin := task.Origin
		if origin == "" {
			origin = OriginInferred
		}
		c := &Claim{
			ID:         claimID(task.ID, idx, text),
			TaskID:     task.ID,
			Text:       text,
			ClaimType:  claimType,
			Origin:     origin,
			Confidence: confidence,
			Source: ClaimSource{
				DocumentName: task.ID,
				Provider:     ProviderInternal,
				Citation:     cite,
			},
			ValidatedAt: now,
		}
		idx++
		return c
	}

	if task.Duration != nil {
		out = append(out, mk(ClaimDuration, fmt.Sprintf("Duration is %.2f days for task %s", *task.Duration, task.Name), task.Confidence, task.SourceCitations))
	}
	if task.StartDate != nil {
		out = append(out, mk(ClaimStartDate, fmt.Sprintf("Start date is %s for task %s", task.StartDate.Format("2006-01-02"), task.Name), task.Confidence, task.SourceCitations))
	}
	if task.EndDate != nil {
		out = append(out, mk(ClaimEndDate, fmt.Sprintf("End date is %s for task %s", task.EndDate.Format("2006-01-02"), task.Name), task.Confidence, task.SourceCitations))
	}
	for _, dep := range task.Dependencies {
		out = append(out, mk(ClaimDependency, fmt.Sprintf("Task %s depends on %s", task.Name, dep.TaskID), dep.Confidence, nil))
	}
	if task.RegulatoryRequirement != nil && task.RegulatoryRequirement.IsRequired {
		out = append(out, mk(ClaimRequirement, fmt.Sprintf("Task %s is subject to regulation %s", task.Name, task.RegulatoryRequirement.Regulation), task.RegulatoryRequirement.Confidence, nil))
	}
	for _, fin := range task.FinancialMetrics {
		out = append(out, mk(ClaimFinancial, fmt.Sprintf("Task %s has financial metric %s = %.2f %s", task.Name, fin.Name, fin.Value, fin.Currency), fin.Confidence, nil))
	}

	return out, nil
}
