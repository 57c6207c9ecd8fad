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
	"regexp"
	"strings"
	"sync"
)

// MatchType is the closed set of verification verdicts (§4.2).
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchFuzzy   MatchType = "fuzzy"
	MatchContext MatchType = "context"
	MatchNone    MatchType = "none"
)

// CharRange is an inclusive-exclusive character offset range.
type CharRange struct {
	Start int
	End   int
}

// VerifyResult is the structured verdict Verify and BatchVerify return.
type VerifyResult struct {
	Valid          bool
	MatchType      MatchType
	Score          float64
	CorrectedRange *CharRange
	Reason         string
	Tampering      bool
}

// BatchVerifyReport aggregates a batch of VerifyResults.
type BatchVerifyReport struct {
	Total         int
	Valid         int
	Invalid       int
	AverageScore  float64
	Results       []VerifyResult
}

const inferredDocumentToken = "inferred"

var whitespaceRun = regexp.MustCompile(`\s+`)
var nonWordNonSpace = regexp.MustCompile(`[^\w\s]`)

// normalize applies the verifier's normalization policy: lowercase, collapse
// whitespace runs to single spaces, strip characters outside [\w\s].
func normalize(s string) string {
	s = strings.ToLower(s)
	s = nonWordNonSpace.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Verifier verifies that a claim's cited substring genuinely exists in the
// named source (§4.2). Caches are request-scoped and discarded at the end
// of the request per the concurrency model (§5).
type Verifier struct {
	config *VerifierConfig
	mu     sync.Mutex
	cache  map[string]VerifyResult // key: claimID + "\x00" + documentName
}

// NewVerifier returns a Verifier; a nil config uses DefaultVerifierConfig.
func NewVerifier(config *VerifierConfig) *Verifier {
	if config == nil {
		config = DefaultVerifierConfig()
	}
	return &Verifier{config: config, cache: make(map[string]VerifyResult)}
}

// Verify checks a single citation against the named source document.
func (v *Verifier) Verify(citation Citation, sources map[string]Source) VerifyResult {
	if citation.DocumentName == inferredDocumentToken {
		return VerifyResult{Valid: true, MatchType: MatchContext, Score: 0.9, Reason: "inferred claim short-circuit"}
	}

	source, ok := sources[citation.DocumentName]
	if !ok {
		return VerifyResult{Valid: false, MatchType: MatchNone, Reason: "document not found"}
	}
	content := source.UTF8Content

	tampering := false
	rangeValid := citation.StartChar >= 0 && citation.StartChar < citation.EndChar && citation.EndChar <= len(content)
	if rangeValid {
		normalizedQuoteLen := len(normalize(citation.ExactQuote))
		if normalizedQuoteLen != citation.EndChar-citation.StartChar {
			tampering = true
		}
	} else {
		tampering = true
	}

	normalizedQuote := normalize(citation.ExactQuote)

	if rangeValid {
		candidate := content[citation.StartChar:citation.EndChar]
		if normalize(candidate) == normalizedQuote {
			return VerifyResult{Valid: true, MatchType: MatchExact, Score: 1.0, Tampering: tampering}
		}

		similarity := 1.0 - levenshteinRatio(normalize(candidate), normalizedQuote)
		if similarity >= v.config.SimilarityThreshold {
			return VerifyResult{Valid: true, MatchType: MatchFuzzy, Score: similarity, Tampering: tampering}
		}
	}

	if res, ok := v.contextSearch(content, citation, normalizedQuote); ok {
		res.Tampering = tampering
		return res
	}

	return VerifyResult{Valid: false, MatchType: MatchNone, Score: 0, Reason: "quote not found", Tampering: tampering}
}

// contextSearch looks ±ContextWindowSize characters around the specified
// range for the normalized quote, then falls back to a whole-document
// sliding-window fuzzy search on word boundaries.
func (v *Verifier) contextSearch(content string, citation Citation, normalizedQuote string) (VerifyResult, bool) {
	w := v.config.ContextWindowSize
	lo := citation.StartChar - w
	if lo < 0 {
		lo = 0
	}
	hi := citation.EndChar + w
	if hi > len(content) || hi <= 0 {
		hi = len(content)
	}
	if lo < hi && lo >= 0 && hi <= len(content) {
		window := content[lo:hi]
		normalizedWindow := normalize(window)
		if idx := strings.Index(normalizedWindow, normalizedQuote); idx >= 0 {
			return VerifyResult{
				Valid:          true,
				MatchType:      MatchContext,
				Score:          0.9,
				CorrectedRange: &CharRange{Start: lo, End: hi},
				Reason:         "exact match found in context window",
			}, true
		}
	}

	normalizedDoc := normalize(content)
	words := strings.Fields(normalizedQuote)
	if len(words) == 0 {
		return VerifyResult{}, false
	}
	matched := 0
	for _, word := range words {
		if strings.Contains(normalizedDoc, word) {
			matched++
		}
	}
	if matched > 0 && float64(matched)/float64(len(words)) >= 0.5 {
		return VerifyResult{
			Valid:     true,
			MatchType: MatchContext,
			Score:     0.75,
			Reason:    "partial-phrase match across document",
		}, true
	}

	return VerifyResult{}, false
}

// VerifyFor is Verify memoized by (claimID, documentName) within the
// request, per the concurrency model's verification-memoization rule.
func (v *Verifier) VerifyFor(claimID string, citation Citation, sources map[string]Source) VerifyResult {
	key := claimID + "\x00" + citation.DocumentName
	v.mu.Lock()
	if cached, ok := v.cache[key]; ok {
		v.mu.Unlock()
		return cached
	}
	v.mu.Unlock()

	result := v.Verify(citation, sources)

	v.mu.Lock()
	v.cache[key] = result
	v.mu.Unlock()
	return result
}

// CitationRequest pairs a claim id with the citation to verify, so
// BatchVerify can memoize per the request-scoped cache.
type CitationRequest struct {
	ClaimID  string
	Citation Citation
}

// BatchVerify verifies a batch of citations, possibly in parallel (callers
// wanting parallelism should fan BatchVerify calls out themselves; this
// method itself runs sequentially, matching a single bounded worker in the
// Orchestrator's fan-out).
func (v *Verifier) BatchVerify(items []CitationRequest, sources map[string]Source) BatchVerifyReport {
	report := BatchVerifyReport{Total: len(items), Results: make([]VerifyResult, len(items))}
	var sum float64
	for i, item := range items {
		res := v.VerifyFor(item.ClaimID, item.Citation, sources)
		report.Results[i] = res
		sum += res.Score
		if res.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}
	}
	if report.Total > 0 {
		report.AverageScore = sum / float64(report.Total)
	}
	return report
}

// levenshteinRatio returns the normalized Levenshtein distance
// distance/max(len(a),len(b)) between a and b, in [0,1].
func levenshteinRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(levenshteinDistance(a, b)) / float64(maxLen)
}

// levenshteinDistance computes the classic edit distance with a
// two-row dynamic-programming table.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
