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
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/veritas-labs/veritas/services/veritas/patterns"
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	quarterPattern   = regexp.MustCompile(`(?i)\bQ([1-4])\s+(\d{4})\b`)
	monthNames       = map[string]time.Month{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June, "july": time.July,
		"august": time.August, "september": time.September, "october": time.October,
		"november": time.November, "december": time.December,
	}
	monthDayYearPattern = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})\b`)
)

// extractDate finds the first recognizable date in text: ISO, slash form,
// English month-day-year, or Q{1-4} YYYY (normalized to the first day of
// the quarter).
func extractDate(text string) (time.Time, bool) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
	}
	if m := monthDayYearPattern.FindStringSubmatch(text); m != nil {
		mo := monthNames[toLowerASCII(m[1])]
		d, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), true
	}
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			return time.Time{}, false
		}
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
	}
	if m := quarterPattern.FindStringSubmatch(text); m != nil {
		q, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		firstMonth := time.Month((q-1)*3 + 1)
		return time.Date(y, firstMonth, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Detector finds pairwise incompatibilities between claims of the same
// ClaimType and runs the Resolution Matrix over each (§4.3). Stateless
// between requests; runs single-threaded over a shared ledger.
type Detector struct {
	config   *DetectorConfig
	patterns *patterns.Registry
}

// NewDetector returns a Detector; a nil config uses DefaultDetectorConfig.
func NewDetector(config *DetectorConfig, registry *patterns.Registry) *Detector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	if registry == nil {
		registry = patterns.MustNew()
	}
	return &Detector{config: config, patterns: registry}
}

// DetectAll iterates every pair of claims in the ledger with the invariant
// "skip same task, skip different type, skip same id", applies the first
// matching pairwise rule, and records the Resolution Matrix's verdict.
// Re-running DetectAll on the same ledger is commutative and idempotent:
// it only ever appends contradictions keyed by a canonical (lower,upper)
// claim-id pair, so a second pass finds nothing new.
func (d *Detector) DetectAll(ledger *Ledger) []*Contradiction {
	claims := ledger.All()
	seen := make(map[[2]string]bool)
	for _, c := range ledger.Contradictions() {
		seen[canonicalPair(c.ClaimPairA, c.ClaimPairB)] = true
	}

	var out []*Contradiction
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			a, b := claims[i], claims[j]
			if a.ID == b.ID {
				continue
			}
			if a.TaskID != "" && a.TaskID == b.TaskID {
				continue
			}
			if a.ClaimType != b.ClaimType {
				continue
			}
			pair := canonicalPair(a.ID, b.ID)
			if seen[pair] {
				continue
			}

			contra := d.evaluatePair(a, b)
			if contra == nil {
				continue
			}
			seen[pair] = true
			out = append(out, contra)
			ledger.AddContradiction(contra)
		}
	}
	return out
}

func canonicalPair(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// evaluatePair applies the five ordered pairwise rules, first match wins,
// then runs the Resolution Matrix over any contradiction found.
func (d *Detector) evaluatePair(a, b *Claim) *Contradiction {
	if numA, ok1 := d.patterns.ExtractNumber(a.Text); ok1 {
		if numB, ok2 := d.patterns.ExtractNumber(b.Text); ok2 && numA.UnitKind == numB.UnitKind {
			maxV := math.Max(numA.Base, numB.Base)
			if maxV > 0 {
				relDiff := math.Abs(numA.Base-numB.Base) / maxV
				if relDiff > d.config.NumericalTolerancePercent {
					sev := severityForRelDiff(relDiff)
					return d.resolve(a, b, ContradictionNumerical, sev, map[string]any{
						"relDiff": relDiff, "a": numA.Base, "b": numB.Base, "unitKind": numA.UnitKind,
					})
				}
			}
		}
	}

	if dateA, ok1 := extractDate(a.Text); ok1 {
		if dateB, ok2 := extractDate(b.Text); ok2 {
			deltaDays := math.Abs(dateA.Sub(dateB).Hours() / 24)
			if deltaDays > float64(d.config.TemporalToleranceDays) {
				sev := severityForDeltaDays(deltaDays)
				return d.resolve(a, b, ContradictionTemporal, sev, map[string]any{
					"deltaDays": deltaDays, "a": dateA.Format("2006-01-02"), "b": dateB.Format("2006-01-02"),
				})
			}
		}
	}

	aPos, aNeg := d.patterns.MatchesPositivePolarity(a.Text), d.patterns.MatchesNegativePolarity(a.Text)
	bPos, bNeg := d.patterns.MatchesPositivePolarity(b.Text), d.patterns.MatchesNegativePolarity(b.Text)
	if (aPos && bNeg) || (aNeg && bPos) {
		return d.resolve(a, b, ContradictionPolarity, SeverityHigh, nil)
	}

	if termA, termB, ok := d.patterns.LogicalOpposite(a.Text, b.Text); ok {
		return d.resolve(a, b, ContradictionLogical, SeverityHigh, map[string]any{"termA": termA, "termB": termB})
	}

	kA, kB := d.patterns.Keywords(a.Text), d.patterns.Keywords(b.Text)
	if sim := patterns.JaccardSimilarity(kA, kB); sim < 0.3 {
		return d.resolve(a, b, ContradictionDefinitional, SeverityMedium, map[string]any{"jaccard": sim})
	}

	return nil
}

func severityForRelDiff(relDiff float64) Severity {
	switch {
	case relDiff > 0.50:
		return SeverityHigh
	case relDiff > 0.30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func severityForDeltaDays(deltaDays float64) Severity {
	switch {
	case deltaDays > 90:
		return SeverityHigh
	case deltaDays > 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// resolve builds the Contradiction record and runs the Resolution Matrix
// (top-down, first match wins) to populate its Resolution.
func (d *Detector) resolve(a, b *Claim, t ContradictionType, severity Severity, values map[string]any) *Contradiction {
	c := &Contradiction{
		ID:         uuid.NewString(),
		Type:       t,
		Severity:   severity,
		ClaimPairA: a.ID,
		ClaimPairB: b.ID,
		Values:     values,
	}
	c.Resolution = d.resolutionMatrix(a, b, t, severity)
	return c
}

// resolutionMatrix applies the five ordered resolution rules (§4.3).
func (d *Detector) resolutionMatrix(a, b *Claim, t ContradictionType, severity Severity) Resolution {
	if a.Origin == OriginExplicit && b.Origin != OriginExplicit {
		return Resolution{Action: ActionAcceptExplicitReduceOther, PreferredClaim: a.ID, Rule: "explicit-beats-inferred"}
	}
	if b.Origin == OriginExplicit && a.Origin != OriginExplicit {
		return Resolution{Action: ActionAcceptExplicitReduceOther, PreferredClaim: b.ID, Rule: "explicit-beats-inferred"}
	}

	if math.Abs(a.Confidence-b.Confidence) > 0.2 {
		if a.Confidence > b.Confidence {
			return Resolution{Action: ActionAcceptHigherFlagLower, PreferredClaim: a.ID, Rule: "confidence-dominance"}
		}
		return Resolution{Action: ActionAcceptHigherFlagLower, PreferredClaim: b.ID, Rule: "confidence-dominance"}
	}

	if a.ClaimType == ClaimRequirement || a.ClaimType == ClaimDeadline {
		_, aReg := d.patterns.HasRegulatoryKeyword(a.Source.DocumentName)
		_, bReg := d.patterns.HasRegulatoryKeyword(b.Source.DocumentName)
		if aReg && !bReg {
			return Resolution{Action: ActionAcceptRegulatoryRejectOther, PreferredClaim: a.ID, Rule: "authority"}
		}
		if bReg && !aReg {
			return Resolution{Action: ActionAcceptRegulatoryRejectOther, PreferredClaim: b.ID, Rule: "authority"}
		}
	}

	if severity == SeverityHigh {
		return Resolution{Action: ActionFlagBothForManualReview, Rule: "high-severity-no-clear-winner"}
	}

	return Resolution{Action: ActionAverageOrFlag, Rule: "default"}
}

// String implements fmt.Stringer for debugging/log output.
func (c *Contradiction) String() string {
	return fmt.Sprintf("Contradiction{%s, %s/%s, %s vs %s -> %s}", c.ID, c.Type, c.Severity, c.ClaimPairA, c.ClaimPairB, c.Resolution.Action)
}
