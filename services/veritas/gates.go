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

import "github.com/veritas-labs/veritas/services/veritas/patterns"

// Artifact is the full post-calibration state a gate evaluates: the
// claims, the contradictions that reference them, and any timeline tasks.
// Gate evaluation is pure — a gate must never mutate its Artifact.
type Artifact struct {
	Claims         []*Claim
	Contradictions []*Contradiction
	Tasks          []*TimelineTask
}

// Gate is the contract every default and custom gate satisfies. Evaluate
// must be a pure function of its Artifact.
type Gate interface {
	Name() string
	Blocker() bool
	Threshold() float64
	Evaluate(a *Artifact) (score float64, passed bool, details string)
}

type gateFunc struct {
	name      string
	blocker   bool
	threshold float64
	eval      func(a *Artifact) (float64, bool, string)
}

func (g *gateFunc) Name() string      { return g.name }
func (g *gateFunc) Blocker() bool     { return g.blocker }
func (g *gateFunc) Threshold() float64 { return g.threshold }
func (g *gateFunc) Evaluate(a *Artifact) (float64, bool, string) { return g.eval(a) }

// GateManager evaluates a set of named gates against the full
// post-calibration artifact, in a fixed deterministic order (§4.6).
type GateManager struct {
	config   *GateConfig
	registry *patterns.Registry
	gates    []Gate
}

// NewGateManager builds the six default gates plus any custom gates, in
// gate-declaration order: CITATION_COVERAGE, CONTRADICTION_SEVERITY,
// CONFIDENCE_MINIMUM, SCHEMA_COMPLIANCE, REGULATORY_FLAGS,
// PROVENANCE_QUALITY. This order is also the Repair Engine's fixed repair
// order (§9 Open Question resolution).
func NewGateManager(config *GateConfig, registry *patterns.Registry, custom ...Gate) *GateManager {
	if config == nil {
		config = DefaultGateConfig()
	}
	if registry == nil {
		registry = patterns.MustNew()
	}
	gm := &GateManager{config: config, registry: registry}
	gm.gates = append(gm.gates, gm.defaultGates()...)
	gm.gates = append(gm.gates, custom...)
	return gm
}

// GateNames returns the configured gates' names, in evaluation order —
// used by the Repair Engine to fix its own iteration order.
func (gm *GateManager) GateNames() []string {
	names := make([]string, len(gm.gates))
	for i, g := range gm.gates {
		names[i] = g.Name()
	}
	return names
}

func (gm *GateManager) defaultGates() []Gate {
	return []Gate{
		&gateFunc{name: "CITATION_COVERAGE", blocker: true, threshold: gm.config.CitationCoverageThreshold, eval: gm.citationCoverage},
		&gateFunc{name: "CONTRADICTION_SEVERITY", blocker: true, threshold: 0, eval: gm.contradictionSeverity},
		&gateFunc{name: "CONFIDENCE_MINIMUM", blocker: true, threshold: gm.config.MinConfidence, eval: gm.confidenceMinimum},
		&gateFunc{name: "SCHEMA_COMPLIANCE", blocker: true, threshold: 1, eval: gm.schemaCompliance},
		&gateFunc{name: "REGULATORY_FLAGS", blocker: false, threshold: 1, eval: gm.regulatoryFlags},
		&gateFunc{name: "PROVENANCE_QUALITY", blocker: false, threshold: 70, eval: gm.provenanceQuality},
	}
}

// citationCoverage measures the fraction of explicit items that carry a
// non-empty citation list — presence, not validity (§9 Open Question
// resolution; Scenario 3 exercises this explicitly).
func (gm *GateManager) citationCoverage(a *Artifact) (float64, bool, string) {
	explicitCount, citedCount := 0, 0
	for _, c := range a.Claims {
		if c.Origin != OriginExplicit {
			continue
		}
		explicitCount++
		if c.HasCitation() {
			citedCount++
		}
	}
	if explicitCount == 0 {
		return 1.0, true, "no explicit claims to evaluate"
	}
	coverage := float64(citedCount) / float64(explicitCount)
	return coverage, coverage >= gm.config.CitationCoverageThreshold, "fraction of explicit items carrying a citation"
}

// contradictionSeverity counts unresolved high-severity contradictions;
// zero is required to pass.
func (gm *GateManager) contradictionSeverity(a *Artifact) (float64, bool, string) {
	count := 0
	for _, c := range a.Contradictions {
		if c.Severity == SeverityHigh && c.ResolvedAt == nil {
			count++
		}
	}
	return float64(count), count == 0, "count of unresolved high-severity contradictions"
}

// confidenceMinimum requires every claim's calibrated confidence to meet
// the configured floor.
func (gm *GateManager) confidenceMinimum(a *Artifact) (float64, bool, string) {
	minSeen := 1.0
	for _, c := range a.Claims {
		if c.Confidence < minSeen {
			minSeen = c.Confidence
		}
	}
	if len(a.Claims) == 0 {
		return 1.0, true, "no claims to evaluate"
	}
	return minSeen, minSeen >= gm.config.MinConfidence, "lowest calibrated confidence across all claims"
}

// schemaCompliance validates the structural invariants the data model
// requires: non-empty claim ids, a valid claim type and origin, confidence
// within [0,1], and contradictions naming two distinct non-empty claim ids.
// Citation offsets are not checked.
func (gm *GateManager) schemaCompliance(a *Artifact) (float64, bool, string) {
	for _, c := range a.Claims {
		if c.ID == "" || !c.ClaimType.Valid() || (c.Origin != OriginExplicit && c.Origin != OriginInferred) {
			return 0, false, "claim " + c.ID + " fails schema validation"
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return 0, false, "claim " + c.ID + " confidence out of bounds"
		}
	}
	for _, c := range a.Contradictions {
		if c.ClaimPairA == c.ClaimPairB || c.ClaimPairA == "" || c.ClaimPairB == "" {
			return 0, false, "contradiction " + c.ID + " references invalid claim pair"
		}
	}
	return 1, true, "all structural invariants satisfied"
}

// regulatoryFlags requires every task whose name/description hits a
// regulatory keyword to carry regulatoryRequirement.isRequired = true.
// Warning gate: never blocks.
func (gm *GateManager) regulatoryFlags(a *Artifact) (float64, bool, string) {
	hits, flagged := 0, 0
	for _, t := range a.Tasks {
		text := t.Name + " " + t.Description
		if _, ok := gm.registry.HasRegulatoryKeyword(text); ok {
			hits++
			if t.RegulatoryRequirement != nil && t.RegulatoryRequirement.IsRequired {
				flagged++
			}
		}
	}
	if hits == 0 {
		return 1.0, true, "no task matched a regulatory keyword"
	}
	ratio := float64(flagged) / float64(hits)
	return ratio, flagged == hits, "fraction of regulatory-keyword tasks carrying isRequired=true"
}

// provenanceQuality is the mean audit score over all claims. Warning gate.
func (gm *GateManager) provenanceQuality(a *Artifact) (float64, bool, string) {
	if len(a.Claims) == 0 {
		return 100, true, "no claims to evaluate"
	}
	sum := 0.0
	for _, c := range a.Claims {
		sum += c.ProvenanceScore
	}
	avg := sum / float64(len(a.Claims))
	return avg, avg >= 70, "mean provenance audit score"
}

// Evaluate runs every gate in declaration order and produces the aggregate
// report. Evaluating the same artifact twice produces identical results,
// including the ordering of Failures and Warnings.
func (gm *GateManager) Evaluate(a *Artifact) *GateReport {
	report := &GateReport{Passed: true}
	for _, g := range gm.gates {
		score, passed, details := g.Evaluate(a)
		result := GateResult{
			Name:      g.Name(),
			Passed:    passed,
			Score:     score,
			Threshold: g.Threshold(),
			Blocker:   g.Blocker(),
			Details:   details,
		}
		if !passed {
			if g.Blocker() {
				report.Failures = append(report.Failures, result)
				report.Passed = false
			} else {
				report.Warnings = append(report.Warnings, result)
			}
		}
	}
	if report.Passed {
		report.Summary = "all blocking gates passed"
	} else {
		report.Summary = "one or more blocking gates failed"
	}
	return report
}
