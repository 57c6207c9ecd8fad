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
	"time"

	"github.com/google/uuid"

	"github.com/veritas-labs/veritas/services/veritas/patterns"
)

// RepairState is the Repair Engine's per-request state machine position.
type RepairState string

const (
	RepairPending    RepairState = "pending"
	RepairRepairing  RepairState = "repairing"
	RepairRepaired   RepairState = "repaired"
	RepairUnrepairable RepairState = "unrepairable"
)

// RepairOutcome is the Repair Engine's verdict for one repair pass: the
// actions it applied and the final state machine position.
type RepairOutcome struct {
	State   RepairState
	Actions []RepairAction
}

// strategy is one gate's deterministic repair: given the failing GateResult
// and the full artifact, mutate the artifact in place and return the actions
// taken. A strategy must be idempotent — applying it twice against an
// already-repaired artifact produces zero further actions.
type strategy func(r *Repairer, result GateResult, a *Artifact, now time.Time) []RepairAction

// Repairer applies exactly one deterministic strategy per failing gate, one
// pass, then relies on the caller to re-evaluate gates once (§4.7, §9 Open
// Question resolution: repair order follows gate-declaration order).
type Repairer struct {
	config     *RepairConfig
	strategies map[string]strategy
	now        func() time.Time
}

// NewRepairer returns a Repairer wired with five default strategies, one for
// each default gate except PROVENANCE_QUALITY, which has none; a nil config
// uses DefaultRepairConfig.
func NewRepairer(config *RepairConfig) *Repairer {
	if config == nil {
		config = DefaultRepairConfig()
	}
	r := &Repairer{config: config, now: time.Now}
	r.strategies = map[string]strategy{
		"CITATION_COVERAGE":      (*Repairer).repairCitationCoverage,
		"CONTRADICTION_SEVERITY": (*Repairer).repairContradictionSeverity,
		"CONFIDENCE_MINIMUM":     (*Repairer).repairConfidenceMinimum,
		"SCHEMA_COMPLIANCE":      (*Repairer).repairSchemaCompliance,
		"REGULATORY_FLAGS":       (*Repairer).repairRegulatoryFlags,
	}
	return r
}

// RepairGates applies the registered strategy for each failing gate in
// report.Failures, in the order the GateManager produced them (gate-
// declaration order), mutating a in place. It makes exactly one pass — the
// caller re-evaluates gates once afterward per the fixed pipeline order;
// RepairGates itself never loops.
func (r *Repairer) RepairGates(report *GateReport, a *Artifact) RepairOutcome {
	if len(report.Failures) == 0 {
		return RepairOutcome{State: RepairRepaired}
	}
	var actions []RepairAction
	for _, failure := range report.Failures {
		strat, ok := r.strategies[failure.Name]
		if !ok {
			continue
		}
		actions = append(actions, strat(r, failure, a, r.now())...)
	}
	if len(actions) == 0 {
		return RepairOutcome{State: RepairUnrepairable}
	}
	return RepairOutcome{State: RepairRepaired, Actions: actions}
}

func (r *Repairer) action(gate string, kind RepairActionKind, targets []string, changes map[string]any, now time.Time) RepairAction {
	return RepairAction{
		ID:        uuid.NewString(),
		Gate:      gate,
		Action:    kind,
		Targets:   targets,
		Changes:   changes,
		AppliedAt: now,
	}
}

// repairCitationCoverage downgrades uncited explicit claims to inferred,
// caps their confidence at 0.85, and stubs an inference rationale — idempotent
// because a claim already downgraded has Origin == inferred and is skipped.
func (r *Repairer) repairCitationCoverage(result GateResult, a *Artifact, now time.Time) []RepairAction {
	var actions []RepairAction
	for _, c := range a.Claims {
		if c.Origin != OriginExplicit || c.HasCitation() {
			continue
		}
		c.Origin = OriginInferred
		if c.Confidence > 0.85 {
			c.Confidence = 0.85
		}
		if c.InferenceRationale == "" {
			c.InferenceRationale = "downgraded from uncited explicit claim during quality-gate repair"
		}
		actions = append(actions, r.action("CITATION_COVERAGE", RepairAddedInferenceRationale, []string{c.ID}, map[string]any{
			"newOrigin": string(OriginInferred), "confidenceCap": 0.85,
		}, now))
	}
	return actions
}

// repairContradictionSeverity re-applies each unresolved high-severity
// contradiction's own Resolution Matrix verdict: the losing claim's
// confidence is multiplied by 0.85 and the contradiction is marked resolved.
// Idempotent — a contradiction with a non-nil ResolvedAt is skipped.
func (r *Repairer) repairContradictionSeverity(result GateResult, a *Artifact, now time.Time) []RepairAction {
	byID := make(map[string]*Claim, len(a.Claims))
	for _, c := range a.Claims {
		byID[c.ID] = c
	}

	var actions []RepairAction
	for _, contra := range a.Contradictions {
		if contra.Severity != SeverityHigh || contra.ResolvedAt != nil {
			continue
		}
		loser := loserOf(contra, byID)
		changes := map[string]any{"rule": contra.Resolution.Rule, "action": string(contra.Resolution.Action)}
		targets := []string{contra.ID}
		if loser != nil {
			loser.Confidence *= 0.85
			targets = append(targets, loser.ID)
			changes["confidenceMultiplier"] = 0.85
		}
		resolvedAt := now
		contra.ResolvedAt = &resolvedAt
		contra.Strategy = "resolution-matrix-reapply"
		actions = append(actions, r.action("CONTRADICTION_SEVERITY", RepairResolvedContradiction, targets, changes, now))
	}
	return actions
}

// loserOf returns the claim the Resolution Matrix did NOT prefer, or nil if
// the resolution has no single preferred claim (manual-review/average cases).
func loserOf(c *Contradiction, byID map[string]*Claim) *Claim {
	if c.Resolution.PreferredClaim == "" {
		return nil
	}
	if c.Resolution.PreferredClaim == c.ClaimPairA {
		return byID[c.ClaimPairB]
	}
	return byID[c.ClaimPairA]
}

// repairConfidenceMinimum boosts a below-floor claim to the floor if it
// carries a citation, otherwise flags it for manual review without mutating
// its confidence. Only the citation's presence is checked; whether it
// verified (exact, fuzzy or not at all) is not consulted. Idempotent — a claim already at or
// above the floor, or already flagged, is skipped.
func (r *Repairer) repairConfidenceMinimum(result GateResult, a *Artifact, now time.Time) []RepairAction {
	var actions []RepairAction
	for _, c := range a.Claims {
		if c.Confidence >= r.minConfidenceFloor() {
			continue
		}
		if c.HasCitation() {
			c.Confidence = r.minConfidenceFloor()
			actions = append(actions, r.action("CONFIDENCE_MINIMUM", RepairBoostedConfidence, []string{c.ID}, map[string]any{
				"newConfidence": c.Confidence,
			}, now))
			continue
		}
		if alreadyFlagged(c, "LOW_CONFIDENCE") {
			continue
		}
		c.ReviewFlags = append(c.ReviewFlags, ReviewFlag{Type: "LOW_CONFIDENCE", Reason: "confidence below floor with no supporting citation", FlagAt: now})
		actions = append(actions, r.action("CONFIDENCE_MINIMUM", RepairFlaggedLowConfidence, []string{c.ID}, nil, now))
	}
	return actions
}

func alreadyFlagged(c *Claim, flagType string) bool {
	for _, f := range c.ReviewFlags {
		if f.Type == flagType {
			return true
		}
	}
	return false
}

func (r *Repairer) minConfidenceFloor() float64 {
	if r.config.MinConfidenceFloor > 0 {
		return r.config.MinConfidenceFloor
	}
	return 0.50
}

// repairSchemaCompliance regenerates missing ids, defaults an invalid origin
// to inferred, clamps out-of-range confidence into [0,1], and drops any
// contradiction referencing an invalid claim pair — the only invariant the
// schema gate checks that isn't a property of a single claim. Idempotent —
// each check only fires when the field is actually malformed.
func (r *Repairer) repairSchemaCompliance(result GateResult, a *Artifact, now time.Time) []RepairAction {
	var actions []RepairAction
	for i, c := range a.Claims {
		if c.ID == "" {
			c.ID = uuid.NewString()
			actions = append(actions, r.action("SCHEMA_COMPLIANCE", RepairRegeneratedID, []string{c.ID}, map[string]any{"index": i}, now))
		}
		if c.Origin != OriginExplicit && c.Origin != OriginInferred {
			c.Origin = OriginInferred
			actions = append(actions, r.action("SCHEMA_COMPLIANCE", RepairDefaultedOrigin, []string{c.ID}, nil, now))
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			clamped := c.Confidence
			if clamped < 0 {
				clamped = 0
			}
			if clamped > 1 {
				clamped = 1
			}
			c.Confidence = clamped
			actions = append(actions, r.action("SCHEMA_COMPLIANCE", RepairClampedField, []string{c.ID}, map[string]any{"field": "confidence", "value": clamped}, now))
		}
	}

	var kept []*Contradiction
	for _, contra := range a.Contradictions {
		if contra.ClaimPairA == "" || contra.ClaimPairB == "" || contra.ClaimPairA == contra.ClaimPairB {
			actions = append(actions, r.action("SCHEMA_COMPLIANCE", RepairRemovedInvalidContradiction, []string{contra.ID}, map[string]any{
				"claimPairA": contra.ClaimPairA, "claimPairB": contra.ClaimPairB,
			}, now))
			continue
		}
		kept = append(kept, contra)
	}
	a.Contradictions = kept

	return actions
}

// repairRegulatoryFlags synthesizes a RegulatoryRequirement on every task the
// registry flagged but that was left unmarked, with isRequired=true,
// confidence=0.9, origin=explicit. Idempotent — a task already carrying a
// RegulatoryRequirement is skipped.
func (r *Repairer) repairRegulatoryFlags(result GateResult, a *Artifact, now time.Time) []RepairAction {
	var actions []RepairAction
	registry := patterns.MustNew()
	for _, t := range a.Tasks {
		if _, ok := registry.HasRegulatoryKeyword(t.Name + " " + t.Description); !ok {
			continue
		}
		if t.RegulatoryRequirement != nil && t.RegulatoryRequirement.IsRequired {
			continue
		}
		if t.RegulatoryRequirement != nil {
			continue
		}
		t.RegulatoryRequirement = &RegulatoryRequirement{IsRequired: true, Confidence: 0.9, Origin: OriginExplicit}
		actions = append(actions, r.action("REGULATORY_FLAGS", RepairSynthesizedRegulatory, []string{t.ID}, nil, now))
	}
	return actions
}
