// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package veritas implements the claim validation and quality-gating engine:
// claim extraction, citation verification, contradiction detection, provenance
// auditing, confidence calibration, quality gates, and deterministic repair.
//
// # Architecture
//
// Each stage is a concrete type (Extractor, Verifier, Detector, Auditor,
// Calibrator, GateManager, Repairer), wired together by an Orchestrator. Stages communicate only through the
// Ledger and the typed records in this file; there is no shared mutable
// global state between requests.
//
// # Thread Safety
//
// A Ledger is owned by exactly one request for its entire lifetime. Readers
// may run concurrently; its mutating methods (AddClaim, AddContradiction)
// are serialized by the Ledger's own RWMutex.
package veritas

import (
	"time"
)

// Provider identifies the upstream reasoning provider that produced a Source
// or authored a raw claim. Closed enum; UNKNOWN is the zero-information
// fallback, never assumed when a concrete provider tag is available.
type Provider string

const (
	ProviderInternal Provider = "INTERNAL"
	ProviderGemini   Provider = "GEMINI"
	ProviderClaude   Provider = "CLAUDE"
	ProviderGPT      Provider = "GPT"
	ProviderGrok     Provider = "GROK"
	ProviderUnknown  Provider = "UNKNOWN"
)

// String implements fmt.Stringer.
func (p Provider) String() string {
	switch p {
	case ProviderInternal, ProviderGemini, ProviderClaude, ProviderGPT, ProviderGrok:
		return string(p)
	default:
		return string(ProviderUnknown)
	}
}

// Valid reports whether p is a member of the closed Provider enum.
func (p Provider) Valid() bool {
	switch p {
	case ProviderInternal, ProviderGemini, ProviderClaude, ProviderGPT, ProviderGrok, ProviderUnknown:
		return true
	default:
		return false
	}
}

// Source is a primary artifact the engine verifies claims against.
// Immutable after ingestion.
type Source struct {
	Name        string   `json:"name" validate:"required"`
	Provider    Provider `json:"provider" validate:"required"`
	UTF8Content string   `json:"utf8Content"`
	Size        int      `json:"size"`
	MimeType    string   `json:"mimeType"`
}

// ClaimType is the closed set of claim shapes the engine understands.
// Design Note: claims are modeled as a tagged record keyed by ClaimType
// rather than an open dictionary, so an unrecognized type is a construction
// error (InvalidInput) instead of a silently discarded field.
type ClaimType string

const (
	ClaimDuration     ClaimType = "duration"
	ClaimStartDate    ClaimType = "startDate"
	ClaimEndDate      ClaimType = "endDate"
	ClaimDeadline     ClaimType = "deadline"
	ClaimDependency   ClaimType = "dependency"
	ClaimRequirement  ClaimType = "requirement"
	ClaimResource     ClaimType = "resource"
	ClaimFinancial    ClaimType = "financial"
	ClaimGeneric      ClaimType = "generic"
)

// Valid reports whether t is a member of the closed ClaimType enum.
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimDuration, ClaimStartDate, ClaimEndDate, ClaimDeadline, ClaimDependency,
		ClaimRequirement, ClaimResource, ClaimFinancial, ClaimGeneric:
		return true
	default:
		return false
	}
}

// Origin distinguishes claims backed by a citation from claims the upstream
// reasoner inferred without one.
type Origin string

const (
	OriginExplicit Origin = "explicit"
	OriginInferred Origin = "inferred"
)

// Citation is a primary-source reference. Optional on a Claim — absent for
// inferred claims.
type Citation struct {
	DocumentName string    `json:"documentName" validate:"required"`
	StartChar    int       `json:"startChar"`
	EndChar      int       `json:"endChar"`
	ExactQuote   string    `json:"exactQuote"`
	RetrievedAt  time.Time `json:"retrievedAt"`
}

// ClaimSource attributes a Claim to the document and provider it came from,
// with the optional Citation that grounds it.
type ClaimSource struct {
	DocumentName string    `json:"documentName"`
	Provider     Provider  `json:"provider"`
	Citation     *Citation `json:"citation,omitempty"`
}

// CalibrationMetadata preserves the pre-calibration confidence and the
// per-factor multipliers the Calibrator applied, for explainability.
type CalibrationMetadata struct {
	OriginalConfidence float64            `json:"originalConfidence"`
	Factors            map[string]float64 `json:"factors"`
	CalibratedAt       time.Time          `json:"calibratedAt"`
}

// ReviewFlag marks a claim for manual attention without removing it.
type ReviewFlag struct {
	Type    string    `json:"type"`
	Reason  string    `json:"reason"`
	FlagAt  time.Time `json:"flaggedAt"`
}

// Claim is an atomic assertion with provenance, type, confidence, and an
// optional citation. Created by the Extractor, then mutated in place:
// verification and the Auditor set ProvenanceValid and ProvenanceScore, the
// Detector appends contradiction ids, the Calibrator replaces Confidence
// (the prior value is preserved in CalibrationMetadata) and sets
// ValidatedAt, and the Repair Engine may change ID, Origin, Confidence,
// InferenceRationale and ReviewFlags. Never deleted.
type Claim struct {
	ID                   string                `json:"id"`
	TaskID               string                `json:"taskId,omitempty"`
	Text                 string                `json:"text" validate:"required"`
	ClaimType            ClaimType             `json:"claimType" validate:"required"`
	Origin               Origin                `json:"origin" validate:"required"`
	Confidence           float64               `json:"confidence"`
	Source               ClaimSource           `json:"source"`
	Contradictions       []string              `json:"contradictions,omitempty"`
	ValidatedAt          time.Time             `json:"validatedAt"`
	CalibrationMetadata  *CalibrationMetadata  `json:"calibrationMetadata,omitempty"`
	ReviewFlags          []ReviewFlag          `json:"reviewFlags,omitempty"`
	InferenceRationale   string                `json:"inferenceRationale,omitempty"`
	SupportingFacts      []string              `json:"supportingFacts,omitempty"`
	ProvenanceScore      float64               `json:"provenanceScore"`
	ProvenanceValid      bool                  `json:"provenanceValid"`
}

// HasCitation reports whether the claim carries a non-nil Citation.
func (c *Claim) HasCitation() bool {
	return c.Source.Citation != nil
}

// ContradictionType is the closed set of pairwise incompatibility rules the
// Detector evaluates, in the fixed order they are checked (§4.3).
type ContradictionType string

const (
	ContradictionNumerical    ContradictionType = "numerical"
	ContradictionTemporal     ContradictionType = "temporal"
	ContradictionPolarity     ContradictionType = "polarity"
	ContradictionLogical      ContradictionType = "logical"
	ContradictionDefinitional ContradictionType = "definitional"
)

// Severity is the closed severity scale shared by contradictions and gate
// warnings.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ResolutionAction is the closed set of outcomes the Resolution Matrix can
// produce for a contradiction.
type ResolutionAction string

const (
	ActionAcceptExplicitReduceOther  ResolutionAction = "accept-explicit-reduce-other-confidence"
	ActionAcceptHigherFlagLower      ResolutionAction = "accept-higher-flag-lower"
	ActionAcceptRegulatoryRejectOther ResolutionAction = "accept-regulatory-reject-other"
	ActionFlagBothForManualReview    ResolutionAction = "flag-both-for-manual-review"
	ActionAverageOrFlag              ResolutionAction = "average-or-flag"
)

// Resolution is the arbitration record the Resolution Matrix attaches to a
// Contradiction.
type Resolution struct {
	Action         ResolutionAction `json:"action"`
	PreferredClaim string           `json:"preferredClaim,omitempty"`
	Rule           string           `json:"rule"`
}

// Contradiction is a pairwise incompatibility record between two claims of
// the same ClaimType.
type Contradiction struct {
	ID         string             `json:"id"`
	Type       ContradictionType  `json:"type"`
	Severity   Severity           `json:"severity"`
	ClaimPairA string             `json:"claimPairA"`
	ClaimPairB string             `json:"claimPairB"`
	Values     map[string]any     `json:"values,omitempty"`
	Resolution Resolution         `json:"resolution"`
	ResolvedAt *time.Time         `json:"resolvedAt,omitempty"`
	Strategy   string             `json:"strategy,omitempty"`
}

// Dependency is one edge in a Timeline Task's dependency list.
type Dependency struct {
	TaskID     string  `json:"taskId"`
	Confidence float64 `json:"confidence"`
	Origin     Origin  `json:"origin"`
}

// RegulatoryRequirement marks a Timeline Task as subject to a detected
// regulation.
type RegulatoryRequirement struct {
	IsRequired bool    `json:"isRequired"`
	Regulation string  `json:"regulation,omitempty"`
	Confidence float64 `json:"confidence"`
	Origin     Origin  `json:"origin"`
}

// FinancialMetric is one populated financial field on a Timeline Task.
type FinancialMetric struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Currency   string  `json:"currency"`
	Confidence float64 `json:"confidence"`
	Origin     Origin  `json:"origin"`
}

// TimelineTask is a structured unit of work in the semantic-timeline
// pipeline. Never reordered by the core; mutations are restricted to
// Confidence, an Origin downgrade (explicit→inferred), review flags,
// resolution markers, and a RegulatoryRequirement the Repair Engine sets on
// an unmarked regulatory-keyword task.
type TimelineTask struct {
	ID                    string                  `json:"id"`
	Name                  string                  `json:"name"`
	Description           string                  `json:"description,omitempty"`
	Origin                Origin                  `json:"origin"`
	Confidence            float64                 `json:"confidence"`
	Duration              *float64                `json:"duration,omitempty"`
	StartDate             *time.Time              `json:"startDate,omitempty"`
	EndDate               *time.Time              `json:"endDate,omitempty"`
	Dependencies          []Dependency            `json:"dependencies,omitempty"`
	RegulatoryRequirement *RegulatoryRequirement  `json:"regulatoryRequirement,omitempty"`
	FinancialMetrics      []FinancialMetric       `json:"financialImpact,omitempty"`
	SourceCitations       []Citation              `json:"sourceCitations,omitempty"`
	ReviewFlags           []ReviewFlag            `json:"reviewFlags,omitempty"`
}

// RawClaim is an unverified assertion as returned by an external upstream
// reasoning provider (see services/reasoning). The Extractor projects these
// into Claim values; it never calls a provider itself.
type RawClaim struct {
	Text          string
	ClaimType     ClaimType
	CitationHint  *Citation
	Origin        Origin
	Confidence    float64
}

// GateResult is the per-gate outcome the Quality Gate Manager produces.
type GateResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Blocker   bool    `json:"blocker"`
	Details   string  `json:"details,omitempty"`
}

// GateReport is the aggregate result of evaluating all registered gates.
type GateReport struct {
	Passed   bool         `json:"passed"`
	Failures []GateResult `json:"failures"`
	Warnings []GateResult `json:"warnings"`
	Summary  string       `json:"summary"`
}

// RepairActionKind is the closed set of mutations the Repair Engine applies.
type RepairActionKind string

const (
	RepairAddedInferenceRationale  RepairActionKind = "added_inference_rationale"
	RepairResolvedContradiction    RepairActionKind = "resolved_contradiction"
	RepairBoostedConfidence        RepairActionKind = "boosted_confidence"
	RepairFlaggedLowConfidence     RepairActionKind = "flagged_low_confidence"
	RepairRemovedLowConfidence     RepairActionKind = "removed_low_confidence_task"
	RepairRegeneratedID            RepairActionKind = "regenerated_id"
	RepairDefaultedOrigin          RepairActionKind = "defaulted_origin"
	RepairClampedField             RepairActionKind = "clamped_field"
	RepairSynthesizedRegulatory    RepairActionKind = "synthesized_regulatory_requirement"
	RepairRemovedInvalidContradiction RepairActionKind = "removed_invalid_contradiction"
)

// RepairAction records one deterministic, idempotent mutation applied by the
// Repair Engine. Given the same input ledger, re-applying the same action is
// a no-op.
type RepairAction struct {
	ID      string           `json:"id"`
	Gate    string           `json:"gate"`
	Action  RepairActionKind `json:"action"`
	Targets []string         `json:"targets"`
	Changes map[string]any   `json:"changes,omitempty"`
	AppliedAt time.Time      `json:"appliedAt"`
}

// StageErrorKind is the error taxonomy shared across all stages (§7).
type StageErrorKind string

const (
	KindInvalidInput          StageErrorKind = "InvalidInput"
	KindSourceMissing         StageErrorKind = "SourceMissing"
	KindVerificationFailed    StageErrorKind = "VerificationFailed"
	KindResolutionUnresolved  StageErrorKind = "ResolutionUnresolved"
	KindGateBlocked           StageErrorKind = "GateBlocked"
	KindStageFatal            StageErrorKind = "StageFatal"
)

// Result is the top-level, user-visible outcome of a Validate call.
type Result struct {
	Success  bool            `json:"success"`
	Errors   []StageError    `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Ledger   *Ledger         `json:"ledger,omitempty"`
	Tasks    []*TimelineTask `json:"tasks,omitempty"`
	Gates    *GateReport     `json:"gates,omitempty"`
	Repairs  []RepairAction  `json:"repairs,omitempty"`
	Metrics  HealthSnapshot  `json:"metrics"`
}
