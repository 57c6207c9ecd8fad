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
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veritas-labs/veritas/pkg/logging"
	"github.com/veritas-labs/veritas/services/veritas/patterns"
)

// DocumentClaims is one document's raw claims as produced by an upstream
// collaborator (see services/reasoning), keyed by the Source it was
// extracted against.
type DocumentClaims struct {
	Source Source
	Raw    []RawClaim
}

// Request is everything Validate needs: the documents with their raw
// claims, the full set of sources citations may resolve against, and any
// timeline tasks to validate alongside the claims.
type Request struct {
	Documents []DocumentClaims
	Sources   map[string]Source
	Tasks     []*TimelineTask
	RequestID string
}

// Orchestrator wires every stage together in the fixed pipeline order
// (§4.8): extract -> verify -> detect -> audit -> aggregate -> calibrate
// -> evaluate gates -> (repair -> re-evaluate) -> emit. One Orchestrator
// is safe to reuse across requests; each Validate call is request-scoped
// (fresh Ledger, fresh Verifier cache).
type Orchestrator struct {
	config      *Config
	registry    *patterns.Registry
	gateManager *GateManager
	repairer    *Repairer
	auditLog    RepairAuditLogger
	metrics     *Metrics
	logger      *logging.Logger
	now         func() time.Time
}

// NewOrchestrator wires an Orchestrator from config (nil uses
// DefaultConfig) and an optional RepairAuditLogger (nil uses
// NopRepairAuditLogger). Stage entry/exit, repair actions, and gate
// failures are logged through pkg/logging's default logger.
func NewOrchestrator(config *Config, auditLog RepairAuditLogger) *Orchestrator {
	config = config.withDefaults()
	registry := patterns.MustNew()
	if auditLog == nil {
		auditLog = NopRepairAuditLogger{}
	}
	return &Orchestrator{
		config:      config,
		registry:    registry,
		gateManager: NewGateManager(config.Gate, registry),
		repairer:    NewRepairer(config.Repair),
		auditLog:    auditLog,
		metrics:     NewMetrics(),
		logger:      logging.Default(),
		now:         time.Now,
	}
}

// Metrics returns the Orchestrator's shared metrics sink, so a caller can
// snapshot health across many Validate calls.
func (o *Orchestrator) Metrics() *Metrics { return o.metrics }

// Validate runs the full pipeline against one request and returns the
// user-visible Result. The run gets a context bounded by the configured
// WholeRequest timeout, from which verification and audit derive their own
// timeouts; no stage checks its context, so cancellation or an expired
// deadline does not end a run early. A panic inside the pipeline is
// recovered and reported as a StageFatal error with Success false.
func (o *Orchestrator) Validate(ctx context.Context, req Request) (result *Result) {
	start := o.now()
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeouts.WholeRequest)
	defer cancel()

	ctx, span := tracer.Start(ctx, "veritas.validate")
	defer span.End()

	o.logger.Debug("stage enter: validate", "requestId", req.RequestID, "documents", len(req.Documents), "tasks", len(req.Tasks))
	defer o.logger.Debug("stage exit: validate", "requestId", req.RequestID)

	ledger := NewLedger()
	verifier := NewVerifier(o.config.Verifier)
	detector := NewDetector(o.config.Detector, o.registry)
	auditor := NewAuditor(o.config.Auditor, verifier)

	result = &Result{}
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, *NewStageError(KindStageFatal, "Orchestrator", req.RequestID, fmt.Errorf("panic: %v", r)))
			result.Success = false
		}
	}()

	if stageErr := validateRequest(req); stageErr != nil {
		result.Errors = append(result.Errors, *stageErr)
		result.Success = false
		result.Metrics = o.metrics.Snapshot()
		return result
	}

	// Extraction: parallel per-document, deterministic filename-sorted merge.
	o.logger.Debug("stage enter: extraction", "requestId", req.RequestID)
	claims, extractErrs := o.extractAll(req.Documents)
	o.logger.Debug("stage exit: extraction", "requestId", req.RequestID, "claims", len(claims), "errors", len(extractErrs))
	result.Errors = append(result.Errors, extractErrs...)
	for _, e := range extractErrs {
		if e.Kind.Fatal() {
			result.Success = false
			result.Metrics = o.metrics.Snapshot()
			return result
		}
	}
	for _, c := range claims {
		ledger.AddClaim(c)
	}

	// Timeline tasks contribute one claim per populated field, so duration/
	// date/dependency/regulatory/financial contradictions can be detected
	// alongside document-sourced claims.
	taskClaims, taskErrs := o.extractTasks(req.Tasks)
	result.Errors = append(result.Errors, taskErrs...)
	for _, c := range taskClaims {
		ledger.AddClaim(c)
	}

	// Verification: parallel per-citation, memoized by (claimID, documentName).
	o.logger.Debug("stage enter: verification", "requestId", req.RequestID)
	o.verifyAll(ctx, verifier, ledger.All(), req.Sources)
	o.logger.Debug("stage exit: verification", "requestId", req.RequestID)

	// Detection: single-threaded over the shared ledger.
	o.logger.Debug("stage enter: contradiction detection", "requestId", req.RequestID)
	contradictions := detector.DetectAll(ledger)
	o.logger.Debug("stage exit: contradiction detection", "requestId", req.RequestID, "contradictions", len(contradictions))

	// Audit: parallel per-claim.
	o.logger.Debug("stage enter: provenance audit", "requestId", req.RequestID)
	auditResults := o.auditAll(ctx, auditor, ledger.All(), req.Sources)
	o.logger.Debug("stage exit: provenance audit", "requestId", req.RequestID)

	// Calibration: sequential, depends on audit + detection outputs.
	o.logger.Debug("stage enter: calibration", "requestId", req.RequestID)
	o.calibrateAll(ledger.All(), ledger, auditResults)
	o.logger.Debug("stage exit: calibration", "requestId", req.RequestID)

	artifact := &Artifact{Claims: ledger.All(), Contradictions: ledger.Contradictions(), Tasks: req.Tasks}

	// Gate evaluation: sequential, deterministic.
	o.logger.Debug("stage enter: gate evaluation", "requestId", req.RequestID)
	report := o.gateManager.Evaluate(artifact)
	for _, f := range report.Failures {
		o.logger.Warn("gate failed", "requestId", req.RequestID, "gate", f.Name, "score", f.Score, "threshold", f.Threshold, "details", f.Details)
	}
	for _, w := range report.Warnings {
		o.logger.Warn("gate passed with warning", "requestId", req.RequestID, "gate", w.Name, "score", w.Score, "threshold", w.Threshold, "details", w.Details)
	}

	var repairs []RepairAction
	if !report.Passed {
		o.logger.Debug("stage enter: repair", "requestId", req.RequestID, "failures", len(report.Failures))
		outcome := o.repairer.RepairGates(report, artifact)
		repairs = outcome.Actions
		for _, action := range repairs {
			o.logger.Info("repair action applied", "requestId", req.RequestID, "gate", action.Gate, "action", string(action.Action), "targets", action.Targets)
		}
		_ = LogActions(ctx, o.auditLog, req.RequestID, repairs)
		// Exactly one re-evaluation pass after repair (§9 Open Question).
		report = o.gateManager.Evaluate(artifact)
		o.logger.Debug("stage exit: repair", "requestId", req.RequestID, "state", string(outcome.State), "actionsApplied", len(repairs))
	}

	result.Success = report.Passed
	result.Ledger = ledger
	result.Tasks = req.Tasks
	result.Gates = report
	result.Repairs = repairs
	result.Warnings = buildWarnings(report, artifact.Contradictions, auditResults)

	o.metrics.Record(ctx, o.sampleFrom(artifact, auditResults, report, repairs, o.now().Sub(start)))
	result.Metrics = o.metrics.Snapshot()

	return result
}

// extractAll runs one Extractor per document concurrently, bounded by
// MaxWorkers (0 => runtime.NumCPU()), then merges results in filename-
// sorted order so the Ledger's insertion order is deterministic regardless
// of goroutine scheduling.
func (o *Orchestrator) extractAll(docs []DocumentClaims) ([]*Claim, []StageError) {
	sorted := make([]DocumentClaims, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Source.Name < sorted[j].Source.Name })

	type outcome struct {
		claims []*Claim
		err    *StageError
	}
	outcomes := make([]outcome, len(sorted))

	g := new(errgroup.Group)
	g.SetLimit(o.workers())
	extractor := NewExtractor()
	for i, doc := range sorted {
		i, doc := i, doc
		g.Go(func() error {
			claims, err := extractor.ExtractFromDocument(doc.Source, doc.Raw)
			outcomes[i] = outcome{claims: claims, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var all []*Claim
	var errs []StageError
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, *o.err)
			continue
		}
		all = append(all, o.claims...)
	}
	return all, errs
}

// extractTasks runs ExtractFromTask over every task, sequentially — task
// counts are small relative to document counts and the ids must remain
// deterministic across a fixed task order.
func (o *Orchestrator) extractTasks(tasks []*TimelineTask) ([]*Claim, []StageError) {
	extractor := NewExtractor()
	var all []*Claim
	var errs []StageError
	for _, t := range tasks {
		claims, err := extractor.ExtractFromTask(t)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		all = append(all, claims...)
	}
	return all, errs
}

// verifyAll fans citation verification out across claims that carry one,
// bounded by MaxWorkers; the Verifier's internal cache makes this safe and
// memoized regardless of which goroutine resolves a given (claim,document)
// pair first.
func (o *Orchestrator) verifyAll(ctx context.Context, verifier *Verifier, claims []*Claim, sources map[string]Source) {
	vctx, cancel := context.WithTimeout(ctx, o.config.Timeouts.VerificationBatch)
	defer cancel()

	g, _ := errgroup.WithContext(vctx)
	g.SetLimit(o.workers())
	for _, c := range claims {
		c := c
		if !c.HasCitation() {
			continue
		}
		g.Go(func() error {
			res := verifier.VerifyFor(c.ID, *c.Source.Citation, sources)
			if !res.Valid {
				c.ProvenanceValid = false
			}
			return nil
		})
	}
	_ = g.Wait()
}

// auditAll fans the Provenance Auditor out across claims, bounded by
// MaxWorkers, and writes each claim's score and validity back onto it; each
// goroutine writes only its own claim, and only the shared results map is
// guarded by a mutex — the Auditor itself is stateless apart from the shared
// Verifier cache.
func (o *Orchestrator) auditAll(ctx context.Context, auditor *Auditor, claims []*Claim, sources map[string]Source) map[string]AuditResult {
	actx, cancel := context.WithTimeout(ctx, o.config.Timeouts.Audit)
	defer cancel()

	results := make(map[string]AuditResult, len(claims))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(actx)
	g.SetLimit(o.workers())
	for _, c := range claims {
		c := c
		g.Go(func() error {
			res := auditor.Audit(c, sources)
			c.ProvenanceScore = res.Score100
			c.ProvenanceValid = res.Valid
			mu.Lock()
			results[c.ID] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// calibrateAll runs the Calibrator sequentially over every claim; each
// claim's highest-severity contradiction and consensus percent are derived
// from the ledger before calibration.
func (o *Orchestrator) calibrateAll(claims []*Claim, ledger *Ledger, audits map[string]AuditResult) {
	calibrator := NewCalibrator()
	byID := make(map[string]*Claim, len(claims))
	for _, c := range claims {
		byID[c.ID] = c
	}

	for _, c := range claims {
		highest := highestSeverityFor(c, ledger)
		citationType := CitationTypeFor(c, o.registry)
		audit := audits[c.ID]

		in := CalibrationInput{
			RawConfidence:            c.Confidence,
			CitationType:             citationType,
			HighestContradiction:     highest,
			ConsensusPercent:         consensusPercentFor(c, byID),
			ProvenanceScore01:        audit.Score01,
			Origin:                   c.Origin,
			HasRegulatoryRequirement: c.ClaimType == ClaimRequirement,
			HasFinancialBreakdown:    c.ClaimType == ClaimFinancial,
		}
		confidence, meta := calibrator.Calibrate(in)
		meta.OriginalConfidence = c.Confidence
		c.Confidence = confidence
		c.CalibrationMetadata = &meta
		c.ValidatedAt = o.now()
	}
}

// buildWarnings collects the three sources of non-fatal, user-visible notes
// the pipeline produces: gates that passed but flagged a concern, high-
// severity contradictions the Repair Engine resolved in place, and per-claim
// provenance audit findings (the Auditor never fails a claim outright, so its
// findings only ever surface here). Ordering is deterministic: gate warnings
// in gate-declaration order, contradictions in ledger order, audit findings
// sorted by claim id.
func buildWarnings(report *GateReport, contradictions []*Contradiction, audits map[string]AuditResult) []string {
	var warnings []string

	for _, gw := range report.Warnings {
		warnings = append(warnings, fmt.Sprintf("gate %s passed with warning: %s", gw.Name, gw.Details))
	}

	for _, c := range contradictions {
		if c.ResolvedAt == nil {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("contradiction %s resolved via %s (%s)", c.ID, c.Resolution.Rule, c.Resolution.Action))
	}

	ids := make([]string, 0, len(audits))
	for id := range audits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, f := range audits[id].Findings {
			warnings = append(warnings, fmt.Sprintf("claim %s: %s (%s)", f.Claim, f.Message, f.Code))
		}
	}

	return warnings
}

func highestSeverityFor(c *Claim, ledger *Ledger) Severity {
	highest := Severity("")
	rank := map[Severity]int{SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3}
	for _, id := range c.Contradictions {
		contra, ok := ledger.ContradictionByID(id)
		if !ok {
			continue
		}
		if rank[contra.Severity] > rank[highest] {
			highest = contra.Severity
		}
	}
	return highest
}

// consensusPercentFor approximates agreement across same-type claims that
// are not already in contradiction with c: the fraction of peers whose
// text does not appear in any of c's recorded contradictions.
func consensusPercentFor(c *Claim, byID map[string]*Claim) float64 {
	contraSet := make(map[string]bool, len(c.Contradictions))
	for _, id := range c.Contradictions {
		contraSet[id] = true
	}
	peers, agreeing := 0, 0
	for id, other := range byID {
		if id == c.ID || other.ClaimType != c.ClaimType {
			continue
		}
		peers++
		if !contraSet[id] {
			agreeing++
		}
	}
	if peers == 0 {
		return 100
	}
	return 100 * float64(agreeing) / float64(peers)
}

func (o *Orchestrator) sampleFrom(a *Artifact, audits map[string]AuditResult, report *GateReport, repairs []RepairAction, elapsed time.Duration) ValidationSample {
	explicit, inferred := 0, 0
	citedExplicit := 0
	var confSum, provSum float64
	flaggedRegulatory, totalRegulatory := 0, 0

	for _, c := range a.Claims {
		if c.Origin == OriginExplicit {
			explicit++
			if c.HasCitation() {
				citedExplicit++
			}
		} else {
			inferred++
		}
		confSum += c.Confidence
		provSum += c.ProvenanceScore
	}
	for _, t := range a.Tasks {
		if _, ok := o.registry.HasRegulatoryKeyword(t.Name + " " + t.Description); ok {
			totalRegulatory++
			if t.RegulatoryRequirement != nil && t.RegulatoryRequirement.IsRequired {
				flaggedRegulatory++
			}
		}
	}

	citationCoverage := 1.0
	if explicit > 0 {
		citationCoverage = float64(citedExplicit) / float64(explicit)
	}
	avgConfidence := 0.0
	avgProvenance := 0.0
	if len(a.Claims) > 0 {
		avgConfidence = confSum / float64(len(a.Claims))
		avgProvenance = provSum / float64(len(a.Claims))
	}
	contradictionsPerClaim := 0.0
	if len(a.Claims) > 0 {
		contradictionsPerClaim = float64(len(a.Contradictions)) / float64(len(a.Claims))
	}
	gateFailureRate := 0.0
	if !report.Passed {
		gateFailureRate = float64(len(report.Failures)) / 6.0
	}
	regulatoryAccuracy := 1.0
	if totalRegulatory > 0 {
		regulatoryAccuracy = float64(flaggedRegulatory) / float64(totalRegulatory)
	}
	auditPassRate := 0.0
	if len(audits) > 0 {
		passed := 0
		for _, r := range audits {
			if r.Valid {
				passed++
			}
		}
		auditPassRate = float64(passed) / float64(len(audits))
	}
	repairsPerValidation := float64(len(repairs))

	return ValidationSample{
		ExplicitCount:          explicit,
		InferredCount:          inferred,
		CitationCoverage:       citationCoverage,
		ContradictionsPerClaim: contradictionsPerClaim,
		AverageProvenance:      avgProvenance,
		RepairsPerValidation:   repairsPerValidation,
		ValidationTimeMs:       float64(elapsed.Milliseconds()),
		GateFailureRate:        gateFailureRate,
		RegulatoryAccuracy:     regulatoryAccuracy,
		BufferAdherence:        1.0,
		AuditPassRate:          auditPassRate,
		CalibrationDelta:       0,
		AverageConfidence:      avgConfidence,
	}
}

func (o *Orchestrator) workers() int {
	if o.config.MaxWorkers > 0 {
		return o.config.MaxWorkers
	}
	return runtime.NumCPU()
}
