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

import "strings"

// AuditFinding is one non-scoring structural tampering indicator reported
// alongside a claim's provenance score.
type AuditFinding struct {
	Claim   string
	Code    string
	Message string
}

// AuditResult is the per-claim outcome of the Provenance Auditor: a
// [0,100] score (and its [0,1] fraction), a validity verdict, and any
// structural tampering indicators found.
type AuditResult struct {
	ClaimID  string
	Score100 float64
	Score01  float64
	Valid    bool
	Findings []AuditFinding
}

var llmProviders = map[Provider]bool{
	ProviderGemini: true, ProviderClaude: true, ProviderGPT: true, ProviderGrok: true,
}

// Auditor assigns an integrity score to each claim, independent of whether
// it contradicts anything (§4.4). Stateless and embarrassingly parallel.
type Auditor struct {
	config   *AuditorConfig
	verifier *Verifier
}

// NewAuditor returns an Auditor; a nil config uses DefaultAuditorConfig.
// The supplied Verifier is reused (not duplicated) so hallucination checks
// benefit from the verifier's request-scoped memoization cache.
func NewAuditor(config *AuditorConfig, verifier *Verifier) *Auditor {
	if config == nil {
		config = DefaultAuditorConfig()
	}
	return &Auditor{config: config, verifier: verifier}
}

// Audit runs the five weighted sub-audits against a base score of 100,
// applies the provider trust weight, and reports the result both as a
// [0,100] score and its [0,1] fraction.
func (a *Auditor) Audit(c *Claim, sources map[string]Source) AuditResult {
	score := 100.0
	var findings []AuditFinding

	// Hallucination vs. incorrect attribution: explicit, citation present,
	// but verification against the named document failed. Before charging
	// the full hallucination penalty, check whether the quote exists
	// verbatim in some other source — if so the citation just names the
	// wrong document, which is a lesser offense than fabrication.
	if c.Origin == OriginExplicit && c.HasCitation() {
		res := a.verifier.VerifyFor(c.ID, *c.Source.Citation, sources)
		if !res.Valid {
			quote := normalize(c.Source.Citation.ExactQuote)
			misattributed := ""
			for name, src := range sources {
				if name == c.Source.Citation.DocumentName {
					continue
				}
				if strings.Contains(normalize(src.UTF8Content), quote) {
					misattributed = name
					break
				}
			}
			if misattributed != "" {
				score -= 20
				findings = append(findings, AuditFinding{c.ID, "INCORRECT_ATTRIBUTION", "quote found in " + misattributed + " instead of the cited document"})
			} else {
				score -= 50
				findings = append(findings, AuditFinding{c.ID, "HALLUCINATION", "cited document missing or quote not found"})
			}
		}
	}

	// Missing citation: explicit with no citation, or inferred with
	// confidence >= 0.9 and no rationale.
	if c.Origin == OriginExplicit && !c.HasCitation() {
		score -= 30
		findings = append(findings, AuditFinding{c.ID, "MISSING_CITATION", "explicit claim has no citation"})
	} else if c.Origin == OriginInferred && c.Confidence >= 0.9 && c.InferenceRationale == "" {
		score -= 30
		findings = append(findings, AuditFinding{c.ID, "MISSING_CITATION", "high-confidence inferred claim has no rationale"})
	}

	// Circular reference: provider is an LLM-set member and documentName
	// suggests one reasoner citing another reasoner's output.
	if llmProviders[c.Source.Provider] {
		lowered := strings.ToLower(c.Source.DocumentName)
		if strings.Contains(lowered, "output") || strings.Contains(lowered, "generated") || strings.Contains(lowered, "response") {
			score -= 25
			findings = append(findings, AuditFinding{c.ID, "CIRCULAR_REFERENCE", "reasoner citing another reasoner's output"})
		}
	}

	// Weak inference: inferred claim with no supporting facts or rationale.
	if c.Origin == OriginInferred && len(c.SupportingFacts) == 0 && c.InferenceRationale == "" {
		score -= 10
		findings = append(findings, AuditFinding{c.ID, "WEAK_INFERENCE", "inferred claim has no supporting facts"})
	}

	// Structural tampering indicators (non-scoring but reported).
	if c.HasCitation() {
		cite := c.Source.Citation
		if cite.StartChar < 0 {
			findings = append(findings, AuditFinding{c.ID, "NEGATIVE_OFFSET", "citation start offset is negative"})
		}
		if cite.EndChar < cite.StartChar {
			findings = append(findings, AuditFinding{c.ID, "END_BEFORE_START", "citation end precedes start"})
		}
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		findings = append(findings, AuditFinding{c.ID, "CONFIDENCE_OUT_OF_RANGE", "confidence outside [0,1]"})
	}
	if c.Text == "" {
		findings = append(findings, AuditFinding{c.ID, "MISSING_REQUIRED_FIELD", "claim text is empty"})
	}

	if score < 0 {
		score = 0
	}

	weight := a.providerWeight(c.Source.Provider)
	score *= 0.75 + 0.25*weight

	return AuditResult{
		ClaimID:  c.ID,
		Score100: score,
		Score01:  score / 100.0,
		Valid:    score/100.0 >= a.hallucinationThreshold(),
		Findings: findings,
	}
}

// hallucinationThreshold is the configured [0,1] floor a claim's final
// audit score must clear to be considered valid (rather than a probable
// hallucination); default 0.5 matches the spec's documented default.
func (a *Auditor) hallucinationThreshold() float64 {
	if a.config.HallucinationThreshold > 0 {
		return a.config.HallucinationThreshold
	}
	return 0.5
}

func (a *Auditor) providerWeight(p Provider) float64 {
	if w, ok := a.config.ProviderWeights[p]; ok {
		return w
	}
	return 0.5
}
