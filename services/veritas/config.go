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

import "time"

// VerifierConfig configures the Citation Verifier.
type VerifierConfig struct {
	SimilarityThreshold float64
	ContextWindowSize   int
}

// DefaultVerifierConfig returns the specification defaults: similarity 0.85,
// context window 200 characters.
func DefaultVerifierConfig() *VerifierConfig {
	return &VerifierConfig{SimilarityThreshold: 0.85, ContextWindowSize: 200}
}

// DetectorConfig configures the Contradiction Detector.
type DetectorConfig struct {
	NumericalTolerancePercent float64
	TemporalToleranceDays     int
}

// DefaultDetectorConfig returns the specification defaults: 20% numerical
// tolerance, 7-day temporal tolerance.
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{NumericalTolerancePercent: 0.20, TemporalToleranceDays: 7}
}

// AuditorConfig configures the Provenance Auditor.
type AuditorConfig struct {
	TrustedProviders       []Provider
	ProviderWeights        map[Provider]float64
	HallucinationThreshold float64
}

// DefaultAuditorConfig returns the specification's default provider trust
// weights and hallucination threshold.
func DefaultAuditorConfig() *AuditorConfig {
	return &AuditorConfig{
		ProviderWeights: map[Provider]float64{
			ProviderInternal: 1.0,
			ProviderClaude:   0.95,
			ProviderGemini:   0.9,
			ProviderGPT:      0.9,
			ProviderGrok:     0.9,
			ProviderUnknown:  0.5,
		},
		HallucinationThreshold: 0.5,
	}
}

// GateConfig configures the Quality Gate Manager's default gate thresholds.
type GateConfig struct {
	CitationCoverageThreshold float64
	MinConfidence             float64
}

// DefaultGateConfig returns the specification defaults: citation coverage
// 0.75, minimum confidence 0.50.
func DefaultGateConfig() *GateConfig {
	return &GateConfig{CitationCoverageThreshold: 0.75, MinConfidence: 0.50}
}

// RepairConfig configures the Semantic Repair Engine.
type RepairConfig struct {
	MaxRepairAttempts  int
	MinConfidenceFloor float64
}

// DefaultRepairConfig returns the specification default: one repair pass per
// gate per request, confidence floor 0.50 (matching GateConfig.MinConfidence).
func DefaultRepairConfig() *RepairConfig {
	return &RepairConfig{MaxRepairAttempts: 1, MinConfidenceFloor: 0.50}
}

// TimeoutConfig configures per-stage cancellation deadlines (§5).
type TimeoutConfig struct {
	VerificationBatch time.Duration
	Detection         time.Duration
	Audit             time.Duration
	WholeRequest      time.Duration
}

// DefaultTimeoutConfig returns the specification defaults: 5s per
// verification batch, 30s detection, 10s audit, 120s whole request.
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		VerificationBatch: 5 * time.Second,
		Detection:         30 * time.Second,
		Audit:             10 * time.Second,
		WholeRequest:      120 * time.Second,
	}
}

// Config aggregates every component's configuration, following the
// teacher's pattern of a single top-level Config struct whose nil
// sub-configs are defaulted by each component's constructor.
type Config struct {
	Verifier          *VerifierConfig
	Detector          *DetectorConfig
	Auditor           *AuditorConfig
	Gate              *GateConfig
	Repair            *RepairConfig
	Timeouts          *TimeoutConfig
	HallucinationThreshold float64
	MaxWorkers        int
}

// DefaultConfig returns a Config with every sub-config set to its
// specification default.
func DefaultConfig() *Config {
	return &Config{
		Verifier:               DefaultVerifierConfig(),
		Detector:                DefaultDetectorConfig(),
		Auditor:                 DefaultAuditorConfig(),
		Gate:                    DefaultGateConfig(),
		Repair:                  DefaultRepairConfig(),
		Timeouts:                DefaultTimeoutConfig(),
		HallucinationThreshold:  0.5,
		MaxWorkers:              0, // 0 => runtime.NumCPU()
	}
}

// withDefaults fills any nil sub-config with its default, so every
// component can assume config.X is non-nil after this call.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	if c.Verifier == nil {
		c.Verifier = DefaultVerifierConfig()
	}
	if c.Detector == nil {
		c.Detector = DefaultDetectorConfig()
	}
	if c.Auditor == nil {
		c.Auditor = DefaultAuditorConfig()
	}
	if c.Gate == nil {
		c.Gate = DefaultGateConfig()
	}
	if c.Repair == nil {
		c.Repair = DefaultRepairConfig()
	}
	if c.Timeouts == nil {
		c.Timeouts = DefaultTimeoutConfig()
	}
	if c.HallucinationThreshold == 0 {
		c.HallucinationThreshold = 0.5
	}
	if c.Auditor.HallucinationThreshold == 0 {
		c.Auditor.HallucinationThreshold = c.HallucinationThreshold
	}
	return c
}
