// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veritas-labs/veritas/services/veritas"
)

// rawClaimInput mirrors veritas.RawClaim with JSON tags a request file can
// use; RawClaim itself carries none since it is only ever constructed
// in-process from a reasoning.RawClaim.
type rawClaimInput struct {
	Text         string            `json:"text"`
	ClaimType    veritas.ClaimType `json:"claimType"`
	CitationHint *veritas.Citation `json:"citationHint,omitempty"`
	Origin       veritas.Origin    `json:"origin"`
	Confidence   float64           `json:"confidence"`
}

type documentInput struct {
	Source veritas.Source  `json:"source"`
	Raw    []rawClaimInput `json:"rawClaims"`
}

// requestInput is the on-disk shape of `veritas validate`'s argument: a
// batch of documents with their pre-extracted raw claims, the sources
// citations resolve against, and any timeline tasks to validate alongside.
type requestInput struct {
	RequestID string                    `json:"requestId"`
	Documents []documentInput           `json:"documents"`
	Sources   map[string]veritas.Source `json:"sources"`
	Tasks     []*veritas.TimelineTask   `json:"tasks"`
}

func (r requestInput) toRequest() veritas.Request {
	docs := make([]veritas.DocumentClaims, 0, len(r.Documents))
	for _, d := range r.Documents {
		raw := make([]veritas.RawClaim, 0, len(d.Raw))
		for _, rc := range d.Raw {
			raw = append(raw, veritas.RawClaim{
				Text:         rc.Text,
				ClaimType:    rc.ClaimType,
				CitationHint: rc.CitationHint,
				Origin:       rc.Origin,
				Confidence:   rc.Confidence,
			})
		}
		docs = append(docs, veritas.DocumentClaims{Source: d.Source, Raw: raw})
	}
	return veritas.Request{
		RequestID: r.RequestID,
		Documents: docs,
		Sources:   r.Sources,
		Tasks:     r.Tasks,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}

	var input requestInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	orch := veritas.NewOrchestrator(config, veritas.NewMemoryRepairAuditLogger())
	result := orch.Validate(context.Background(), input.toRequest())

	var out []byte
	if outputPretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !result.Success {
		cmd.SilenceUsage = true
		return fmt.Errorf("validation failed: %d blocking gate failure(s)", len(result.Gates.Failures))
	}
	return nil
}

// loadConfig reads an optional JSON config override, falling back to
// veritas.DefaultConfig when path is empty.
func loadConfig(path string) (*veritas.Config, error) {
	if path == "" {
		return veritas.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	config := veritas.DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}
