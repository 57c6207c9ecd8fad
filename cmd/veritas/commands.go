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
	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputPretty bool
	servePort    int

	rootCmd = &cobra.Command{
		Use:   "veritas",
		Short: "Validate claims and timeline tasks against their sources",
		Long: `veritas runs the claim validation and quality-gating engine over a batch
of documents and timeline tasks: extraction, citation verification, contradiction
detection, provenance auditing, confidence calibration, quality gates, and
deterministic repair.`,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [request.json]",
		Short: "Run one validation request and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP validation server (not implemented here)",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config overriding engine defaults")

	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&outputPretty, "pretty", true, "pretty-print the JSON result")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
}
