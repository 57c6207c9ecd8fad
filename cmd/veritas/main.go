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
	"os"

	"github.com/veritas-labs/veritas/pkg/logging"
)

func main() {
	logger := logging.Default()

	shutdown, err := setupTelemetry()
	if err != nil {
		logger.Error("error initializing telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("error shutting down telemetry", "error", err)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("error executing command", "error", err)
		os.Exit(1)
	}
}
