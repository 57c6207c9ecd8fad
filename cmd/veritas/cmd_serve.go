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
	"fmt"

	"github.com/spf13/cobra"
)

// runServe documents the shape of the HTTP validation server without
// implementing it: request intake, job/session storage, and the
// progress-streaming upgrade (gorilla/websocket) all belong to the
// out-of-scope HTTP surface. A real server would upgrade /jobs/{id}/stream
// to a websocket connection and push one GateReport-shaped frame per
// completed pipeline stage.
func runServe(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("serve is not implemented: the HTTP surface, session store, and websocket progress stream are external collaborators (see veritas.SessionStore); use 'veritas validate' for in-process validation")
}
