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
	"fmt"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// validateRequest checks every Source a request carries against its
// `validate` struct tags (see types.go's Source) before any stage runs. A
// request with a Source missing Name or Provider cannot be cited against
// meaningfully, so this check is fatal (KindInvalidInput) rather than
// aggregated alongside per-claim errors.
func validateRequest(req Request) *StageError {
	for _, doc := range req.Documents {
		if err := structValidator.Struct(doc.Source); err != nil {
			return NewStageError(KindInvalidInput, "request", doc.Source.Name, fmt.Errorf("source: %w", err))
		}
	}
	for name, source := range req.Sources {
		if err := structValidator.Struct(source); err != nil {
			return NewStageError(KindInvalidInput, "request", name, fmt.Errorf("source: %w", err))
		}
	}
	return nil
}
