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
	"errors"
	"fmt"
)

// Sentinel errors, one per StageErrorKind, so callers can test membership
// with errors.Is without parsing a Kind string.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrSourceMissing        = errors.New("source missing")
	ErrVerificationFailed   = errors.New("verification failed")
	ErrResolutionUnresolved = errors.New("resolution unresolved")
	ErrGateBlocked          = errors.New("gate blocked")
	ErrStageFatal           = errors.New("stage fatal")
)

func sentinelFor(kind StageErrorKind) error {
	switch kind {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindSourceMissing:
		return ErrSourceMissing
	case KindVerificationFailed:
		return ErrVerificationFailed
	case KindResolutionUnresolved:
		return ErrResolutionUnresolved
	case KindGateBlocked:
		return ErrGateBlocked
	default:
		return ErrStageFatal
	}
}

// StageError is the single error type returned by every stage. Kind
// classifies the failure per the taxonomy in §7 of the specification; Stage
// names the component that raised it; Item optionally identifies the
// offending claim/task id.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Item  string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Stage, e.Kind, e.Item, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the wrapped cause and the sentinel for the Kind, so
// errors.Is(err, ErrInvalidInput) and errors.Is(err, someWrappedCause) both
// work.
func (e *StageError) Unwrap() []error {
	return []error{e.Err, sentinelFor(e.Kind)}
}

// NewStageError constructs a StageError, wrapping cause with fmt.Errorf so
// %w-style chains remain intact for callers that prefer errors.As.
func NewStageError(kind StageErrorKind, stage, item string, cause error) *StageError {
	return &StageError{
		Kind:  kind,
		Stage: stage,
		Item:  item,
		Err:   fmt.Errorf("%s: %w", stage, cause),
	}
}

// Fatal is fatal per the propagation policy: InvalidInput at the extractor
// aborts the request; everything else is aggregated and returned alongside a
// partial result.
func (k StageErrorKind) Fatal() bool {
	return k == KindInvalidInput
}
