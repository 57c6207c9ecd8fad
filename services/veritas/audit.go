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
	"sort"
	"sync"
	"time"
)

// RepairEvent is one entry in a request's repair trail: a single
// RepairAction plus the request it belongs to, suitable for compliance
// review of what the engine changed and why.
type RepairEvent struct {
	RequestID string
	Action    RepairAction
	Recorded  time.Time
}

// RepairFilter selects a subset of recorded RepairEvents. Zero-valued
// fields are not applied; non-zero fields combine with AND logic.
type RepairFilter struct {
	RequestID string
	Gate      string
	Kind      RepairActionKind
	Since     time.Time
	Limit     int
}

// RepairAuditLogger records every mutation the Repair Engine makes, so a
// reviewer can reconstruct exactly what was changed on a given request
// without re-running validation.
type RepairAuditLogger interface {
	Log(ctx context.Context, event RepairEvent) error
	Query(ctx context.Context, filter RepairFilter) ([]RepairEvent, error)
}

// NopRepairAuditLogger discards every event. This is the default: a
// request-scoped in-process trail is available via MemoryRepairAuditLogger
// for callers that want one without standing up external storage.
type NopRepairAuditLogger struct{}

func (NopRepairAuditLogger) Log(ctx context.Context, event RepairEvent) error { return nil }
func (NopRepairAuditLogger) Query(ctx context.Context, filter RepairFilter) ([]RepairEvent, error) {
	return nil, nil
}

var _ RepairAuditLogger = NopRepairAuditLogger{}

// MemoryRepairAuditLogger is an in-process, mutex-protected trail of every
// repair action applied across any number of requests sharing the logger.
// Suitable for a single validation request or a small-scale server process;
// it is not a durable store.
type MemoryRepairAuditLogger struct {
	mu     sync.Mutex
	events []RepairEvent
}

// NewMemoryRepairAuditLogger returns an empty MemoryRepairAuditLogger.
func NewMemoryRepairAuditLogger() *MemoryRepairAuditLogger {
	return &MemoryRepairAuditLogger{}
}

// Log appends event, stamping Recorded if it is zero.
func (l *MemoryRepairAuditLogger) Log(ctx context.Context, event RepairEvent) error {
	if event.Recorded.IsZero() {
		event.Recorded = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Query returns events matching filter, most recent first.
func (l *MemoryRepairAuditLogger) Query(ctx context.Context, filter RepairFilter) ([]RepairEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []RepairEvent
	for _, e := range l.events {
		if filter.RequestID != "" && e.RequestID != filter.RequestID {
			continue
		}
		if filter.Gate != "" && e.Action.Gate != filter.Gate {
			continue
		}
		if filter.Kind != "" && e.Action.Action != filter.Kind {
			continue
		}
		if !filter.Since.IsZero() && e.Recorded.Before(filter.Since) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recorded.After(out[j].Recorded) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var _ RepairAuditLogger = (*MemoryRepairAuditLogger)(nil)

// LogActions is a convenience that logs every action in actions against
// logger under the given requestID, stopping at the first error.
func LogActions(ctx context.Context, logger RepairAuditLogger, requestID string, actions []RepairAction) error {
	for _, a := range actions {
		if err := logger.Log(ctx, RepairEvent{RequestID: requestID, Action: a}); err != nil {
			return err
		}
	}
	return nil
}
