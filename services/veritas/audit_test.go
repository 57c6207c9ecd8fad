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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepairAuditLogger_QueryFiltersByRequestID(t *testing.T) {
	logger := NewMemoryRepairAuditLogger()
	ctx := context.Background()

	require.NoError(t, logger.Log(ctx, RepairEvent{RequestID: "req-1", Action: RepairAction{Gate: "CITATION_COVERAGE"}}))
	require.NoError(t, logger.Log(ctx, RepairEvent{RequestID: "req-2", Action: RepairAction{Gate: "SCHEMA_COMPLIANCE"}}))

	events, err := logger.Query(ctx, RepairFilter{RequestID: "req-1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestMemoryRepairAuditLogger_QueryMostRecentFirst(t *testing.T) {
	logger := NewMemoryRepairAuditLogger()
	ctx := context.Background()

	first := time.Now().UTC().Add(-time.Hour)
	second := time.Now().UTC()
	require.NoError(t, logger.Log(ctx, RepairEvent{RequestID: "req-1", Recorded: first}))
	require.NoError(t, logger.Log(ctx, RepairEvent{RequestID: "req-1", Recorded: second}))

	events, err := logger.Query(ctx, RepairFilter{RequestID: "req-1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Recorded.After(events[1].Recorded))
}

func TestMemoryRepairAuditLogger_QueryRespectsLimit(t *testing.T) {
	logger := NewMemoryRepairAuditLogger()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, logger.Log(ctx, RepairEvent{RequestID: "req-1"}))
	}

	events, err := logger.Query(ctx, RepairFilter{RequestID: "req-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestNopRepairAuditLogger_DiscardsSilently(t *testing.T) {
	logger := NopRepairAuditLogger{}
	ctx := context.Background()
	assert.NoError(t, logger.Log(ctx, RepairEvent{RequestID: "req-1"}))
	events, err := logger.Query(ctx, RepairFilter{})
	assert.NoError(t, err)
	assert.Nil(t, events)
}

func TestLogActions_LogsEveryAction(t *testing.T) {
	logger := NewMemoryRepairAuditLogger()
	ctx := context.Background()
	actions := []RepairAction{
		{ID: "a1", Gate: "CITATION_COVERAGE"},
		{ID: "a2", Gate: "SCHEMA_COMPLIANCE"},
	}

	require.NoError(t, LogActions(ctx, logger, "req-1", actions))

	events, err := logger.Query(ctx, RepairFilter{RequestID: "req-1"})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
