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

func TestMemorySessionStore_PutAndGet(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	result := &Result{Success: true}
	require.NoError(t, store.Put(ctx, "job-1", result, time.Minute))

	got, ok, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, result, got)
}

func TestMemorySessionStore_GetExpired(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "job-1", &Result{}, -time.Second)) // already expired

	_, ok, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStore_Evict(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Stop()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "job-1", &Result{}, time.Minute))
	require.NoError(t, store.Evict(ctx, "job-1"))

	_, ok, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStore_PutRejectsEmptyID(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Stop()
	err := store.Put(context.Background(), "", &Result{}, time.Minute)
	assert.Error(t, err)
}
