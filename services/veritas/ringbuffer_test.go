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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_AverageOfPartialWindow(t *testing.T) {
	rb := NewRingBuffer(5)
	rb.Push(1)
	rb.Push(2)
	rb.Push(3)
	assert.Equal(t, 2.0, rb.Average())
	assert.Equal(t, 3, rb.Size())
	assert.Equal(t, int64(0), rb.DroppedCount())
}

func TestRingBuffer_DropsOldestOnOverflow(t *testing.T) {
	rb := NewRingBuffer(3)
	rb.Push(1)
	rb.Push(2)
	rb.Push(3)
	dropped := rb.Push(4) // evicts the 1

	assert.True(t, dropped)
	assert.Equal(t, int64(1), rb.DroppedCount())
	assert.InDelta(t, 3.0, rb.Average(), 1e-9) // (2+3+4)/3
	assert.Equal(t, 3, rb.Size())
}

func TestRingBuffer_EmptyAverageIsZero(t *testing.T) {
	rb := NewRingBuffer(4)
	assert.Equal(t, 0.0, rb.Average())
	assert.Equal(t, 0.0, rb.Variance())
}

func TestRingBuffer_Variance(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Push(2)
	rb.Push(4)
	rb.Push(4)
	rb.Push(4)
	// mean = 3.5, variance = ((1.5^2)*1 + (0.5^2)*3)/4 = (2.25 + 0.75)/4
	assert.InDelta(t, 0.75, rb.Variance(), 1e-9)
}

func TestNewRingBuffer_PanicsOnNonPositiveCapacity(t *testing.T) {
	require.Panics(t, func() { NewRingBuffer(0) })
}
