// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// TestFixedClassExhaustionFallsBackToAlloc checks that a size class whose
// capacity is exhausted falls back to the general allocator rather than
// failing.
func TestFixedClassExhaustionFallsBackToAlloc(t *testing.T) {
	p := mustCreate(t, 16<<20)

	idx := p.AddSizeClass(64, 1000)
	require.GreaterOrEqual(t, idx, 0)

	ptrs := make([]unsafe.Pointer, 1000)
	for i := range ptrs {
		ptrs[i] = p.AllocFixed(64)
		require.NotNil(t, ptrs[i], "slot %d", i)
	}

	overflow := p.AllocFixed(64)
	require.NotNil(t, overflow)
	require.Nil(t, p.classForPointer(overflow), "overflow allocation must not land in the exhausted slab")

	for _, ptr := range ptrs {
		p.FreeFixed(ptr)
	}
	p.Free(overflow)
	require.True(t, p.Validate())
}

// TestAddSizeClassValidation rejects non-positive slot sizes and
// capacities up front.
func TestAddSizeClassValidation(t *testing.T) {
	p := mustCreate(t, 1<<20)

	require.Equal(t, -1, p.AddSizeClass(0, 10))
	require.Equal(t, ErrInvalidSize, GetLastError())

	require.Equal(t, -1, p.AddSizeClass(16, 0))
	require.Equal(t, ErrInvalidSize, GetLastError())
}

// TestFindClassIndexPicksSmallestFit ensures AllocFixed routes a request
// to the smallest registered class that still fits it.
func TestFindClassIndexPicksSmallestFit(t *testing.T) {
	p := mustCreate(t, 4<<20)
	p.AddSizeClass(32, 10)
	p.AddSizeClass(64, 10)
	p.AddSizeClass(128, 10)

	require.Equal(t, 1, p.findClassIndex(40))
	require.Equal(t, 2, p.findClassIndex(65))
	require.Equal(t, -1, p.findClassIndex(256))
}

// TestWarmupCarvesEveryClassEagerly checks that after Warmup, the very
// first AllocFixed for a class never has to carve.
func TestWarmupCarvesEveryClassEagerly(t *testing.T) {
	p := mustCreate(t, 4<<20)
	idx := p.AddSizeClass(48, 200)
	p.Warmup()

	p.classesMu.Lock()
	c := p.classes[idx]
	p.classesMu.Unlock()
	require.True(t, c.carved)

	ptr := p.AllocFixed(48)
	require.NotNil(t, ptr)
	p.FreeFixed(ptr)
}

// TestFreeFixedRejectsForeignPointer covers FreeFixed's fallback to
// classForPointer returning nil for a pointer outside every slab.
func TestFreeFixedRejectsForeignPointer(t *testing.T) {
	p := mustCreate(t, 1<<20)
	p.AddSizeClass(32, 4)

	general := p.Alloc(32)
	require.NotNil(t, general)

	p.FreeFixed(general)
	require.Equal(t, ErrInvalidPointer, GetLastError())

	p.Free(general)
}
