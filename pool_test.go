// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func mustCreate(t *testing.T, size int) *Pool {
	p, err := Create(size, true)
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p
}

// TestBasicAllocFreeValidate checks that two allocations in a fresh pool
// hold distinct, stable content until freed.
func TestBasicAllocFreeValidate(t *testing.T) {
	p := mustCreate(t, 16<<20)

	a := p.Alloc(1024)
	require.NotNil(t, a)
	*(*byte)(a) = 0xAA

	b := p.Alloc(2048)
	require.NotNil(t, b)
	*(*byte)(b) = 0xBB

	require.EqualValues(t, 0xAA, *(*byte)(a))
	require.EqualValues(t, 0xBB, *(*byte)(b))

	p.Free(a)
	p.Free(b)
	require.True(t, p.Validate())
}

// TestSmallSegmentChains checks that a request bigger than the head
// segment chains on a second one transparently.
func TestSmallSegmentChains(t *testing.T) {
	p := mustCreate(t, 64<<10)

	ptr := p.Alloc(96 << 10)
	require.NotNil(t, ptr)
	require.True(t, p.Contains(ptr))

	p.Free(ptr)
	require.True(t, p.Validate())
}

// TestInvalidRequestsReportLastError checks that a zero-size alloc and a
// free of a bogus pointer each set a distinct, retrievable last error.
func TestInvalidRequestsReportLastError(t *testing.T) {
	p := mustCreate(t, 16<<20)

	require.Nil(t, p.Alloc(0))
	require.Equal(t, ErrInvalidSize, GetLastError())

	p.Free(unsafe.Pointer(uintptr(0x12345)))
	require.Equal(t, ErrInvalidPointer, GetLastError())

	require.True(t, p.Validate())
}

// TestCallocZeroesAndDetectsOverflow checks calloc's zero-fill and its
// n*elemSize overflow guard.
func TestCallocZeroesAndDetectsOverflow(t *testing.T) {
	p := mustCreate(t, 16<<20)

	ptr := p.Calloc(64, 16)
	require.NotNil(t, ptr)
	buf := unsafe.Slice((*byte)(ptr), 64*16)
	for _, b := range buf {
		require.Zero(t, b)
	}
	p.Free(ptr)

	require.Nil(t, p.Calloc(1<<62, 1<<62))
	require.Equal(t, ErrInvalidSize, GetLastError())
}

// TestBoundaryMinAndMaxAllocations checks boundary sizes: a one-byte
// request succeeds and frees cleanly, and a request for the head
// segment's usable size less 64 bytes (which leaves less than a minimum
// block over once header and footer are added) also succeeds.
func TestBoundaryMinAndMaxAllocations(t *testing.T) {
	p := mustCreate(t, 1<<20)

	one := p.Alloc(1)
	require.NotNil(t, one)
	p.Free(one)
	require.True(t, p.Validate())

	stats := p.GetStats()
	require.EqualValues(t, 1, stats.SegmentCount)

	whole := p.Alloc(int(stats.UsableSize) - 64)
	require.NotNil(t, whole)
	p.Free(whole)
	require.True(t, p.Validate())
}

func TestContainsRejectsForeignPointers(t *testing.T) {
	p := mustCreate(t, 1<<20)
	var local byte
	require.False(t, p.Contains(unsafe.Pointer(&local)))
	require.False(t, p.Contains(nil))
}

func TestFreeOfNilIsNoop(t *testing.T) {
	p := mustCreate(t, 1<<20)
	p.Free(nil)
	require.Equal(t, Success, GetLastError())
}
