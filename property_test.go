// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// propertyPool creates a pool for one rapid.Check draw; each caller
// destroys it with a defer at the end of that draw instead of through
// t.Cleanup. A single Check call can draw hundreds of times, and
// t.Cleanup would keep every one of their mmap'd segments alive until the
// whole test ends.
func propertyPool(rt *rapid.T, size int) *Pool {
	p, err := Create(size, true)
	require.NoError(rt, err)
	return p
}

// TestPropertyValidateAfterEveryOp checks that for any sequence of
// alloc/free, Validate holds after every single operation, not just at
// the end.
func TestPropertyValidateAfterEveryOp(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := propertyPool(rt, 4<<20)
		defer p.Destroy()

		var live []unsafe.Pointer
		ops := rapid.SliceOfN(rapid.IntRange(0, 1), 1, 200).Draw(rt, "ops")
		sizes := rapid.SliceOfN(rapid.IntRange(1, 4096), 1, 200).Draw(rt, "sizes")

		for i, op := range ops {
			if op == 0 || len(live) == 0 {
				ptr := p.Alloc(sizes[i%len(sizes)])
				if ptr != nil {
					live = append(live, ptr)
				}
			} else {
				idx := i % len(live)
				p.Free(live[idx])
				live[idx] = live[len(live)-1]
				live = live[:len(live)-1]
			}
			require.True(rt, p.Validate())
		}
	})
}

// TestPropertyPayloadsDoNotOverlap checks that every pair of currently
// live payloads occupies disjoint byte ranges.
func TestPropertyPayloadsDoNotOverlap(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := propertyPool(rt, 4<<20)
		defer p.Destroy()

		sizes := rapid.SliceOfN(rapid.IntRange(1, 4096), 1, 64).Draw(rt, "sizes")
		type span struct{ start, end uintptr }
		var spans []span
		for _, sz := range sizes {
			ptr := p.Alloc(sz)
			if ptr == nil {
				continue
			}
			start := uintptr(ptr)
			end := start + uintptr(sz)
			for _, s := range spans {
				require.False(rt, start < s.end && s.start < end, "overlap: [%d,%d) vs [%d,%d)", start, end, s.start, s.end)
			}
			spans = append(spans, span{start, end})
		}
	})
}

// TestPropertyReallocPreservesPrefix checks that Realloc(ptr, n) preserves
// min(oldSize, n) bytes of content.
func TestPropertyReallocPreservesPrefix(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := propertyPool(rt, 4<<20)
		defer p.Destroy()

		oldSize := rapid.IntRange(1, 2048).Draw(rt, "oldSize")
		newSize := rapid.IntRange(1, 4096).Draw(rt, "newSize")
		fill := byte(rapid.IntRange(1, 255).Draw(rt, "fill"))

		ptr := p.Alloc(oldSize)
		require.NotNil(rt, ptr)
		buf := unsafe.Slice((*byte)(ptr), oldSize)
		for i := range buf {
			buf[i] = fill
		}

		newPtr := p.Realloc(ptr, newSize)
		require.NotNil(rt, newPtr)

		n := oldSize
		if newSize < n {
			n = newSize
		}
		got := unsafe.Slice((*byte)(newPtr), n)
		for i := range got {
			require.Equal(rt, fill, got[i], "byte %d", i)
		}
		p.Free(newPtr)
	})
}

// TestPropertyAlignedAllocRespectsAlignment checks that every pointer
// AllocAligned returns is a multiple of the requested alignment.
func TestPropertyAlignedAllocRespectsAlignment(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := propertyPool(rt, 4<<20)
		defer p.Destroy()

		shift := rapid.IntRange(int(log2(minAlignment)), 7).Draw(rt, "shift")
		align := 1 << shift
		size := rapid.IntRange(1, 4096).Draw(rt, "size")

		ptr := p.AllocAligned(size, align)
		require.NotNil(rt, ptr)
		require.Zero(rt, uintptr(ptr)%uintptr(align))
		p.Free(ptr)
	})
}

// TestPropertyResetLeavesOneFreeBlockPerSegment checks that after Reset,
// every segment in the chain holds exactly one free block.
func TestPropertyResetLeavesOneFreeBlockPerSegment(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := propertyPool(rt, 1<<20)
		defer p.Destroy()

		sizes := rapid.SliceOfN(rapid.IntRange(1, 4096), 0, 50).Draw(rt, "sizes")
		for _, sz := range sizes {
			p.Alloc(sz)
		}

		p.Reset()
		for seg := p.head; seg != nil; seg = seg.next {
			require.Equal(rt, 1, seg.freeListLen())
		}
	})
}

func log2(n int) int {
	l := 0
	for 1<<l < n {
		l++
	}
	return l
}
