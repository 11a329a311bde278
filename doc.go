// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mempool implements a thread-safe, segment-chained memory pool
// allocator: a fixed backing region satisfies arbitrary-size allocation
// requests through a coalescing, address-ordered free list, with an
// optional per-size-class slab fast path for fixed-size churn. When a pool
// runs out of room it chains on another OS-backed segment rather than
// failing.
//
// Pool is not a general substitute for the Go heap: payloads are returned
// as unsafe.Pointer into allocator-owned memory and the garbage collector
// does not know about them. Use it for short-lived, high-churn allocations
// (packet buffers, per-request scratch space) where avoiding per-object GC
// pressure matters more than memory safety guarantees.
package mempool
