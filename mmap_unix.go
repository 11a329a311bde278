// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Further modifications for segment-chained pool allocation.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package mempool

import (
	"os"

	"golang.org/x/sys/unix"
)

func osPageSize() int { return os.Getpagesize() }

// osReserve asks the OS for one anonymous, zero-filled mapping to back a
// new segment.
func osReserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
}

func osRelease(b []byte) error {
	return unix.Munmap(b)
}
