// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux || darwin || freebsd || netbsd || openbsd

package memwin

import (
	"golang.org/x/sys/unix"

	"github.com/gogpu/framepump/window"
)

// SharedAllocator maps window buffers as anonymous shared memory, the way
// compositors hand out client buffers.
type SharedAllocator struct{}

// Alloc maps size bytes of zeroed, read-write shared memory.
func (SharedAllocator) Alloc(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
}

// Free unmaps b. b must come from Alloc.
func (SharedAllocator) Free(b []byte) error {
	return unix.Munmap(b)
}

func init() {
	window.Register("shm", func() window.System {
		return New(WithAllocator(SharedAllocator{}))
	})
}
