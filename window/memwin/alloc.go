// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package memwin

import "github.com/gogpu/framepump/window"

// Allocator provides pixel memory for window buffers.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte) error
}

// HeapAllocator allocates buffers on the Go heap.
type HeapAllocator struct{}

// Alloc returns a zeroed slice of size bytes.
func (HeapAllocator) Alloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// Free is a no-op; the garbage collector reclaims heap buffers.
func (HeapAllocator) Free([]byte) error { return nil }

func init() {
	window.Register("heap", func() window.System { return New() })
}
