// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package memwin

// SharedAllocator falls back to heap memory on platforms without
// anonymous shared mappings. It is not registered as a window system.
type SharedAllocator = HeapAllocator
