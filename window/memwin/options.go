// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package memwin

import "github.com/gogpu/gputypes"

// Option configures a System.
type Option func(*options)

type options struct {
	alloc         Allocator
	stridePadding int
	format        gputypes.TextureFormat
	lockFailures  int
	geometryErr   error
	postHook      func(Frame)
}

func defaultOptions() options {
	return options{
		alloc: HeapAllocator{},
	}
}

// WithAllocator sets where window pixel memory comes from.
// The default is HeapAllocator.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.alloc = a
		}
	}
}

// WithStridePadding adds n bytes of padding after every row,
// so that Stride exceeds Width*4.
func WithStridePadding(n int) Option {
	return func(o *options) {
		o.stridePadding = max(n, 0)
	}
}

// WithFormat makes Lock report f instead of the configured format.
// Use it to simulate a window system that ignores the requested format.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithLockFailures makes the first n Lock calls of every window fail
// with ErrLockFailed.
func WithLockFailures(n int) Option {
	return func(o *options) {
		o.lockFailures = max(n, 0)
	}
}

// WithGeometryFailure makes every SetGeometry call fail with err.
func WithGeometryFailure(err error) Option {
	return func(o *options) {
		o.geometryErr = err
	}
}

// WithPostHook registers fn to run after every UnlockAndPost.
// fn runs on the posting goroutine and must not retain Frame.Buffer.Pixels.
func WithPostHook(fn func(Frame)) Option {
	return func(o *options) {
		o.postHook = fn
	}
}
