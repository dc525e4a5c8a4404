// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package window

import (
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Fixed target configuration applied to every surface.
const (
	// TargetWidth is the buffer width requested from the window system.
	TargetWidth = 640

	// TargetHeight is the buffer height requested from the window system.
	TargetHeight = 480

	// TargetFormat is the only pixel format the pipeline writes.
	TargetFormat = gputypes.TextureFormatRGBA8Unorm

	// BytesPerPixel is the size of one TargetFormat pixel.
	BytesPerPixel = 4

	// GroupPixels is the number of pixels written per 16-byte store.
	// Buffer widths must be a multiple of it.
	GroupPixels = 4
)

// Buffer is a locked, writable pixel region handed out by a Window.
//
// A Buffer is valid only between Window.Lock and the matching
// Window.UnlockAndPost. Stride is in bytes and may exceed Width*BytesPerPixel.
type Buffer struct {
	Width  int
	Height int
	Stride int
	Format gputypes.TextureFormat
	Pixels []byte
}

// RowBytes returns the number of visible bytes in one row.
func (b *Buffer) RowBytes() int {
	return b.Width * BytesPerPixel
}

// Row returns the visible bytes of row y.
func (b *Buffer) Row(y int) []byte {
	off := y * b.Stride
	return b.Pixels[off : off+b.RowBytes()]
}

// Image returns an *image.RGBA sharing memory with the buffer.
// The view is only meaningful for TargetFormat buffers.
func (b *Buffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pixels,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// System is the windowing subsystem that turns a host surface into a
// lockable Window.
//
// The host owns the surface; the pipeline receives it, it never creates one.
type System interface {
	// Acquire takes ownership of the window behind ref.
	Acquire(ref gpucontext.WindowProvider) (Window, error)
}

// Window is an acquired window handle.
//
// A Window is used by one goroutine at a time: the session manager while
// configuring it, then the render worker bound to it.
type Window interface {
	// SetGeometry configures the size and format of buffers returned by Lock.
	SetGeometry(width, height int, format gputypes.TextureFormat) error

	// Lock returns the next buffer to draw into.
	Lock() (*Buffer, error)

	// UnlockAndPost releases the locked buffer and queues it for display.
	UnlockAndPost() error

	// Release gives up ownership of the window. It is idempotent.
	Release()
}
