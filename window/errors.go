// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package window

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Buffer contract violations.
var (
	// ErrUnsupportedFormat is reported for buffers not in TargetFormat.
	ErrUnsupportedFormat = errors.New("window: unsupported pixel format")

	// ErrMisalignedWidth is reported when the width is not a multiple of GroupPixels.
	ErrMisalignedWidth = errors.New("window: width not a multiple of 4 pixels")

	// ErrShortBuffer is reported when stride or pixel memory cannot hold the geometry.
	ErrShortBuffer = errors.New("window: buffer too small for geometry")
)

// Window handle misuse.
var (
	ErrNoGeometry    = errors.New("window: geometry not configured")
	ErrAlreadyLocked = errors.New("window: buffer already locked")
	ErrNotLocked     = errors.New("window: buffer not locked")
	ErrReleased      = errors.New("window: window released")
	ErrNilSurface    = errors.New("window: nil surface")
)

// ContractError describes a buffer that breaks the pipeline's layout
// requirements. It is not recoverable: the window system handed out memory
// the writer cannot safely touch.
type ContractError struct {
	Err    error
	Width  int
	Height int
	Stride int
	Format gputypes.TextureFormat
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%v (width=%d height=%d stride=%d format=%v)",
		e.Err, e.Width, e.Height, e.Stride, e.Format)
}

func (e *ContractError) Unwrap() error { return e.Err }

// Validate checks buf against the layout the pattern writer requires.
// It returns nil or a *ContractError.
func Validate(buf *Buffer) error {
	var err error
	switch {
	case buf.Format != TargetFormat:
		err = ErrUnsupportedFormat
	case buf.Width%GroupPixels != 0:
		err = ErrMisalignedWidth
	case buf.Width < 0 || buf.Height < 0 || buf.Stride < buf.RowBytes():
		err = ErrShortBuffer
	case buf.Height > 0 && len(buf.Pixels) < (buf.Height-1)*buf.Stride+buf.RowBytes():
		err = ErrShortBuffer
	default:
		return nil
	}
	return &ContractError{
		Err:    err,
		Width:  buf.Width,
		Height: buf.Height,
		Stride: buf.Stride,
		Format: buf.Format,
	}
}

// MustValidate panics with a *ContractError if buf is invalid.
func MustValidate(buf *Buffer) {
	if err := Validate(buf); err != nil {
		panic(err)
	}
}
