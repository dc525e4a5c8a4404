// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package memwin is an in-process window system backed by double-buffered
// pixel memory.
//
// Each acquired window owns a front buffer (last presented) and a back buffer
// (handed out by Lock). UnlockAndPost swaps them. The System keeps enough
// bookkeeping (live windows, concurrent locks, posts) for tests and tools to
// check how a pipeline drives the window boundary.
package memwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepump/window"
)

// ErrLockFailed is returned by Lock while injected lock failures remain.
var ErrLockFailed = errors.New("memwin: buffer lock failed")

// ErrInvalidGeometry is returned by SetGeometry for non-positive sizes.
var ErrInvalidGeometry = errors.New("memwin: invalid geometry")

// Frame describes one presented buffer.
// Buffer aliases the window's front memory and is only valid during the hook.
type Frame struct {
	Seq    uint64
	Window uint64
	Buffer window.Buffer
}

// System is an in-memory window system.
// It is safe for concurrent use.
type System struct {
	opts options

	mu        sync.Mutex
	nextID    uint64
	live      map[uint64]*Window
	maxLive   int
	locked    int
	maxLocked int
	posts     uint64
	last      *Window
}

// New creates a window system with the given options.
func New(opts ...Option) *System {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &System{
		opts: o,
		live: make(map[uint64]*Window),
	}
}

// Acquire creates a window for ref.
func (s *System) Acquire(ref gpucontext.WindowProvider) (window.Window, error) {
	if ref == nil {
		return nil, window.ErrNilSurface
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	w := &Window{
		sys:          s,
		id:           s.nextID,
		ref:          ref,
		lockFailures: s.opts.lockFailures,
	}
	s.live[w.id] = w
	s.maxLive = max(s.maxLive, len(s.live))
	return w, nil
}

// LiveWindows returns the number of acquired, unreleased windows.
func (s *System) LiveWindows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// MaxLiveWindows returns the highest number of windows ever live at once.
func (s *System) MaxLiveWindows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxLive
}

// MaxConcurrentLocks returns the highest number of windows ever locked at once.
func (s *System) MaxConcurrentLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxLocked
}

// Posts returns the total number of presented buffers.
func (s *System) Posts() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts
}

// Front returns a copy of the most recently presented buffer, or nil if
// nothing has been presented yet.
func (s *System) Front() *window.Buffer {
	s.mu.Lock()
	w := s.last
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.front()
}

func (s *System) noteLock(delta int) {
	s.mu.Lock()
	s.locked += delta
	s.maxLocked = max(s.maxLocked, s.locked)
	s.mu.Unlock()
}

func (s *System) notePost(w *Window) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts++
	s.last = w
	return s.posts
}

func (s *System) forget(w *Window) {
	s.mu.Lock()
	delete(s.live, w.id)
	s.mu.Unlock()
}

// Window is a memwin window handle.
type Window struct {
	sys *System
	id  uint64
	ref gpucontext.WindowProvider

	mu           sync.Mutex
	width        int
	height       int
	stride       int
	format       gputypes.TextureFormat
	bufs         [2][]byte
	back         int
	posted       bool
	locked       bool
	released     bool
	lockFailures int
}

// ID returns the window's identifier, unique within its System.
func (w *Window) ID() uint64 { return w.id }

// Surface returns the host surface the window was acquired for.
func (w *Window) Surface() gpucontext.WindowProvider { return w.ref }

// SetGeometry reallocates both buffers for the new size.
func (w *Window) SetGeometry(width, height int, format gputypes.TextureFormat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.released:
		return window.ErrReleased
	case w.locked:
		return window.ErrAlreadyLocked
	case w.sys.opts.geometryErr != nil:
		return w.sys.opts.geometryErr
	case width <= 0 || height <= 0:
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}

	stride := width*window.BytesPerPixel + w.sys.opts.stridePadding
	size := stride * height

	if err := w.freeBuffers(); err != nil {
		return err
	}
	for i := range w.bufs {
		b, err := w.sys.opts.alloc.Alloc(size)
		if err != nil {
			_ = w.freeBuffers()
			return fmt.Errorf("memwin: allocate %d bytes: %w", size, err)
		}
		w.bufs[i] = b
	}

	w.width = width
	w.height = height
	w.stride = stride
	w.format = format
	w.back = 0
	w.posted = false
	return nil
}

// Lock hands out the back buffer.
func (w *Window) Lock() (*window.Buffer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.released:
		return nil, window.ErrReleased
	case w.bufs[0] == nil:
		return nil, window.ErrNoGeometry
	case w.locked:
		return nil, window.ErrAlreadyLocked
	}
	if w.lockFailures > 0 {
		w.lockFailures--
		return nil, ErrLockFailed
	}

	format := w.format
	if w.sys.opts.format != gputypes.TextureFormatUndefined {
		format = w.sys.opts.format
	}

	w.locked = true
	w.sys.noteLock(1)
	return &window.Buffer{
		Width:  w.width,
		Height: w.height,
		Stride: w.stride,
		Format: format,
		Pixels: w.bufs[w.back],
	}, nil
}

// UnlockAndPost presents the back buffer and swaps front and back.
func (w *Window) UnlockAndPost() error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return window.ErrReleased
	}
	if !w.locked {
		w.mu.Unlock()
		return window.ErrNotLocked
	}
	w.locked = false
	w.back ^= 1
	w.posted = true
	w.sys.noteLock(-1)
	seq := w.sys.notePost(w)

	hook := w.sys.opts.postHook
	var frame Frame
	if hook != nil {
		frame = Frame{
			Seq:    seq,
			Window: w.id,
			Buffer: window.Buffer{
				Width:  w.width,
				Height: w.height,
				Stride: w.stride,
				Format: w.format,
				Pixels: w.bufs[w.back^1],
			},
		}
	}
	w.mu.Unlock()

	if hook != nil {
		hook(frame)
	}
	return nil
}

// Release frees the window's buffers. It is idempotent.
func (w *Window) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return
	}
	if w.locked {
		w.locked = false
		w.sys.noteLock(-1)
	}
	w.released = true
	if err := w.freeBuffers(); err != nil {
		slogger().Warn("memwin: release window", "window", w.id, "err", err)
	}
	w.sys.forget(w)
}

// front copies the presented buffer.
func (w *Window) front() *window.Buffer {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released || !w.posted {
		return nil
	}
	src := w.bufs[w.back^1]
	pix := make([]byte, len(src))
	copy(pix, src)
	return &window.Buffer{
		Width:  w.width,
		Height: w.height,
		Stride: w.stride,
		Format: w.format,
		Pixels: pix,
	}
}

// freeBuffers must be called with w.mu held.
func (w *Window) freeBuffers() error {
	var errs []error
	for i, b := range w.bufs {
		if b == nil {
			continue
		}
		if err := w.sys.opts.alloc.Free(b); err != nil {
			errs = append(errs, err)
		}
		w.bufs[i] = nil
	}
	return errors.Join(errs...)
}

var (
	_ window.System = (*System)(nil)
	_ window.Window = (*Window)(nil)
)
