// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepump

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/framepump/internal/parallel"
	"github.com/gogpu/framepump/internal/worker"
	"github.com/gogpu/framepump/window"
)

// Errors returned by Manager operations.
var (
	// ErrClosed is returned by OnSurfaceAvailable after Close.
	ErrClosed = errors.New("framepump: manager closed")

	// ErrAcquire wraps a window system failure to acquire a surface.
	ErrAcquire = errors.New("framepump: acquire window")

	// ErrConfigure wraps a failure to set the target buffer geometry.
	ErrConfigure = errors.New("framepump: configure window geometry")
)

// session pairs an acquired window with the one worker rendering into it.
type session struct {
	id     uint64
	win    window.Window
	worker *worker.Worker
}

// Manager owns the surface session: the current window and its render worker.
//
// OnSurfaceAvailable and Close are serialized; a replacement never starts
// until the previous worker has fully stopped and its window is released,
// so at most one worker touches the window system at any time.
// OnFrameReady may be called concurrently from any goroutine.
type Manager struct {
	sys  window.System
	opts options
	pool *parallel.WorkerPool

	mu      sync.Mutex
	current atomic.Pointer[session]
	closed  bool
	nextID  uint64
	retired worker.Stats

	sessionsStarted   atomic.Uint64
	configureFailures atomic.Uint64
	forwarded         atomic.Uint64
	dropped           atomic.Uint64
}

// New creates a Manager with no active session.
func New(sys window.System, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{sys: sys, opts: o}
	if o.workers < 0 || o.workers > 1 {
		m.pool = parallel.NewWorkerPool(o.workers)
	}
	return m
}

// OnSurfaceAvailable replaces the current session with one bound to ref.
//
// Any previous worker is stopped and joined, and its window released, before
// the new window is acquired. If the new window cannot be acquired or
// configured, the error is logged and returned and no session is active until
// a later call succeeds.
func (m *Manager) OnSurfaceAvailable(ref gpucontext.WindowProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.teardown()

	win, err := m.sys.Acquire(ref)
	if err != nil {
		m.configureFailures.Add(1)
		Logger().Warn("framepump: surface unusable", "err", err)
		return fmt.Errorf("%w: %w", ErrAcquire, err)
	}

	if err := win.SetGeometry(window.TargetWidth, window.TargetHeight, window.TargetFormat); err != nil {
		win.Release()
		m.configureFailures.Add(1)
		Logger().Warn("framepump: surface unusable", "err", err,
			"width", window.TargetWidth, "height", window.TargetHeight)
		return fmt.Errorf("%w: %w", ErrConfigure, err)
	}

	m.nextID++
	s := &session{
		id:  m.nextID,
		win: win,
		worker: worker.New(win,
			worker.WithPolicy(m.opts.policy),
			worker.WithPool(m.pool),
			worker.WithPresentHook(m.opts.onPresent),
			worker.WithSession(m.nextID),
		),
	}
	s.worker.Start()
	m.current.Store(s)
	m.sessionsStarted.Add(1)

	Logger().Info("framepump: session started", "session", s.id,
		"width", window.TargetWidth, "height", window.TargetHeight,
		"format", window.TargetFormat)
	return nil
}

// OnFrameReady tells the current worker a frame should be rendered.
// Without an active session the event is dropped.
func (m *Manager) OnFrameReady() {
	s := m.current.Load()
	if s == nil {
		m.dropped.Add(1)
		Logger().Debug("framepump: frame event without session dropped")
		return
	}
	s.worker.Notify()
	m.forwarded.Add(1)
}

// Active reports whether a session is currently rendering.
func (m *Manager) Active() bool {
	return m.current.Load() != nil
}

// Close stops the current session and releases its window.
// Later OnSurfaceAvailable calls return ErrClosed. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.teardown()
	if m.pool != nil {
		m.pool.Close()
	}
	return nil
}

// teardown stops and joins the current worker, then releases its window.
// It must be called with m.mu held.
func (m *Manager) teardown() {
	s := m.current.Swap(nil)
	if s == nil {
		return
	}

	s.worker.Stop()
	st := s.worker.Stats()
	m.retired.Presented += st.Presented
	m.retired.LockFailures += st.LockFailures
	m.retired.PostFailures += st.PostFailures
	m.retired.Violations += st.Violations
	s.win.Release()

	Logger().Info("framepump: session ended", "session", s.id, "presented", st.Presented)
}

// Stats is a snapshot of Manager counters.
type Stats struct {
	// SessionsStarted counts surfaces that were configured and got a worker.
	SessionsStarted uint64

	// ConfigureFailures counts surfaces that could not be acquired or configured.
	ConfigureFailures uint64

	// FramesForwarded counts frame events passed to a worker.
	FramesForwarded uint64

	// FramesDropped counts frame events that arrived with no active session.
	FramesDropped uint64

	// Presented counts frames posted across all sessions.
	Presented uint64

	// LockFailures counts frames dropped because a buffer could not be locked.
	LockFailures uint64

	// PostFailures counts posts rejected by the window system.
	PostFailures uint64

	// Violations counts double-pending signals absorbed under PolicyReport.
	Violations uint64
}

// Stats returns a snapshot of the manager and worker counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	st := Stats{
		SessionsStarted:   m.sessionsStarted.Load(),
		ConfigureFailures: m.configureFailures.Load(),
		FramesForwarded:   m.forwarded.Load(),
		FramesDropped:     m.dropped.Load(),
		Presented:         m.retired.Presented,
		LockFailures:      m.retired.LockFailures,
		PostFailures:      m.retired.PostFailures,
		Violations:        m.retired.Violations,
	}
	if s := m.current.Load(); s != nil {
		ws := s.worker.Stats()
		st.Presented += ws.Presented
		st.LockFailures += ws.LockFailures
		st.PostFailures += ws.PostFailures
		st.Violations += ws.Violations
	}
	m.mu.Unlock()
	return st
}
