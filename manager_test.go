// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepump

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/framepump/pattern"
	"github.com/gogpu/framepump/window"
	"github.com/gogpu/framepump/window/memwin"
)

const timeout = 2 * time.Second

var surface = gpucontext.NullWindowProvider{W: 640, H: 480}

// presents returns a hook option and the channel it reports on.
func presents() (Option, <-chan uint64) {
	ch := make(chan uint64, 64)
	return WithPresentHook(func(seq uint64) { ch <- seq }), ch
}

func waitPresent(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case seq := <-ch:
		return seq
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a presented frame")
	}
	return 0
}

func TestSingleFrameEvent(t *testing.T) {
	var (
		mu     sync.Mutex
		frames []memwin.Frame
	)
	sys := memwin.New(memwin.WithPostHook(func(f memwin.Frame) {
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, pattern.Verify(&f.Buffer))
		frames = append(frames, f)
	}))
	hook, presented := presents()

	m := New(sys, hook)
	defer m.Close()

	require.NoError(t, m.OnSurfaceAvailable(surface))
	assert.True(t, m.Active())

	m.OnFrameReady()
	assert.Equal(t, uint64(1), waitPresent(t, presented))

	// No stray second frame.
	select {
	case seq := <-presented:
		t.Fatalf("unexpected frame %d", seq)
	case <-time.After(20 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, frames, 1)
	buf := frames[0].Buffer
	assert.Equal(t, 640, buf.Width)
	assert.Equal(t, 480, buf.Height)
	assert.Equal(t, 2560, buf.Stride)
}

func TestSurfaceReplacementNeverOverlaps(t *testing.T) {
	sys := memwin.New()
	hook, presented := presents()
	m := New(sys, hook)
	defer m.Close()

	for i := range 5 {
		require.NoError(t, m.OnSurfaceAvailable(surface))
		m.OnFrameReady()
		assert.Equal(t, uint64(1), waitPresent(t, presented), "session %d", i)
	}

	assert.Equal(t, 1, sys.MaxLiveWindows(), "old window must be released before the new one is acquired")
	assert.LessOrEqual(t, sys.MaxConcurrentLocks(), 1)
	assert.Equal(t, 1, sys.LiveWindows())

	st := m.Stats()
	assert.Equal(t, uint64(5), st.SessionsStarted)
	assert.Equal(t, uint64(5), st.Presented)
	assert.Equal(t, uint64(5), st.FramesForwarded)
}

func TestReplacementWhileIdleWorkerWaits(t *testing.T) {
	sys := memwin.New()
	m := New(sys)
	defer m.Close()

	require.NoError(t, m.OnSurfaceAvailable(surface))
	// The first worker never receives a frame; replacing it must still
	// return instead of waiting on it forever.
	done := make(chan error, 1)
	go func() { done <- m.OnSurfaceAvailable(surface) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("replacement blocked on an idle worker")
	}
	assert.Zero(t, sys.Posts())
}

func TestConfigureFailureLeavesNoSession(t *testing.T) {
	boom := errors.New("format rejected")
	bad := memwin.New(memwin.WithGeometryFailure(boom))

	m := New(bad)
	defer m.Close()

	err := m.OnSurfaceAvailable(surface)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigure)
	assert.ErrorIs(t, err, boom)
	assert.False(t, m.Active())
	assert.Zero(t, bad.LiveWindows(), "an unusable window must be released")

	m.OnFrameReady()
	st := m.Stats()
	assert.Equal(t, uint64(1), st.ConfigureFailures)
	assert.Equal(t, uint64(1), st.FramesDropped)
	assert.Zero(t, bad.Posts())
}

func TestConfigureFailureDropsPreviousSession(t *testing.T) {
	sys := &flakySystem{System: memwin.New()}
	hook, presented := presents()
	m := New(sys, hook)
	defer m.Close()

	require.NoError(t, m.OnSurfaceAvailable(surface))
	m.OnFrameReady()
	waitPresent(t, presented)

	sys.fail = true
	assert.ErrorIs(t, m.OnSurfaceAvailable(surface), ErrAcquire)
	assert.False(t, m.Active())
	assert.Zero(t, sys.LiveWindows())

	// A later surface brings rendering back.
	sys.fail = false
	require.NoError(t, m.OnSurfaceAvailable(surface))
	m.OnFrameReady()
	assert.Equal(t, uint64(1), waitPresent(t, presented))
}

func TestFrameEventWithoutSessionIsDropped(t *testing.T) {
	sys := memwin.New()
	m := New(sys)
	defer m.Close()

	for range 3 {
		m.OnFrameReady()
	}
	assert.Equal(t, uint64(3), m.Stats().FramesDropped)
	assert.Zero(t, sys.Posts())
}

func TestClose(t *testing.T) {
	sys := memwin.New()
	hook, presented := presents()
	m := New(sys, hook, WithParallelFill(4))

	require.NoError(t, m.OnSurfaceAvailable(surface))
	m.OnFrameReady()
	waitPresent(t, presented)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.False(t, m.Active())
	assert.Zero(t, sys.LiveWindows())
	assert.ErrorIs(t, m.OnSurfaceAvailable(surface), ErrClosed)

	m.OnFrameReady()
	assert.Equal(t, uint64(1), m.Stats().Presented)
}

func TestParallelFill(t *testing.T) {
	sys := memwin.New(memwin.WithStridePadding(48))
	hook, presented := presents()
	m := New(sys, hook, WithParallelFill(-1))
	defer m.Close()

	require.NoError(t, m.OnSurfaceAvailable(surface))
	m.OnFrameReady()
	waitPresent(t, presented)

	front := sys.Front()
	require.NotNil(t, front)
	assert.NoError(t, pattern.Verify(front))
}

func TestLockStepProducer(t *testing.T) {
	sys := memwin.New()
	hook, presented := presents()
	m := New(sys, hook)
	defer m.Close()

	require.NoError(t, m.OnSurfaceAvailable(surface))
	const frames = 50
	for i := range frames {
		m.OnFrameReady()
		assert.Equal(t, uint64(i+1), waitPresent(t, presented))
	}

	st := m.Stats()
	assert.Equal(t, uint64(frames), st.Presented)
	assert.Zero(t, st.Violations)
	assert.Equal(t, uint64(frames), sys.Posts())
}

func TestReportPolicyKeepsRendering(t *testing.T) {
	// Hold the worker inside the post hook so the producer can get ahead.
	release := make(chan struct{})
	var once sync.Once
	sys := memwin.New(memwin.WithPostHook(func(memwin.Frame) {
		once.Do(func() { <-release })
	}))
	hook, presented := presents()
	m := New(sys, hook, WithViolationPolicy(PolicyReport))
	defer m.Close()

	require.NoError(t, m.OnSurfaceAvailable(surface))
	m.OnFrameReady()
	require.Eventually(t, func() bool { return sys.Posts() == 1 }, timeout, time.Millisecond)

	// Two more signals while the first frame is still being posted.
	m.OnFrameReady()
	m.OnFrameReady()
	close(release)

	waitPresent(t, presented)
	waitPresent(t, presented)
	require.Eventually(t, func() bool { return m.Stats().Violations == 1 }, timeout, time.Millisecond)
	assert.Equal(t, uint64(2), m.Stats().Presented)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("report")
	require.NoError(t, err)
	assert.Equal(t, PolicyReport, p)

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}

// flakySystem fails Acquire while fail is set.
type flakySystem struct {
	*memwin.System
	fail bool
}

func (s *flakySystem) Acquire(ref gpucontext.WindowProvider) (window.Window, error) {
	if s.fail {
		return nil, errors.New("surface gone")
	}
	return s.System.Acquire(ref)
}
