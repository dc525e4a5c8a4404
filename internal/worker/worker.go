// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package worker runs the render loop bound to one window.
//
// A Worker waits for a frame signal, locks the window's buffer, fills it with
// the reference pattern and posts it. It is the only goroutine that touches
// the window while it runs.
package worker

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/framepump/internal/framesignal"
	"github.com/gogpu/framepump/pattern"
	"github.com/gogpu/framepump/window"
)

// State is a worker lifecycle state.
type State int32

const (
	// Idle workers have been created but not started.
	Idle State = iota

	// Running workers wait for frames and render them.
	Running

	// Stopping workers have a stop request and a pending wake-up.
	Stopping

	// Terminated workers have exited their loop and hold no buffer.
	Terminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a snapshot of worker counters.
type Stats struct {
	// Presented counts buffers filled and posted.
	Presented uint64

	// LockFailures counts frames dropped because the buffer could not be locked.
	LockFailures uint64

	// PostFailures counts frames whose post was rejected by the window.
	PostFailures uint64

	// Violations counts double-pending frame signals absorbed under the
	// report policy.
	Violations uint64

	// Signal holds the frame signal counters.
	Signal framesignal.Stats
}

// Worker is the render loop for one window.
type Worker struct {
	win  window.Window
	sig  *framesignal.Signal
	opts options
	log  *slog.Logger

	state atomic.Int32
	stop  atomic.Bool
	done  chan struct{}

	presented    atomic.Uint64
	lockFailures atomic.Uint64
	postFailures atomic.Uint64
	violations   atomic.Uint64
}

// New creates an Idle worker bound to win.
// win must already have its geometry configured.
func New(win window.Window, opts ...Option) *Worker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Worker{
		win: win,
		// The worker applies the policy itself so that an abort goes
		// through the fatal handler like every other contract breach.
		sig:  framesignal.New(framesignal.Report),
		opts: o,
		log:  slogger().With("session", o.session),
		done: make(chan struct{}),
	}
}

// Start launches the render loop. Calling Start on a worker that is not
// Idle does nothing.
func (w *Worker) Start() {
	if !w.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return
	}
	w.log.Debug("worker: started")
	go w.run()
}

// Notify signals that a frame is ready.
// It is safe to call from any goroutine, including during Stop.
func (w *Worker) Notify() {
	w.sig.Notify()
}

// Stop shuts the worker down and waits until it is Terminated.
//
// The stop protocol is:
//  1. move Running to Stopping and set the stop flag;
//  2. send exactly one wake-up so a loop blocked in Wait returns;
//  3. wait for the loop to exit.
//
// Without step 2 a worker with no pending frame would wait forever. A frame
// that is being rendered when Stop is called is finished and posted first.
// Stop is idempotent and safe for concurrent use.
func (w *Worker) Stop() {
	if w.state.CompareAndSwap(int32(Idle), int32(Terminated)) {
		close(w.done)
		return
	}
	if w.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		w.stop.Store(true)
		w.sig.Wake()
	}
	<-w.done
}

// Done is closed once the worker is Terminated.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Presented:    w.presented.Load(),
		LockFailures: w.lockFailures.Load(),
		PostFailures: w.postFailures.Load(),
		Violations:   w.violations.Load(),
		Signal:       w.sig.Stats(),
	}
}

func (w *Worker) run() {
	defer close(w.done)
	defer w.state.Store(int32(Terminated))

	for {
		if err := w.sig.Wait(); err != nil {
			if w.opts.policy == framesignal.Abort {
				w.log.Error("worker: frame signal protocol violation", "err", err)
				w.opts.fatal(err)
			}
			w.violations.Add(1)
			w.log.Warn("worker: frame signal protocol violation", "err", err)
		}
		if w.stop.Load() {
			w.log.Debug("worker: stopped")
			return
		}
		w.renderFrame()
	}
}

// renderFrame draws and posts one frame. Transient window errors drop the
// frame; a buffer that breaks the layout contract is fatal.
func (w *Worker) renderFrame() {
	buf, err := w.win.Lock()
	if err != nil {
		w.lockFailures.Add(1)
		w.log.Warn("worker: lock failed, dropping frame", "err", err)
		return
	}

	if err := window.Validate(buf); err != nil {
		w.log.Error("worker: window broke buffer contract", "err", err)
		w.opts.fatal(err)
	}

	if w.opts.pool != nil {
		pattern.WriteParallel(w.opts.pool, buf)
	} else {
		pattern.Write(buf)
	}

	if err := w.win.UnlockAndPost(); err != nil {
		w.postFailures.Add(1)
		w.log.Warn("worker: post failed", "err", err)
		return
	}

	seq := w.presented.Add(1)
	w.log.Debug("worker: frame presented", "seq", seq,
		"width", buf.Width, "height", buf.Height, "stride", buf.Stride)
	if w.opts.onPresent != nil {
		w.opts.onPresent(seq)
	}
}
