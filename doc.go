// Package framepump presents frames into a host window from a dedicated
// render goroutine.
//
// # Overview
//
// A host hands framepump a surface through [Manager.OnSurfaceAvailable] and
// then reports that a new frame should be drawn through [Manager.OnFrameReady].
// The Manager binds each surface to one render worker. The worker waits for a
// frame signal, locks the window's pixel buffer, fills it with a fixed
// red/yellow reference pattern and posts it.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/framepump"
//	    "github.com/gogpu/framepump/window/memwin"
//	)
//
//	m := framepump.New(memwin.New())
//	defer m.Close()
//
//	if err := m.OnSurfaceAvailable(surface); err != nil {
//	    return err
//	}
//	m.OnFrameReady()
//
// # Frame Signals
//
// The signal between host and worker holds at most one pending frame. A
// producer that signals twice before the worker consumes a frame violates
// the protocol; by default the process aborts ([PolicyAbort]). With
// [PolicyReport] the violation is logged and the pending frames collapse into
// one. Producers that need backpressure wait for [WithPresentHook] before
// signaling again.
//
// # Buffer Contract
//
// Render targets are 640x480 RGBA8 with any stride of at least 2560 bytes.
// A locked buffer in another format, with a width that is not a multiple of
// four pixels, or with a stride shorter than a row is a window system bug and
// terminates the process. Transient failures (a lock or post that fails) drop
// the frame and the worker keeps running.
//
// # Architecture
//
// The module is organized into:
//   - framepump: Manager, session lifecycle, options, logging
//   - window: buffer and window system contracts, backend registry
//   - window/memwin: double-buffered in-process window system
//   - pattern: the reference pattern writer and verifier
//   - internal/framesignal: single-slot frame signal
//   - internal/worker: the render loop and its stop protocol
//   - internal/parallel: row band worker pool for parallel fills
//
// # Logging
//
// framepump is silent by default. Use [SetLogger] to route session and frame
// events to any [log/slog] handler.
package framepump
