package worker

import (
	"github.com/gogpu/framepump/internal/framesignal"
	"github.com/gogpu/framepump/internal/parallel"
)

// Option configures a Worker.
type Option func(*options)

type options struct {
	policy    framesignal.Policy
	pool      *parallel.WorkerPool
	onPresent func(seq uint64)
	fatal     func(error)
	session   uint64
}

func defaultOptions() options {
	return options{
		policy: framesignal.Abort,
		fatal:  func(err error) { panic(err) },
	}
}

// WithPolicy sets how a double-pending frame signal is handled.
// The default is framesignal.Abort.
func WithPolicy(p framesignal.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithPool fills buffers in row bands on pool. The pool is borrowed:
// the worker never closes it.
func WithPool(p *parallel.WorkerPool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithPresentHook calls fn on the worker goroutine after every post.
// seq counts presented frames starting at 1.
func WithPresentHook(fn func(seq uint64)) Option {
	return func(o *options) {
		o.onPresent = fn
	}
}

// WithFatal replaces the handler for unrecoverable contract breaches.
// The default panics, which terminates the process. fn must not return
// normally; a test handler can end the loop with runtime.Goexit.
func WithFatal(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.fatal = fn
		}
	}
}

// WithSession tags the worker's log records with a session number.
func WithSession(id uint64) Option {
	return func(o *options) {
		o.session = id
	}
}
