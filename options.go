package framepump

import "github.com/gogpu/framepump/internal/framesignal"

// Policy selects how a double-pending frame signal is handled.
type Policy = framesignal.Policy

const (
	// PolicyAbort terminates the process when a producer gets more than one
	// frame ahead of the render worker. This is the default.
	PolicyAbort = framesignal.Abort

	// PolicyReport logs the violation, collapses the pending frames into one
	// and keeps rendering.
	PolicyReport = framesignal.Report
)

// ParsePolicy parses "abort" or "report".
func ParsePolicy(s string) (Policy, error) {
	return framesignal.ParsePolicy(s)
}

// Option configures a Manager during creation.
//
// Example:
//
//	m := framepump.New(sys,
//	    framepump.WithViolationPolicy(framepump.PolicyReport),
//	    framepump.WithParallelFill(4),
//	)
type Option func(*options)

type options struct {
	policy    Policy
	workers   int
	onPresent func(seq uint64)
}

func defaultOptions() options {
	return options{
		policy: PolicyAbort,
	}
}

// WithViolationPolicy sets how render workers handle a producer that
// signals twice before a frame is consumed.
func WithViolationPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithParallelFill splits each frame into row bands filled by n goroutines.
// n of 0 or 1 fills on the render worker alone; a negative n uses GOMAXPROCS.
func WithParallelFill(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPresentHook calls fn on the render worker after every presented frame.
// seq restarts at 1 for each session. Producers that must not get ahead of
// the worker can wait for this hook before signaling the next frame.
func WithPresentHook(fn func(seq uint64)) Option {
	return func(o *options) {
		o.onPresent = fn
	}
}
