// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package framesignal provides the single-slot "frame ready" handoff between
// a frame producer and the render worker.
//
// At most one frame may be pending. A producer that signals twice before the
// consumer waits has broken the backpressure contract; the consumer detects
// this on its next Wait and applies the configured Policy.
package framesignal

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDoublePending reports that more than one frame was pending when the
// consumer woke up.
var ErrDoublePending = errors.New("framesignal: more than one frame pending")

// Policy selects what Wait does on a protocol violation.
type Policy uint8

const (
	// Abort panics with a *ViolationError. On the render goroutine this
	// terminates the process.
	Abort Policy = iota

	// Report clears the pending count and returns the *ViolationError
	// from Wait. The consumer can log it and keep going.
	Report
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Report:
		return "report"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy parses "abort" or "report".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "abort":
		return Abort, nil
	case "report":
		return Report, nil
	default:
		return Abort, fmt.Errorf("framesignal: unknown policy %q", s)
	}
}

// ViolationError carries the pending count observed by Wait.
type ViolationError struct {
	Pending int
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%v (pending=%d)", ErrDoublePending, e.Pending)
}

func (e *ViolationError) Unwrap() error { return ErrDoublePending }

// Stats is a snapshot of signal counters.
type Stats struct {
	Notifies   uint64
	Waits      uint64
	Wakes      uint64
	Violations uint64
}

// Signal is a single-slot frame-ready handoff.
//
// Notify may be called from any goroutine. Wait must only be called from the
// single consumer goroutine.
type Signal struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending int
	woken   bool
	policy  Policy
	stats   Stats
}

// New creates a Signal with no pending frame.
func New(policy Policy) *Signal {
	s := &Signal{policy: policy}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Notify marks one frame ready and wakes the consumer.
func (s *Signal) Notify() {
	s.mu.Lock()
	s.pending++
	s.stats.Notifies++
	s.cond.Signal()
	s.mu.Unlock()
}

// Wake releases a blocked Wait without marking a frame ready.
//
// This is the stop wake-up: the consumer returns from Wait, checks its stop
// flag and exits. A frame pending at the same time is left for Wait to
// consume as usual, so Wake never trips the double-pending check.
func (s *Signal) Wake() {
	s.mu.Lock()
	s.woken = true
	s.stats.Wakes++
	s.cond.Signal()
	s.mu.Unlock()
}

// Wait blocks until a frame is pending or Wake is called.
//
// When a frame is pending it is consumed, and the pending count must drop
// back to zero. If it does not, Wait applies the policy: Abort panics,
// Report resets the count and returns a *ViolationError.
func (s *Signal) Wait() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.pending == 0 && !s.woken {
		s.cond.Wait()
	}
	s.woken = false
	if s.pending == 0 {
		return nil
	}

	s.stats.Waits++
	s.pending--
	if s.pending == 0 {
		return nil
	}

	err := &ViolationError{Pending: s.pending + 1}
	s.pending = 0
	s.stats.Violations++
	if s.policy == Abort {
		panic(err)
	}
	return err
}

// Pending returns the number of frames signaled but not yet consumed.
func (s *Signal) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Policy returns the violation policy.
func (s *Signal) Policy() Policy {
	return s.policy
}

// Stats returns a snapshot of the signal counters.
func (s *Signal) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
