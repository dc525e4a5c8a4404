// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framesignal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitAsync runs Wait on a new goroutine and returns its result channel.
func waitAsync(s *Signal) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- s.Wait() }()
	return ch
}

func TestNotifyThenWaitDoesNotBlock(t *testing.T) {
	s := New(Abort)
	s.Notify()

	select {
	case err := <-waitAsync(s):
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait blocked with a frame pending")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestWaitBlocksUntilNotify(t *testing.T) {
	s := New(Abort)
	done := waitAsync(s)

	select {
	case <-done:
		t.Fatal("Wait returned without a signal")
	case <-time.After(50 * time.Millisecond):
	}

	s.Notify()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Notify")
	}
}

func TestWakeReleasesWaitWithoutFrame(t *testing.T) {
	s := New(Abort)
	done := waitAsync(s)

	time.Sleep(10 * time.Millisecond)
	s.Wake()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Wake")
	}

	st := s.Stats()
	assert.Equal(t, uint64(0), st.Waits, "wake must not count as a consumed frame")
	assert.Equal(t, uint64(1), st.Wakes)
}

func TestWakeWithPendingFrameIsNotViolation(t *testing.T) {
	s := New(Abort)
	s.Notify()
	s.Wake()

	assert.NotPanics(t, func() {
		require.NoError(t, s.Wait())
	})
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, uint64(0), s.Stats().Violations)
}

func TestDoublePendingAborts(t *testing.T) {
	s := New(Abort)
	s.Notify()
	s.Notify()

	defer func() {
		r := recover()
		require.NotNil(t, r, "Wait should panic on a double-pending frame")
		err, ok := r.(error)
		require.True(t, ok, "panic value %T is not an error", r)

		var v *ViolationError
		require.ErrorAs(t, err, &v)
		assert.Equal(t, 2, v.Pending)
		assert.ErrorIs(t, err, ErrDoublePending)
	}()
	_ = s.Wait()
}

func TestDoublePendingReports(t *testing.T) {
	s := New(Report)
	s.Notify()
	s.Notify()
	s.Notify()

	err := s.Wait()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDoublePending))

	var v *ViolationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, 3, v.Pending)

	assert.Equal(t, 0, s.Pending(), "report policy resets the slot")
	assert.Equal(t, uint64(1), s.Stats().Violations)

	// The slot is usable again afterwards.
	s.Notify()
	assert.NoError(t, s.Wait())
}

func TestPingPong(t *testing.T) {
	s := New(Abort)
	ack := make(chan struct{})
	const frames = 200

	go func() {
		for range frames {
			if err := s.Wait(); err != nil {
				t.Errorf("Wait() = %v", err)
			}
			ack <- struct{}{}
		}
	}()

	for range frames {
		s.Notify()
		select {
		case <-ack:
		case <-time.After(time.Second):
			t.Fatal("consumer stalled")
		}
	}

	st := s.Stats()
	assert.Equal(t, uint64(frames), st.Notifies)
	assert.Equal(t, uint64(frames), st.Waits)
	assert.Zero(t, st.Violations)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"abort", Abort, false},
		{"report", Report, false},
		{"ignore", Abort, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func BenchmarkSignal_NotifyWait(b *testing.B) {
	s := New(Abort)
	b.ReportAllocs()
	for b.Loop() {
		s.Notify()
		_ = s.Wait()
	}
}
