// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package window

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gpucontext"
)

// ErrNoSystem is returned when no window system is registered under a name.
var ErrNoSystem = errors.New("window: no window system registered")

// systems holds window system backends. Shared memory is preferred over
// plain heap buffers when both are linked in.
var systems = gpucontext.NewRegistry[System](
	gpucontext.WithPriority("shm", "heap"),
)

// Register adds a window system factory under name.
// Backends call this from init. Registering an existing name replaces it.
func Register(name string, factory func() System) {
	systems.Register(name, factory)
}

// Unregister removes the backend registered under name.
func Unregister(name string) {
	systems.Unregister(name)
}

// Open creates the window system registered under name.
func Open(name string) (System, error) {
	if !systems.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNoSystem, name)
	}
	return systems.Get(name), nil
}

// Default creates the highest priority registered window system and
// returns its name.
func Default() (System, string, error) {
	name := systems.BestName()
	if name == "" {
		return nil, "", ErrNoSystem
	}
	return systems.Get(name), name, nil
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	names := systems.Available()
	sort.Strings(names)
	return names
}
