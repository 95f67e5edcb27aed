// SPDX-License-Identifier: MPL-2.0

// Package hook provides named, ordered, synchronous extension points.
package hook

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrHook is the sentinel wrapped by HookError.
var ErrHook = errors.New("hook callback failed")

const (
	// FailFast stops at the first failing callback.
	FailFast Policy = iota
	// CollectErrors runs every callback and joins their failures.
	CollectErrors
)

type (
	// Policy decides what Call does after a callback fails.
	Policy int

	// Tap is one subscribed callback.
	Tap[T any] struct {
		Label string
		Fn    func(T) error
	}

	// SyncHook invokes its taps in subscription order on the caller's
	// goroutine. Tap and Call may be used from different goroutines.
	SyncHook[T any] struct {
		name   string
		policy Policy

		mu   sync.RWMutex
		taps []Tap[T]
	}

	// HookError identifies the tap that failed.
	HookError struct {
		Hook  string
		Label string
		Cause error
	}
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case CollectErrors:
		return "collect-errors"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q: tap %q: %v", e.Hook, e.Label, e.Cause)
}

// Unwrap returns both ErrHook and the callback's error.
func (e *HookError) Unwrap() []error { return []error{ErrHook, e.Cause} }

// New creates an empty hook.
func New[T any](name string, policy Policy) *SyncHook[T] {
	return &SyncHook[T]{name: name, policy: policy}
}

// Name returns the hook name.
func (h *SyncHook[T]) Name() string { return h.name }

// Policy returns the failure policy.
func (h *SyncHook[T]) Policy() Policy { return h.policy }

// Tap subscribes fn under label. Taps run in the order they were added.
func (h *SyncHook[T]) Tap(label string, fn func(T) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(h.taps, Tap[T]{Label: label, Fn: fn})
}

// Call invokes every tap with arg. Callback return values other than errors
// are not aggregated.
func (h *SyncHook[T]) Call(arg T) error {
	h.mu.RLock()
	taps := slices.Clone(h.taps)
	h.mu.RUnlock()

	var errs []error
	for _, tap := range taps {
		if err := tap.Fn(arg); err != nil {
			herr := &HookError{Hook: h.name, Label: tap.Label, Cause: err}
			if h.policy == FailFast {
				return herr
			}
			errs = append(errs, herr)
		}
	}
	return errors.Join(errs...)
}

// Taps returns the subscribed labels in order.
func (h *SyncHook[T]) Taps() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	labels := make([]string, len(h.taps))
	for i, tap := range h.taps {
		labels[i] = tap.Label
	}
	return labels
}

// Clear removes every tap.
func (h *SyncHook[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = nil
}
