// Package errors provides the error taxonomy for the resolution/caching core
// along with transient-retry support for the external fetch collaborator.
// The taxonomy separates caller-actionable resolution failures from expected
// structural outcomes (invalid windows, exceeded trials) and from silently
// degraded storage problems.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for handling decisions.
type Kind string

const (
	// KindResolution means no resolver strategy could produce a concrete
	// ticker or calendar for the request. Surfaced to the caller, never
	// retried through the trial ledger.
	KindResolution Kind = "resolution_failure"

	// KindInvalidWindow means the session expression resolved to a
	// boundary-less window (holiday, session not applicable). Rendered as an
	// empty result without consulting the trial ledger.
	KindInvalidWindow Kind = "invalid_window"

	// KindCacheCorrupt means a cache payload failed to deserialize. Treated
	// as a cache miss; never propagated as a hard error.
	KindCacheCorrupt Kind = "cache_corrupt"

	// KindTrialExceeded means the ledger threshold was reached and the fetch
	// was skipped. Expected, recoverable, logged at INFO.
	KindTrialExceeded Kind = "trial_exceeded"

	// KindStorageUnavailable means the cache/ledger root is inaccessible.
	// Cache and ledger operations degrade to no-ops.
	KindStorageUnavailable Kind = "storage_unavailable"

	// KindTransient marks upstream fetch failures worth retrying with
	// backoff (network, timeout, rate limit).
	KindTransient Kind = "transient"

	// KindUnknown is the fallback classification.
	KindUnknown Kind = "unknown"
)

// Error is a classified error with component and operation context.
type Error struct {
	Kind      Kind
	Component string
	Op        string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] %s", e.Component, e.Kind, e.Op)
	}
	return fmt.Sprintf("[%s/%s] %s: %v", e.Component, e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind when the target is also a classified *Error, otherwise
// defers to the wrapped chain.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Err, target)
}

// New creates a classified error.
func New(kind Kind, component, op string, err error) *Error {
	return &Error{Kind: kind, Component: component, Op: op, Err: err}
}

// Resolution creates a KindResolution error.
func Resolution(component, op string, err error) *Error {
	return New(KindResolution, component, op, err)
}

// ResolutionErrorf creates a KindResolution error from a format string.
func ResolutionErrorf(component, op, format string, args ...any) *Error {
	return New(KindResolution, component, op, fmt.Errorf(format, args...))
}

// InvalidWindow creates a KindInvalidWindow error.
func InvalidWindow(component, op string, err error) *Error {
	return New(KindInvalidWindow, component, op, err)
}

// CacheCorrupt creates a KindCacheCorrupt error.
func CacheCorrupt(component, op string, err error) *Error {
	return New(KindCacheCorrupt, component, op, err)
}

// TrialExceeded creates a KindTrialExceeded error.
func TrialExceeded(component, op string, err error) *Error {
	return New(KindTrialExceeded, component, op, err)
}

// StorageUnavailable creates a KindStorageUnavailable error.
func StorageUnavailable(component, op string, err error) *Error {
	return New(KindStorageUnavailable, component, op, err)
}

// Transient creates a KindTransient error.
func Transient(component, op string, err error) *Error {
	return New(KindTransient, component, op, err)
}

// KindOf extracts the Kind from a classified error chain, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsResolutionFailure reports whether the error chain carries KindResolution.
func IsResolutionFailure(err error) bool { return KindOf(err) == KindResolution }

// IsInvalidWindow reports whether the error chain carries KindInvalidWindow.
func IsInvalidWindow(err error) bool { return KindOf(err) == KindInvalidWindow }

// IsTransient reports whether the error chain carries KindTransient.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }
