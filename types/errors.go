package types

import (
	"errors"
	"fmt"
)

// ErrNoScopeAvailable is returned when resolution is asked to default but no
// scope has ever been resolved in this session or persisted before it.
var ErrNoScopeAvailable = errors.New("no scope available: pass a subscription id or name")

// ScopeNotFoundError reports a friendly-name lookup that matched nothing.
type ScopeNotFoundError struct {
	Candidate string
}

func (e *ScopeNotFoundError) Error() string {
	return fmt.Sprintf("scope not found: %q", e.Candidate)
}

// InventoryFetchError wraps a failed remote enumeration. Transient: the
// caller may retry, and a still-valid cache entry keeps being served.
type InventoryFetchError struct {
	Scope string
	Err   error
}

func (e *InventoryFetchError) Error() string {
	return fmt.Sprintf("inventory fetch failed for scope %s: %v", e.Scope, e.Err)
}

func (e *InventoryFetchError) Unwrap() error { return e.Err }

// Partial enumeration failure is the one taxonomy member that is not an
// error value: when individual detail fetches fail during a batch
// operation, the batch still succeeds and carries a skipped-resource
// count instead (the SkippedResources fields on analysis results). Only a
// failed top-level enumeration escalates, as InventoryFetchError.

// ValidationError reports malformed caller input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Error codes surfaced across the exposed boundary.
const (
	CodeNoScopeAvailable     = "no_scope_available"
	CodeScopeNotFound        = "scope_not_found"
	CodeInventoryFetchFailed = "inventory_fetch_failed"
	CodeValidationError      = "validation_error"
	CodeInternal             = "internal_error"
)

// ErrorCode maps an error from this subsystem to its boundary code.
func ErrorCode(err error) string {
	var scopeNotFound *ScopeNotFoundError
	var fetchFailed *InventoryFetchError
	var validation *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoScopeAvailable):
		return CodeNoScopeAvailable
	case errors.As(err, &scopeNotFound):
		return CodeScopeNotFound
	case errors.As(err, &fetchFailed):
		return CodeInventoryFetchFailed
	case errors.As(err, &validation):
		return CodeValidationError
	default:
		return CodeInternal
	}
}
