package connector

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrRecordNotFound indicates the remote record does not exist. Fatal for
	// the record's own job, harmless for its siblings.
	ErrRecordNotFound = errors.New("connector: remote record not found")

	// ErrBindingNotFound indicates a binding lookup by binding ID found
	// nothing. Reverse lookups by external ID never return this; absence is a
	// valid result there.
	ErrBindingNotFound = errors.New("connector: binding not found")

	// ErrMultipleBindings indicates more than one binding exists for the same
	// internal record within one backend scope.
	ErrMultipleBindings = errors.New("connector: multiple bindings for internal record")

	// ErrModelNotSupported indicates a binder or adapter was asked about a
	// model outside its declared set. This is a wiring bug, not runtime state.
	ErrModelNotSupported = errors.New("connector: model not supported")

	// ErrBackendNotFound indicates the referenced backend configuration
	// does not exist.
	ErrBackendNotFound = errors.New("connector: backend not found")
)

// ---------------------------------------------------------------------------
// Typed outcome errors
// ---------------------------------------------------------------------------

// RetryError signals a retryable deferral: a business precondition is not yet
// met (for example an unpaid order) and the job must be rescheduled with a
// delay. It is not a failure and must not count against the permanent-failure
// budget the way transport errors do.
type RetryError struct {
	Reason string
	// After is a hint for the scheduler's backoff. Zero means "use the
	// queue's default backoff".
	After time.Duration
}

func (e *RetryError) Error() string {
	return "connector: retry later: " + e.Reason
}

// NewRetryError creates a RetryError with the default backoff hint.
func NewRetryError(format string, args ...any) *RetryError {
	return &RetryError{Reason: fmt.Sprintf(format, args...)}
}

// IsRetry reports whether err is (or wraps) a RetryError.
func IsRetry(err error) bool {
	var re *RetryError
	return errors.As(err, &re)
}

// SkipError signals a permanent, intentional no-op: the record must not be
// imported, now or later. It is a successful outcome at the job level.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "connector: nothing to do: " + e.Reason
}

// NewSkipError creates a SkipError.
func NewSkipError(format string, args ...any) *SkipError {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err is (or wraps) a SkipError.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}

// ConfigurationError signals an operator-fixable configuration problem, such
// as an unmapped payment mode. It is fatal to the affected job only and must
// carry remediation text.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "connector: configuration error: " + e.Message
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// TransportError wraps a failed remote call. It propagates to the job
// scheduler, which applies its generic retry policy.
type TransportError struct {
	Op         string
	Resource   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("connector: %s %s: status %d", e.Op, e.Resource, e.StatusCode)
	}
	return fmt.Sprintf("connector: %s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MissingFieldError indicates an expected field was absent from an external
// record. External records are schema-less; accessors fail loudly instead of
// silently returning zero values.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "connector: missing field " + e.Field
}

// IsMissingField reports whether err is (or wraps) a MissingFieldError.
func IsMissingField(err error) bool {
	var me *MissingFieldError
	return errors.As(err, &me)
}
