// Package errors provides custom error types for the store client.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies the failure so callers can decide how to react.
type Kind string

const (
	// KindObsoleteVersion means a write was rejected because the supplied
	// clock is not causally newer than the stored one. The caller must
	// re-read and retry with a fresh clock.
	KindObsoleteVersion Kind = "OBSOLETE_VERSION"

	// KindInconsistentData means unresolved concurrent versions were
	// observed that could not be reconciled.
	KindInconsistentData Kind = "INCONSISTENT_DATA"

	// KindConfiguration covers malformed or missing bootstrap metadata,
	// duplicate or missing partition ids, and unknown serializer names.
	KindConfiguration Kind = "CONFIGURATION"

	// KindProtocol covers malformed or unrecognized wire responses.
	KindProtocol Kind = "PROTOCOL"

	// KindCapacity means a vector clock entry-count bound was exceeded.
	KindCapacity Kind = "CAPACITY"

	// KindRange means a node id was outside the acceptable range.
	KindRange Kind = "RANGE"

	// KindNetwork covers connection and I/O failures. Unlike protocol
	// failures these are retryable: the request may never have reached
	// the server.
	KindNetwork Kind = "NETWORK"
)

// Operation represents the type of client operation
type Operation string

const (
	OpGet       Operation = "get"
	OpPut       Operation = "put"
	OpDelete    Operation = "delete"
	OpRoute     Operation = "route"
	OpBootstrap Operation = "bootstrap"
	OpEncode    Operation = "encode"
	OpDecode    Operation = "decode"
)

// StoreError represents an error that occurred during a store operation
type StoreError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "router", "transport")
	Component string

	// Kind of failure
	Kind Kind

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *StoreError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Kind != "" {
		msg += fmt.Sprintf(" [%s]", e.Kind)
	}

	return msg + fmt.Sprintf(": %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewObsoleteVersionError creates a StoreError carrying the server's
// rejection message for a stale write.
func NewObsoleteVersionError(op Operation, message string) *StoreError {
	return &StoreError{
		Kind:      KindObsoleteVersion,
		Op:        op,
		Component: "transport",
		Err:       errors.New(message),
	}
}

// NewInconsistentDataError creates a StoreError for unresolved concurrent versions
func NewInconsistentDataError(op Operation, cause error) *StoreError {
	return &StoreError{
		Kind: KindInconsistentData,
		Op:   op,
		Err:  cause,
	}
}

// NewConfigurationError creates a StoreError for bad cluster or store metadata
func NewConfigurationError(op Operation, cause error) *StoreError {
	return &StoreError{
		Kind: KindConfiguration,
		Op:   op,
		Err:  cause,
	}
}

// NewProtocolError creates a StoreError for a malformed wire response
func NewProtocolError(op Operation, cause error) *StoreError {
	return &StoreError{
		Kind:      KindProtocol,
		Op:        op,
		Component: "transport",
		Err:       cause,
	}
}

// NewCapacityError creates a StoreError for a full vector clock
func NewCapacityError(op Operation, cause error) *StoreError {
	return &StoreError{
		Kind:      KindCapacity,
		Op:        op,
		Component: "version",
		Err:       cause,
	}
}

// NewRangeError creates a StoreError for an out-of-range node id
func NewRangeError(op Operation, cause error) *StoreError {
	return &StoreError{
		Kind:      KindRange,
		Op:        op,
		Component: "version",
		Err:       cause,
	}
}

// NewNetworkError creates a new retryable network-related StoreError
func NewNetworkError(op Operation, cause error) *StoreError {
	return &StoreError{
		Kind:      KindNetwork,
		Op:        op,
		Component: "transport",
		Err:       cause,
		Retryable: true,
	}
}

// New creates a new StoreError
func New(op Operation, err error) *StoreError {
	return &StoreError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new StoreError with component information
func NewWithComponent(op Operation, component string, err error) *StoreError {
	return &StoreError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// IsRetryable checks if an error is a retryable StoreError
func IsRetryable(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Retryable
	}
	return false
}

// IsKind reports whether err is a StoreError of the given kind.
func IsKind(err error, kind Kind) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind == kind
	}
	return false
}

// IsObsoleteVersion reports whether err is a stale-write rejection.
func IsObsoleteVersion(err error) bool {
	return IsKind(err, KindObsoleteVersion)
}

// IsInconsistentData reports whether err is an unresolved-versions failure.
func IsInconsistentData(err error) bool {
	return IsKind(err, KindInconsistentData)
}

// IsConfiguration reports whether err is a metadata/configuration failure.
func IsConfiguration(err error) bool {
	return IsKind(err, KindConfiguration)
}

// IsProtocol reports whether err is a wire-decoding failure.
func IsProtocol(err error) bool {
	return IsKind(err, KindProtocol)
}

// IsNetwork reports whether err is a connection or I/O failure.
func IsNetwork(err error) bool {
	return IsKind(err, KindNetwork)
}
