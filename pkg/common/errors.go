//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package common provides shared types and utilities used across the
// search engine packages.
//
// # Error Handling
//
// The [Error] type provides structured error information for upstream and
// indexing failures, including machine-readable reason codes suitable for
// retry decisions and audit records.
package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// ReasonCode classifies an error for programmatic handling.
type ReasonCode string

const (
	// ReasonAuth marks authentication or authorization failures against
	// the upstream API (HTTP 401/403).  Not retryable.
	ReasonAuth ReasonCode = "AUTH_ERROR"
	// ReasonRateLimit marks upstream throttling (HTTP 429).  Retryable
	// with backoff.
	ReasonRateLimit ReasonCode = "RATE_LIMIT"
	// ReasonUpstream marks any other upstream API failure.
	ReasonUpstream ReasonCode = "UPSTREAM_ERROR"
	// ReasonDecode marks malformed payloads, both from the upstream API
	// and from compiled index artifacts.
	ReasonDecode ReasonCode = "DECODE_ERROR"
	// ReasonNotFound marks lookups of entities that are not indexed.
	ReasonNotFound ReasonCode = "NOTFOUND_ERROR"
	// ReasonIO marks local filesystem failures.
	ReasonIO ReasonCode = "IO_ERROR"
)

// Error represents a classified failure.
//
// Error carries both a machine-readable reason code and a human-readable
// message, so callers can branch on the class of failure (retry on rate
// limiting, abort on auth) without parsing message text.
type Error struct {
	// ReasonCode is the machine-readable error classification.
	ReasonCode ReasonCode
	// Reason is a human-readable description of the error.
	Reason string
}

// Error implements the error interface, returning a formatted string
// containing both the reason message and the reason code.
func (e *Error) Error() string {
	return fmt.Sprintf("%s(code-%s)", e.Reason, e.ReasonCode)
}

// NewError creates a new [Error] with the specified reason code and message.
func NewError(code ReasonCode, msg string) *Error {
	return &Error{ReasonCode: code, Reason: msg}
}

// NewErrorf creates a new [Error] with a formatted message.
func NewErrorf(code ReasonCode, format string, args ...interface{}) *Error {
	return &Error{ReasonCode: code, Reason: fmt.Sprintf(format, args...)}
}

// HasReason reports whether err is (or wraps) an [Error] carrying the given
// reason code.
func HasReason(err error, code ReasonCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.ReasonCode == code
	}
	return false
}
