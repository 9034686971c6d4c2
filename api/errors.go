// Package api
// Author: momentics <momentics@gmail.com>
//
// Sentinel errors and the coded error the HTTP layer turns into responses.

package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors used across the service.
var (
	ErrPeerClosed      = errors.New("peer closed the connection")
	ErrMessageTooBig   = errors.New("message exceeds read limit")
	ErrDraining        = errors.New("server is draining")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorCode classifies a request failure.
type ErrorCode int

const (
	ErrCodeInternal ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error attaches a code and request fields to a cause. The cause stays
// reachable through errors.Is.
type Error struct {
	Code   ErrorCode
	Err    error
	Fields map[string]any
}

// NewError wraps cause with code.
func NewError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

// With records a request field, e.g. the offending value.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// Error renders the cause followed by the fields in key order.
func (e *Error) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(msg)
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Fields[k])
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsPeerClosed reports an orderly close by the peer or end of stream.
func IsPeerClosed(err error) bool {
	return errors.Is(err, ErrPeerClosed)
}
