// Package errors provides structured error handling for netgate.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindBridge indicates a host bridge or channel error.
	KindBridge
	// KindParsing indicates a payload parsing failure.
	KindParsing
	// KindPermission indicates a permission oracle failure.
	KindPermission
	// KindPage indicates a page injection failure.
	KindPage
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindBridge:
		return "bridge"
	case KindParsing:
		return "parsing"
	case KindPermission:
		return "permission"
	case KindPage:
		return "page"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// GateError represents a structured error in netgate.
type GateError struct {
	// Op is the operation that failed (e.g., "permission.query").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Channel is the host channel name, if applicable.
	Channel string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *GateError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("%s [%s] channel=%s: %v", e.Op, e.Kind, e.Channel, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *GateError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "probe.provoke").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ParseError represents a failure to parse payload data.
type ParseError struct {
	// Channel is the host channel that produced the payload.
	Channel string
	// DataType is the expected type name.
	DataType string
	// Got is the actual data received.
	Got any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from channel %s: got %T", e.DataType, e.Channel, e.Got)
}

// ErrorHandler receives errors reported by netgate.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *GateError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
