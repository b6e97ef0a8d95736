// Package host provides channel communication between netgate and the native
// shell that hosts the guarded page. It enables Go code to call host APIs
// (permission checks, page injection) and receive events from the shell
// (permission changes, page lifecycle).
package host

import (
	"encoding/json"
	"errors"
)

// MessageCodec encodes and decodes messages for host channel communication.
type MessageCodec interface {
	// Encode converts a Go value to bytes for transmission to the shell.
	Encode(value any) ([]byte, error)

	// Decode converts bytes received from the shell to a Go value.
	Decode(data []byte) (any, error)
}

// JsonCodec implements MessageCodec using JSON encoding.
// JSON prioritizes interoperability and minimal shell-side dependencies.
type JsonCodec struct{}

// Encode serializes the value to JSON bytes.
func (c JsonCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Decode deserializes JSON bytes to a Go value.
func (c JsonCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DefaultCodec is the codec used by host channels.
var DefaultCodec MessageCodec = JsonCodec{}

// Standard errors for host channel operations.
var (
	// ErrChannelNotFound indicates the requested host channel does not exist.
	ErrChannelNotFound = errors.New("host channel not found")

	// ErrMethodNotFound indicates the method is not implemented on the shell side.
	ErrMethodNotFound = errors.New("method not implemented")

	// ErrBridgeUnavailable indicates no bridge to the shell is connected, so
	// the host capability cannot be reached at all.
	ErrBridgeUnavailable = errors.New("host bridge unavailable")

	// ErrClosed is returned when operating on a closed bridge or stream.
	ErrClosed = errors.New("host: bridge closed")

	// ErrTimeout indicates the operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// ChannelError represents an error returned from the shell.
type ChannelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *ChannelError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// NewChannelError creates a new ChannelError with the given code and message.
func NewChannelError(code, message string) *ChannelError {
	return &ChannelError{Code: code, Message: message}
}
