package gelf

import "errors"

var (
	// ErrEmptyMessage is returned by Encoder.Encode when the event has no
	// message text. It is not a failure: callers skip the event and send
	// nothing.
	ErrEmptyMessage = errors.New("log event has no message")

	// ErrNoLocalAddress is returned when no local IPv4 address can be
	// resolved, so no message id can be built for a chunked message.
	ErrNoLocalAddress = errors.New("local IPv4 address unavailable")

	// ErrTooManyChunks is returned by Chunker.Split when the compressed
	// payload would need more than MaxChunkCount chunks. Transport drops such
	// messages without returning an error.
	ErrTooManyChunks = errors.New("compressed message exceeds the maximum chunk count")

	// ErrInvalidArgument is returned when a required input is missing or
	// malformed, before any work is done.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClientClosed is returned by Client sends after Close.
	ErrClientClosed = errors.New("client is closed")
)
