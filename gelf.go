/*
Package gelf provides a GELF (Graylog Extended Log Format) logging stack in
Go, including:

  - `gelf.Encoder` - turns a `LogEvent` into a GELF 1.1 `Message`, flattening
    properties, the error chain and ambient context into additional fields
  - `gelf.Transport` - compresses the serialized message and splits it into
    chunked GELF datagrams when it does not fit in one
  - `gelf.Client` - keeps a pool of connected UDP sockets to one GELF input
  - `gelf.Target` - ties the encoder and transport to one destination
  - `gelf.Handler` - adapts a `Target` to `slog.Handler`

Messages are sent over UDP only, so delivery is best effort. A message that
would need more than 128 chunks is dropped; the drop is counted by the
`gelf.messages.dropped` metric and reported to `TransportOptions.OnDrop`.
Every other failure is returned to the caller.

Examples of efficiency optimizations:

  - JSON payloads are appended straight into the caller's buffer
  - gzip and zlib writers are pooled and reset, not reallocated
  - all chunks of a message share one backing buffer
*/
package gelf
