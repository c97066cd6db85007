package gelf

import "time"

// ClientOptions are used to customize the pooled Client.
//
// # Invalid options are coerced
//
// NB: The struct pointer options approach is used to be consistent with the
// options used for the Handler, which uses the struct pointer approach to be
// consistent with the `HandlerOptions` used by log/slog.
type ClientOptions struct {

	// Network protocol used to reach the GELF input: "udp", "udp4" or
	// "udp6". The default is "udp".
	Network string

	// DialTimeout sets the timeout for dialing (resolving) the input. The
	// default is 30s.
	DialTimeout time.Duration

	// MaxEagerDialTries limits the number of times each socket is dialed
	// before the Client is returned from the constructor. It is not used if
	// `SkipEagerDial` is true. Lazy (re)dials made by a send use the same
	// limit. If the value is < 0, dialing is retried until it succeeds. The
	// default is 10.
	MaxEagerDialTries int

	// Concurrency is the number of sockets in the pool, and so the number of
	// sends that can be in flight at once. The default is 1.
	Concurrency int

	// WriteTimeout controls the deadline for each datagram write. If
	// WriteTimeout < 0, then no deadline will be set. The default is 10
	// seconds.
	WriteTimeout time.Duration

	// PacketsPerSecond paces datagram writes across the whole Client, which
	// keeps large chunk bursts from overrunning the receiver's socket buffer.
	// Zero or less disables pacing, which is the default.
	PacketsPerSecond float64

	// SkipEagerDial enables returning clients that dial lazily, on first use.
	SkipEagerDial bool

	// Verbose controls whether debug logs are written to the internal logger.
	Verbose bool
}

const (
	defaultDialTimeout    = time.Second * 30
	defaultEagerDialTries = 10
	defaultConcurrency    = 1
	defaultWriteTimeout   = time.Second * 10
)

// DefaultClientOptions returns *ClientOptions with all default values.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Network:           defaultNetwork,
		DialTimeout:       defaultDialTimeout,
		MaxEagerDialTries: defaultEagerDialTries,
		Concurrency:       defaultConcurrency,
		WriteTimeout:      defaultWriteTimeout,
	}
}

// resolve ensures that all options have valid values.
func (o *ClientOptions) resolve() {

	// only datagram networks
	if !validNetwork(o.Network) {
		o.Network = defaultNetwork
	}

	// must be positive
	if o.DialTimeout < 1 {
		o.DialTimeout = defaultDialTimeout
	}

	// can be negative (infinity) or positive, but not 0
	if o.MaxEagerDialTries == 0 {
		o.MaxEagerDialTries = defaultEagerDialTries
	}

	// must have at least one socket
	if o.Concurrency < 1 {
		o.Concurrency = defaultConcurrency
	}

	// can be negative (infinity) or positive, but not 0
	if o.WriteTimeout == 0 {
		o.WriteTimeout = defaultWriteTimeout
	}

	// negative is the same as disabled
	if o.PacketsPerSecond < 0 {
		o.PacketsPerSecond = 0
	}
}
