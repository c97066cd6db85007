package gelf

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/bitdabbler/backoff"
	"golang.org/x/time/rate"
)

type worker struct {
	*ClientOptions
	id   int
	conn net.Conn
	addr string
}

// Client is a DatagramSink that keeps a pool of connected UDP sockets to one
// GELF input, instead of opening a socket per send. Each socket is used by one
// send at a time; Concurrency sockets allow that many sends in flight.
//
// Sends are never retried. A failed write closes its socket and the error is
// returned; the next send on that socket dials again. Only dialing is retried,
// with exponential backoff.
type Client struct {
	opts    *ClientOptions
	dst     Destination
	workers []*worker
	idle    chan *worker
	limiter *rate.Limiter
	closed  atomic.Bool
}

// compile-time check for DatagramSink conformance
var _ DatagramSink = (*Client)(nil)

// NewClient creates a new Client and dials the GELF input immediately,
// returning an error if it is unable to set up the sockets.
func NewClient(dst Destination, opts *ClientOptions) (*Client, error) {
	return NewClientContext(context.Background(), dst, opts)
}

// NewClientContext creates a new Client and dials the GELF input immediately,
// returning an error if it is unable to set up the initial sockets. The
// Context can be used to cancel dialing, or set a global deadline for it.
func NewClientContext(ctx context.Context, dst Destination, opts *ClientOptions) (*Client, error) {

	c, err := newClient(dst, opts)
	if err != nil {
		return nil, err
	}

	if c.opts.SkipEagerDial {
		return c, nil
	}

	// eagerly set up the socket of each worker
	for i, w := range c.workers {
		if err = w.tryConnect(ctx, c.opts.MaxEagerDialTries); err != nil {
			// will drop the client, so eagerly close open conns
			for j := 0; j < i; j++ {
				c.workers[j].conn.Close()
			}
			return nil, err
		}
	}

	return c, nil
}

func newClient(dst Destination, opts *ClientOptions) (*Client, error) {

	if err := dst.Validate(); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = DefaultClientOptions()
	} else {
		opts.resolve()
	}

	c := &Client{
		opts:    opts,
		dst:     dst,
		workers: make([]*worker, opts.Concurrency),
		idle:    make(chan *worker, opts.Concurrency),
	}

	if opts.PacketsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.PacketsPerSecond), 1)
	}

	c.debug("starting Client with the resolved ClientOptions: %+v", c.opts)

	for i := 0; i < opts.Concurrency; i++ {
		c.workers[i] = &worker{
			ClientOptions: opts,
			id:            i + 1,
			addr:          dst.Addr(),
		}
		c.idle <- c.workers[i]
	}

	return c, nil
}

func (w *worker) tryConnect(ctx context.Context, maxAttempts int) error {
	w.debug("attempting to connect to GELF input")

	b, err := backoff.New(
		backoff.WithInitialDelay(0),
		backoff.WithExponentialLimit(time.Second*20),
	)
	if err != nil {
		return err
	}

	i := 0
	for {
		i++
		err = w.connect(ctx)
		if err == nil {
			w.debug("successfully connected to GELF input")
			return nil
		}

		w.debug("failed to connect to GELF input on attempt %d: %v", i, err)

		if ctx.Err() != nil || (maxAttempts > 0 && i >= maxAttempts) {
			break
		}

		b.Sleep()
	}

	return fmt.Errorf("failed to connect to GELF input; maxAttempts reached: %d: %w", maxAttempts, err)
}

func (w *worker) connect(ctx context.Context) error {

	var d net.Dialer
	ctx, cancel := context.WithTimeout(ctx, w.DialTimeout)
	defer cancel()

	w.debug("dialing GELF input at %s over %s", w.addr, w.Network)

	conn, err := d.DialContext(ctx, w.Network, w.addr)
	if err != nil {
		return fmt.Errorf("failed to dial GELF input at %s over %s: %w", w.addr, w.Network, err)
	}
	w.conn = conn

	return nil
}

// teardown closes a socket after a failed write.
func (w *worker) teardown() {
	if w.conn == nil {
		return
	}
	if err := w.conn.Close(); err != nil {
		w.reportError("error closing broken socket: %v", err)
	}
	w.conn = nil
}

// SendOne sends one datagram. dst must be the Client's destination.
func (c *Client) SendOne(datagram []byte, dst Destination) error {
	return c.SendMany([][]byte{datagram}, dst)
}

// SendMany sends the datagrams in order over one pooled socket. dst must be the
// Client's destination. SendMany blocks while every socket is busy.
func (c *Client) SendMany(datagrams [][]byte, dst Destination) error {
	if dst != c.dst {
		return fmt.Errorf("%w: client for %s cannot send to %s", ErrInvalidArgument, c.dst, dst)
	}
	if c.closed.Load() {
		return ErrClientClosed
	}

	w := <-c.idle
	defer func() { c.idle <- w }()

	// Close may have run while waiting for the socket
	if c.closed.Load() {
		return ErrClientClosed
	}

	if w.conn == nil {
		if err := w.tryConnect(context.Background(), w.MaxEagerDialTries); err != nil {
			return err
		}
	}

	for i, d := range datagrams {
		if c.limiter != nil {
			if err := c.limiter.Wait(context.Background()); err != nil {
				return fmt.Errorf("failed to pace datagram %d of %d: %w", i+1, len(datagrams), err)
			}
		}

		if w.WriteTimeout > 0 {
			w.conn.SetWriteDeadline(time.Now().Add(w.WriteTimeout))
		}

		if _, err := w.conn.Write(d); err != nil {
			w.debug("failed to write datagram %d of %d; tearing down socket: %v", i+1, len(datagrams), err)
			w.teardown()
			return fmt.Errorf("failed to write datagram %d of %d to %s: %w", i+1, len(datagrams), c.dst, err)
		}
	}

	return nil
}

// Destination returns the GELF input the Client sends to.
func (c *Client) Destination() Destination { return c.dst }

// Close closes every pooled socket, waiting for in-flight sends to finish.
// Sends after Close return ErrClientClosed. Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.debug("closing pooled sockets")

	// take every worker out of the pool, so no send holds a socket
	var err error
	for range c.workers {
		w := <-c.idle
		if w.conn != nil {
			err = errors.Join(err, w.conn.Close())
			w.conn = nil
		}
	}

	// put them back so blocked senders wake up and see the closed flag
	for _, w := range c.workers {
		c.idle <- w
	}

	return err
}

// internal logging helpers:
func (c *Client) debug(format string, args ...any) {
	debugf(c.opts.Verbose, format, args...)
}

func (w *worker) debug(format string, args ...any) {
	if !w.Verbose {
		return
	}
	InternalLogger().Debug().Int("worker", w.id).Msgf(format, args...)
}

func (w *worker) reportError(format string, args ...any) {
	InternalLogger().Error().Int("worker", w.id).Msgf(format, args...)
}
