package gelf

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New()

// DefaultPort is the conventional GELF UDP input port.
const DefaultPort = 12201

// Destination is the host and port of a GELF UDP input.
type Destination struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

// Validate returns ErrInvalidArgument if the host is missing or the port is
// out of range.
func (d Destination) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: destination %q: %v", ErrInvalidArgument, d.Addr(), err)
	}
	return nil
}

// Addr returns the address in the host:port form used by dialers.
func (d Destination) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

func (d Destination) String() string { return d.Addr() }

// DatagramSink puts datagrams on the wire. Implementations send each buffer
// as one datagram, in order, and report the first failure without retrying.
type DatagramSink interface {
	SendOne(datagram []byte, dst Destination) error
	SendMany(datagrams [][]byte, dst Destination) error
}

const defaultNetwork = "udp"

// UDPSink opens a socket for each call, writes the datagrams and closes it.
// The zero value is ready to use.
type UDPSink struct {
	// Network is "udp", "udp4" or "udp6". The default is "udp".
	Network string

	// DialTimeout bounds address resolution. Zero means no timeout.
	DialTimeout time.Duration
}

// SendOne sends one datagram to dst.
func (s *UDPSink) SendOne(datagram []byte, dst Destination) error {
	return s.SendMany([][]byte{datagram}, dst)
}

// SendMany sends the datagrams to dst over one socket, in order.
func (s *UDPSink) SendMany(datagrams [][]byte, dst Destination) error {
	network := s.Network
	if !validNetwork(network) {
		network = defaultNetwork
	}

	conn, err := net.DialTimeout(network, dst.Addr(), s.DialTimeout)
	if err != nil {
		return fmt.Errorf("failed to dial GELF input at %s over %s: %w", dst, network, err)
	}
	defer conn.Close()

	for i, d := range datagrams {
		if _, err := conn.Write(d); err != nil {
			return fmt.Errorf("failed to write datagram %d of %d to %s: %w", i+1, len(datagrams), dst, err)
		}
	}
	return nil
}

func validNetwork(n string) bool {
	return n == "udp" || n == "udp4" || n == "udp6"
}
