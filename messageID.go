package gelf

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"time"
)

// MessageID correlates all chunks of one chunked message.
type MessageID [8]byte

func (id MessageID) String() string { return hex.EncodeToString(id[:]) }

// MessageIDGenerator derives the id shared by the chunks of one message.
type MessageIDGenerator interface {
	Generate(compressed []byte) (MessageID, error)
}

// IDGenerator builds MessageIDs from the local address, the clock and the
// payload, packed most significant bit first into a big-endian uint64:
//
//	+--------+--------+--------+----------------------------------------+
//	| bits   | 63..56 | 55..48 | 47..42 |             41..0             |
//	+--------+--------+--------+--------+-------------------------------+
//	| source | IPv4 3 | IPv4 4 | second | first 42 bits of MD5(payload) |
//	+--------+--------+--------+--------+-------------------------------+
//
// The scheme keeps collisions between concurrent senders unlikely; it is not a
// security primitive. The local address is resolved on every call.
type IDGenerator struct {
	// LocalAddr returns the local IPv4 address. The default resolves the
	// host name and takes its first IPv4 address.
	LocalAddr func() (net.IP, error)

	// Now returns the current wall-clock time. The default is time.Now.
	Now func() time.Time
}

// Generate returns the id for a compressed payload, or ErrNoLocalAddress.
func (g *IDGenerator) Generate(compressed []byte) (MessageID, error) {
	var id MessageID

	lookup := g.LocalAddr
	if lookup == nil {
		lookup = lookupLocalIPv4
	}
	ip, err := lookup()
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrNoLocalAddress, err)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return id, fmt.Errorf("%w: %s is not an IPv4 address", ErrNoLocalAddress, ip)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	second := uint64(now().Second()) & 0x3f

	sum := md5.Sum(compressed)
	hash42 := binary.BigEndian.Uint64(sum[:8]) >> 22

	v := uint64(ip4[2])<<56 | uint64(ip4[3])<<48 | second<<42 | hash42
	binary.BigEndian.PutUint64(id[:], v)
	return id, nil
}

// lookupLocalIPv4 resolves the host name and returns its first IPv4 address.
func lookupLocalIPv4() (net.IP, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read host name: %w", err)
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve host name %q: %w", host, err)
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("host name %q has no IPv4 address", host)
}
