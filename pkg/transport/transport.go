package transport

import (
	"errors"
	"fmt"
)

var (
	ErrClosed         = errors.New("endpoint closed")
	ErrUnknownNetwork = errors.New("unknown network")
)

const recvQueueSize = 1024

type Network string

const (
	NetworkTCP Network = "tcp"
	NetworkUDP Network = "udp"
)

// Packet is one whole OSC packet as received, before decoding.
type Packet struct {
	Src     string
	Payload []byte
}

// Endpoint is a bound local socket. Received packets are queued on Packets
// until drained; the channel is closed when the endpoint is closed.
type Endpoint interface {
	Packets() <-chan Packet
	Send(dst string, b []byte) error
	Addr() string // bound "host:port"
	Close() error
}

type Binder interface {
	Bind(network Network, addr string) (Endpoint, error)
}

// NetBinder binds real TCP and UDP sockets.
type NetBinder struct{}

func (NetBinder) Bind(network Network, addr string) (Endpoint, error) {
	switch network {
	case NetworkTCP:
		return ListenTCP(addr)
	case NetworkUDP:
		return ListenUDP(addr)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
}
