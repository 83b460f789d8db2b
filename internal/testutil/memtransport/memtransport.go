package memtransport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sambigeara/enginectl/pkg/transport"
)

const (
	defaultQueueSize = 256
	firstEphemeral   = 40000
)

var (
	ErrUnknownDestination = errors.New("destination not bound")
	ErrQueueFull          = errors.New("receive queue full")
)

var _ transport.Binder = (*Network)(nil)

// Network is an in-process stand-in for TCP and UDP. Addresses are plain
// "host:port" strings; port 0 allocates an ephemeral port per host.
type Network struct {
	endpoints map[string]*endpoint
	nextPort  map[string]int
	mu        sync.RWMutex
}

type endpoint struct {
	recvCh    chan transport.Packet
	addr      string
	mu        sync.RWMutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func NewNetwork() *Network {
	return &Network{
		endpoints: make(map[string]*endpoint),
		nextPort:  make(map[string]int),
	}
}

func (n *Network) bindEndpoint(addr string) (*endpoint, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", addr, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if port == "0" || port == "" {
		next := n.nextPort[host]
		if next == 0 {
			next = firstEphemeral
		}
		for {
			candidate := net.JoinHostPort(host, strconv.Itoa(next))
			next++
			if ep, ok := n.endpoints[candidate]; !ok || ep.closed.Load() {
				addr = candidate
				break
			}
		}
		n.nextPort[host] = next
	}

	if ep, ok := n.endpoints[addr]; ok && !ep.closed.Load() {
		return nil, fmt.Errorf("address already bound: %s", addr)
	}

	ep := &endpoint{
		addr:   addr,
		recvCh: make(chan transport.Packet, defaultQueueSize),
	}
	n.endpoints[addr] = ep

	return ep, nil
}

func (n *Network) lookup(addr string) (*endpoint, bool) {
	n.mu.RLock()
	ep, ok := n.endpoints[addr]
	n.mu.RUnlock()
	if !ok || ep.closed.Load() {
		return nil, false
	}
	return ep, true
}

func (n *Network) unbind(ep *endpoint) {
	if ep == nil {
		return
	}
	addr := ep.addr
	n.mu.Lock()
	if curr, ok := n.endpoints[addr]; ok && curr == ep {
		delete(n.endpoints, addr)
	}
	n.mu.Unlock()
}

func (n *Network) send(src string, dst string, b []byte) error {
	dest, ok := n.lookup(dst)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDestination, dst)
	}

	dest.mu.RLock()
	defer dest.mu.RUnlock()
	if dest.closed.Load() {
		return transport.ErrClosed
	}

	payload := make([]byte, len(b))
	copy(payload, b)

	select {
	case dest.recvCh <- transport.Packet{Src: src, Payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *endpoint) close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed.Store(true)
		close(e.recvCh)
		e.mu.Unlock()
	})
}

// memEndpoint implements transport.Endpoint
type memEndpoint struct {
	net *Network
	ep  *endpoint
}

var _ transport.Endpoint = (*memEndpoint)(nil)

func (n *Network) Bind(network transport.Network, addr string) (transport.Endpoint, error) {
	ep, err := n.bindEndpoint(addr)
	if err != nil {
		return nil, err
	}
	return &memEndpoint{net: n, ep: ep}, nil
}

func (t *memEndpoint) Packets() <-chan transport.Packet { return t.ep.recvCh }

func (t *memEndpoint) Send(dst string, b []byte) error {
	if t.ep.closed.Load() {
		return transport.ErrClosed
	}
	return t.net.send(t.ep.addr, dst, b)
}

func (t *memEndpoint) Addr() string { return t.ep.addr }

func (t *memEndpoint) Close() error {
	if t.ep == nil || t.ep.closed.Load() {
		return nil
	}
	t.ep.close()
	t.net.unbind(t.ep)
	return nil
}
