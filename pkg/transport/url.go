package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	SchemeTCP = "osc.tcp"
	SchemeUDP = "osc.udp"
)

var ErrInvalidURL = errors.New("invalid engine url")

// URL is an OSC endpoint address of the form osc.tcp://host:port/Name. Name is
// the engine's registered name and prefixes plugin-scoped addresses.
type URL struct {
	Network Network
	Host    string
	Port    string
	Name    string
}

func ParseURL(raw string) (URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var network Network
	switch u.Scheme {
	case SchemeTCP:
		network = NetworkTCP
	case SchemeUDP:
		network = NetworkUDP
	default:
		return URL{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if port == "" || port == "0" {
		return URL{}, fmt.Errorf("%w: missing port in %q", ErrInvalidURL, raw)
	}

	return URL{
		Network: network,
		Host:    host,
		Port:    port,
		Name:    strings.Trim(u.Path, "/"),
	}, nil
}

func (u URL) Addr() string { return net.JoinHostPort(u.Host, u.Port) }

func (u URL) String() string {
	scheme := SchemeTCP
	if u.Network == NetworkUDP {
		scheme = SchemeUDP
	}
	return scheme + "://" + u.Addr() + "/" + u.Name
}

// SelfURL builds the address advertised to the engine for a bound endpoint.
// An unspecified bind host is replaced with advertiseHost.
func SelfURL(network Network, boundAddr, advertiseHost string) (URL, error) {
	host, port, err := net.SplitHostPort(boundAddr)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = advertiseHost
	}
	return URL{Network: network, Host: host, Port: port}, nil
}
