package transport

import (
	"context"
	"errors"
	"net"
	"time"
)

const routeProbeTimeout = 2 * time.Second

// AdvertiseHost picks the local IP the engine should use to reach us: the
// source address the kernel routes toward engineHost, falling back to the
// first usable interface address.
func AdvertiseHost(ctx context.Context, engineHost string) (string, error) {
	if ip := net.ParseIP(engineHost); ip != nil && ip.IsLoopback() {
		return ip.String(), nil
	}
	if engineHost == "localhost" {
		return "127.0.0.1", nil
	}

	if ip, err := getPreferredOutboundIP(ctx, engineHost); err == nil {
		return ip.String(), nil
	}

	others, err := getOtherLocalIPs()
	if err != nil {
		return "", err
	}
	if len(others) == 0 {
		return "", errors.New("could not determine any advertisable IP addresses")
	}
	return others[0].String(), nil
}

// getPreferredOutboundIP determines the local IP used to route to target.
// This does not actually establish a connection.
func getPreferredOutboundIP(ctx context.Context, target string) (net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, routeProbeTimeout)
	defer cancel()

	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "udp", net.JoinHostPort(target, "9"))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, errors.New("unexpected local address type")
	}
	return localAddr.IP, nil
}

// getOtherLocalIPs iterates all network interfaces for valid addresses.
func getOtherLocalIPs() ([]net.IP, error) {
	var ips []net.IP
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, i := range interfaces {
		if i.Flags&net.FlagUp == 0 || i.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := i.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			if isValidIP(ip) {
				ips = append(ips, ip)
			}
		}
	}
	return ips, nil
}

// isValidIP filters out Loopback, Multicast, Unspecified, and Link-Local (fe80::) addresses.
func isValidIP(ip net.IP) bool {
	return ip != nil && !ip.IsLoopback() && !ip.IsMulticast() && !ip.IsUnspecified() && !ip.IsLinkLocalUnicast()
}
