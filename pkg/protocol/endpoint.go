package protocol

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Endpoint is a parsed adapter endpoint of the form
// scheme://host:port[/path].
type Endpoint struct {
	// Scheme selects the protocol family ("opc.tcp", "modbus-tcp",
	// "mqtt").
	Scheme string

	// Host is the host or interface address. Empty means all
	// interfaces on the server side.
	Host string

	// Port is the numeric port. Zero when the endpoint names none.
	Port int

	// Path is the trailing path without the leading slash, if any.
	Path string
}

// Addr returns the host:port form used for dialing and listening.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, fmt.Sprintf("%d", e.Port))
}

// ParseEndpoint parses an endpoint URL. Errors wrap
// ErrEndpointInvalid.
func ParseEndpoint(endpoint string) (Endpoint, error) {
	if endpoint == "" {
		return Endpoint{}, fmt.Errorf("%w: empty endpoint", ErrEndpointInvalid)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %v", ErrEndpointInvalid, endpoint, err)
	}
	if u.Scheme == "" {
		return Endpoint{}, fmt.Errorf("%w: %q: missing scheme", ErrEndpointInvalid, endpoint)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: %q: missing host", ErrEndpointInvalid, endpoint)
	}

	parsed := Endpoint{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Path:   strings.TrimPrefix(u.Path, "/"),
	}

	if portStr := u.Port(); portStr != "" {
		// url.Parse already validated the digits.
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil || port < 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("%w: %q: bad port", ErrEndpointInvalid, endpoint)
		}
		parsed.Port = port
	}

	return parsed, nil
}
