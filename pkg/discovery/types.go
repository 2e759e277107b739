package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the mDNS service type advertised by simulator servers.
	ServiceType = "_plantsim._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// TXT record key constants.
const (
	TXTKeyProtocol  = "proto" // Protocol adapter name (uaspace, modbus, mqtt)
	TXTKeyNamespace = "ns"    // Address space namespace URI
	TXTKeyNodeCount = "nc"    // Node count (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Discovery errors.
var (
	ErrMissingRequired  = errors.New("missing required field")
	ErrInvalidTXTRecord = errors.New("invalid TXT record format")
	ErrNotFound         = errors.New("service not found")
)

// ServerInfo describes a simulator server for advertising.
type ServerInfo struct {
	// ServerName is the instance name to advertise.
	ServerName string

	// Protocol is the protocol adapter name (e.g. "uaspace").
	Protocol string

	// NamespaceURI is the address space namespace URI.
	NamespaceURI string

	// NodeCount is the number of nodes in the address space.
	NodeCount int

	// Port is the service port.
	Port uint16
}

// Validate checks if the ServerInfo is complete enough to advertise.
func (i *ServerInfo) Validate() error {
	if i.ServerName == "" {
		return ErrMissingRequired
	}
	if i.Protocol == "" {
		return ErrMissingRequired
	}
	if i.NamespaceURI == "" {
		return ErrMissingRequired
	}
	return nil
}

// Service represents a simulator server found via mDNS.
type Service struct {
	// InstanceName is the mDNS instance name (the server name).
	InstanceName string

	// Host is the hostname (e.g. "plant-sim.local").
	Host string

	// Port is the service port.
	Port uint16

	// Addresses contains resolved IP addresses.
	Addresses []string

	// Protocol is the protocol adapter name (from TXT "proto").
	Protocol string

	// NamespaceURI is the namespace URI (from TXT "ns").
	NamespaceURI string

	// NodeCount is the optional node count (from TXT "nc").
	NodeCount int
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       DefaultTTL,
	}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}
