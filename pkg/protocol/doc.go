// Package protocol defines the abstraction layer every protocol adapter
// implements.
//
// An adapter pair consists of a ServerAdapter, which exposes the shared
// address space over one wire protocol, and a ClientAdapter, which
// connects to such a server and observes node values. The Registry maps a
// protocol name ("uaspace", "modbus", "mqtt") to its adapter factories so
// that commands and embedding applications stay protocol-agnostic: adding
// a protocol means adding one adapter pair and one registry entry.
package protocol
