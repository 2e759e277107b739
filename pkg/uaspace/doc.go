// Package uaspace implements the reference protocol adapter pair: an
// address-space server and a polling client speaking the CBOR wire
// protocol from pkg/wire over the length-prefixed TCP transport.
//
// The server exposes a store's nodes for browsing, reading, writing
// and subscribing. Each client connection gets its own session with an
// independent subscription manager; store changes fan out to every
// session and are published on each subscription's own schedule. The
// server moves through an explicit lifecycle (stopped, starting,
// running, stopping, and faulted on unrecoverable transport errors)
// and every transition is logged.
//
// The client keeps one session, correlates responses to requests by
// message ID, and monitors the link with keep-alive pings. Poll reads
// all configured nodes in a single round trip; Subscribe switches to
// server-pushed reports.
package uaspace
