// Package transport provides the TCP transport the simulator's wire
// protocol runs over.
//
// Messages are CBOR payloads framed with a 4-byte big-endian length
// prefix. The Server accepts connections and delivers complete frames
// through callbacks; control frames (ping, pong, close) are answered
// at this layer so higher layers only see requests. The Client side
// exposes a connection with synchronous Send/Receive plus a KeepAlive
// helper that detects dead peers through periodic pings.
//
// The transport is plaintext. The simulator targets closed lab and
// plant-floor networks where the endpoint decides reachability.
package transport
