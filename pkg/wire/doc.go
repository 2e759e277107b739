// Package wire defines the CBOR message format spoken between the
// simulator server and its clients.
//
// Every message is a CBOR map with integer keys. Key 1 always carries
// the message kind, so a receiver can classify a frame without
// guessing from its remaining shape:
//
//	1=request  2=response  3=notification  4=control
//
// Requests carry an operation code and an operation-specific payload;
// responses echo the request's message ID and carry a status code.
// Notifications are unsolicited subscription reports. Control messages
// implement keep-alive pings and the close handshake.
//
// Payloads are kept as raw CBOR inside the envelope and decoded into
// their typed form by the handler that knows the operation, so adding
// payload fields never breaks envelope decoding.
package wire
