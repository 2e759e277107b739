package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Kind classifies a wire message. It is always encoded at CBOR key 1.
type Kind uint8

const (
	// KindRequest is a client-to-server request.
	KindRequest Kind = 1

	// KindResponse answers a request, echoing its message ID.
	KindResponse Kind = 2

	// KindNotification is an unsolicited subscription report.
	KindNotification Kind = 3

	// KindControl is a keep-alive or connection-control message.
	KindControl Kind = 4
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "Request"
	case KindResponse:
		return "Response"
	case KindNotification:
		return "Notification"
	case KindControl:
		return "Control"
	default:
		return "Unknown"
	}
}

// Request is a client request.
//
// CBOR encoding:
//
//	{
//	  1: kind,        // uint8: always 1
//	  2: messageId,   // uint32, nonzero
//	  3: operation,   // uint8
//	  4: payload      // operation-specific, raw CBOR
//	}
type Request struct {
	Kind      Kind            `cbor:"1,keyasint"`
	MessageID uint32          `cbor:"2,keyasint"`
	Operation Operation       `cbor:"3,keyasint"`
	Payload   cbor.RawMessage `cbor:"4,keyasint,omitempty"`
}

// Validate checks the request envelope.
func (r *Request) Validate() error {
	if r.Kind != KindRequest {
		return fmt.Errorf("request kind must be %d, got %d", KindRequest, r.Kind)
	}
	if r.MessageID == 0 {
		return fmt.Errorf("message id must be nonzero")
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %d", r.Operation)
	}
	return nil
}

// Response answers a request.
//
// CBOR encoding:
//
//	{
//	  1: kind,        // uint8: always 2
//	  2: messageId,   // uint32: matches the request
//	  3: status,      // uint8
//	  4: payload      // operation-specific result, raw CBOR
//	}
type Response struct {
	Kind      Kind            `cbor:"1,keyasint"`
	MessageID uint32          `cbor:"2,keyasint"`
	Status    Status          `cbor:"3,keyasint"`
	Payload   cbor.RawMessage `cbor:"4,keyasint,omitempty"`
}

// IsSuccess reports whether the response carries the success status.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Notification is an unsolicited subscription report.
//
// CBOR encoding:
//
//	{
//	  1: kind,            // uint8: always 3
//	  2: subscriptionId,  // uint32
//	  4: changes          // array of node values
//	}
type Notification struct {
	Kind           Kind        `cbor:"1,keyasint"`
	SubscriptionID uint32      `cbor:"2,keyasint"`
	Changes        []NodeValue `cbor:"4,keyasint"`
}

// ControlType selects the control message function.
type ControlType uint8

const (
	// ControlPing asks the peer to answer with a pong.
	ControlPing ControlType = 1

	// ControlPong answers a ping, echoing its sequence number.
	ControlPong ControlType = 2

	// ControlClose announces an orderly shutdown of the connection.
	ControlClose ControlType = 3
)

// Control is a keep-alive or connection-control message.
//
// CBOR encoding:
//
//	{
//	  1: kind,        // uint8: always 4
//	  2: controlType, // uint8
//	  3: sequence     // uint32 (ping/pong)
//	}
type Control struct {
	Kind     Kind        `cbor:"1,keyasint"`
	Type     ControlType `cbor:"2,keyasint"`
	Sequence uint32      `cbor:"3,keyasint,omitempty"`
}
