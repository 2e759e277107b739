package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for simulator messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for simulator messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient decoding for forward compatibility.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// MarshalPayload encodes a payload struct into the raw form carried by
// an envelope.
func MarshalPayload(v any) (cbor.RawMessage, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return cbor.RawMessage(data), nil
}

// UnmarshalPayload decodes an envelope's raw payload into a typed
// payload struct.
func UnmarshalPayload(raw cbor.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty payload")
	}
	if err := decMode.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

// PeekKind classifies an encoded message without fully decoding it.
func PeekKind(data []byte) (Kind, error) {
	var envelope struct {
		Kind Kind `cbor:"1,keyasint"`
	}
	if err := decMode.Unmarshal(data, &envelope); err != nil {
		return 0, fmt.Errorf("failed to decode envelope: %w", err)
	}
	switch envelope.Kind {
	case KindRequest, KindResponse, KindNotification, KindControl:
		return envelope.Kind, nil
	default:
		return 0, fmt.Errorf("unknown message kind: %d", envelope.Kind)
	}
}

// EncodeRequest encodes a request, filling in its kind tag.
func EncodeRequest(req *Request) ([]byte, error) {
	req.Kind = KindRequest
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(req)
}

// DecodeRequest decodes CBOR bytes into a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response, filling in its kind tag.
func EncodeResponse(resp *Response) ([]byte, error) {
	resp.Kind = KindResponse
	return Marshal(resp)
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Kind != KindResponse {
		return nil, fmt.Errorf("not a response: kind %d", resp.Kind)
	}
	return &resp, nil
}

// EncodeNotification encodes a notification, filling in its kind tag.
func EncodeNotification(notif *Notification) ([]byte, error) {
	notif.Kind = KindNotification
	return Marshal(notif)
}

// DecodeNotification decodes CBOR bytes into a notification message.
func DecodeNotification(data []byte) (*Notification, error) {
	var notif Notification
	if err := Unmarshal(data, &notif); err != nil {
		return nil, fmt.Errorf("failed to decode notification: %w", err)
	}
	if notif.Kind != KindNotification {
		return nil, fmt.Errorf("not a notification: kind %d", notif.Kind)
	}
	return &notif, nil
}

// EncodeControl encodes a control message, filling in its kind tag.
func EncodeControl(ctrl *Control) ([]byte, error) {
	ctrl.Kind = KindControl
	return Marshal(ctrl)
}

// DecodeControl decodes CBOR bytes into a control message.
func DecodeControl(data []byte) (*Control, error) {
	var ctrl Control
	if err := Unmarshal(data, &ctrl); err != nil {
		return nil, fmt.Errorf("failed to decode control message: %w", err)
	}
	if ctrl.Kind != KindControl {
		return nil, fmt.Errorf("not a control message: kind %d", ctrl.Kind)
	}
	return &ctrl, nil
}
