package wire

import (
	"testing"
	"time"
)

func TestRequestRoundTrip(t *testing.T) {
	payload, err := MarshalPayload(&ReadPayload{
		NodeIDs: []string{"ns=2;s=Temperature", "ns=2;i=1001"},
	})
	if err != nil {
		t.Fatalf("MarshalPayload failed: %v", err)
	}

	data, err := EncodeRequest(&Request{
		MessageID: 42,
		Operation: OpRead,
		Payload:   payload,
	})
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if got.MessageID != 42 {
		t.Errorf("MessageID = %d, want 42", got.MessageID)
	}
	if got.Operation != OpRead {
		t.Errorf("Operation = %v, want Read", got.Operation)
	}

	var rp ReadPayload
	if err := UnmarshalPayload(got.Payload, &rp); err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}
	if len(rp.NodeIDs) != 2 || rp.NodeIDs[0] != "ns=2;s=Temperature" {
		t.Errorf("unexpected node IDs: %v", rp.NodeIDs)
	}
}

func TestRequestValidation(t *testing.T) {
	t.Run("zero message id", func(t *testing.T) {
		_, err := EncodeRequest(&Request{MessageID: 0, Operation: OpRead})
		if err == nil {
			t.Error("expected error for zero message id")
		}
	})

	t.Run("invalid operation", func(t *testing.T) {
		_, err := EncodeRequest(&Request{MessageID: 1, Operation: Operation(99)})
		if err == nil {
			t.Error("expected error for invalid operation")
		}
	})
}

func TestResponseRoundTrip(t *testing.T) {
	now := time.Now().UnixNano()
	payload, err := MarshalPayload(&ReadResult{
		Results: []NodeValue{
			{NodeID: "ns=2;s=Temperature", Found: true, Value: 21.5, Timestamp: now},
			{NodeID: "ns=2;s=Missing", Found: false},
		},
	})
	if err != nil {
		t.Fatalf("MarshalPayload failed: %v", err)
	}

	data, err := EncodeResponse(&Response{MessageID: 42, Status: StatusSuccess, Payload: payload})
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}

	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if !got.IsSuccess() {
		t.Errorf("Status = %v, want SUCCESS", got.Status)
	}

	var result ReadResult
	if err := UnmarshalPayload(got.Payload, &result); err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(result.Results))
	}
	if v, ok := result.Results[0].Value.(float64); !ok || v != 21.5 {
		t.Errorf("value = %v (%T), want 21.5", result.Results[0].Value, result.Results[0].Value)
	}
	if result.Results[0].Timestamp != now {
		t.Errorf("timestamp = %d, want %d", result.Results[0].Timestamp, now)
	}
	if result.Results[1].Found {
		t.Error("missing node reported as found")
	}
}

func TestErrorResponseHasNoPayload(t *testing.T) {
	data, err := EncodeResponse(&Response{MessageID: 7, Status: StatusUnknownNode})
	if err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if got.Status != StatusUnknownNode {
		t.Errorf("Status = %v, want UNKNOWN_NODE", got.Status)
	}
	if len(got.Payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(got.Payload))
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	data, err := EncodeNotification(&Notification{
		SubscriptionID: 3,
		Changes: []NodeValue{
			{NodeID: "ns=2;s=Level", Found: true, Value: int64(4), Timestamp: 1700000000},
		},
	})
	if err != nil {
		t.Fatalf("EncodeNotification failed: %v", err)
	}

	got, err := DecodeNotification(data)
	if err != nil {
		t.Fatalf("DecodeNotification failed: %v", err)
	}
	if got.SubscriptionID != 3 {
		t.Errorf("SubscriptionID = %d, want 3", got.SubscriptionID)
	}
	if len(got.Changes) != 1 || got.Changes[0].NodeID != "ns=2;s=Level" {
		t.Errorf("unexpected changes: %+v", got.Changes)
	}
}

func TestControlRoundTrip(t *testing.T) {
	data, err := EncodeControl(&Control{Type: ControlPing, Sequence: 9})
	if err != nil {
		t.Fatalf("EncodeControl failed: %v", err)
	}
	got, err := DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl failed: %v", err)
	}
	if got.Type != ControlPing || got.Sequence != 9 {
		t.Errorf("got %+v", got)
	}
}

func TestPeekKind(t *testing.T) {
	reqData, _ := EncodeRequest(&Request{MessageID: 1, Operation: OpBrowse})
	respData, _ := EncodeResponse(&Response{MessageID: 1, Status: StatusSuccess})
	notifData, _ := EncodeNotification(&Notification{SubscriptionID: 1})
	ctrlData, _ := EncodeControl(&Control{Type: ControlPong, Sequence: 1})

	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"request", reqData, KindRequest},
		{"response", respData, KindResponse},
		{"notification", notifData, KindNotification},
		{"control", ctrlData, KindControl},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeekKind(tt.data)
			if err != nil {
				t.Fatalf("PeekKind failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("kind = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("garbage", func(t *testing.T) {
		if _, err := PeekKind([]byte{0xff, 0x00}); err == nil {
			t.Error("expected error for garbage input")
		}
	})
}

func TestKindAndStatusStrings(t *testing.T) {
	if KindRequest.String() != "Request" || Kind(9).String() != "Unknown" {
		t.Error("unexpected kind names")
	}
	if StatusTypeMismatch.String() != "TYPE_MISMATCH" || Status(99).String() != "UNKNOWN" {
		t.Error("unexpected status names")
	}
	if OpUnsubscribe.String() != "Unsubscribe" || Operation(0).IsValid() {
		t.Error("unexpected operation behavior")
	}
}

func TestDeterministicEncoding(t *testing.T) {
	req := &Request{MessageID: 5, Operation: OpBrowse}
	a, err := EncodeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding is not deterministic")
	}
}
