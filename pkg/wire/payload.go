package wire

// NodeInfo describes one node in a browse result.
type NodeInfo struct {
	NodeID string `cbor:"1,keyasint"`
	Name   string `cbor:"2,keyasint"`
	Type   string `cbor:"3,keyasint"`
}

// BrowseResult is the payload of a successful Browse response.
type BrowseResult struct {
	NamespaceURI string     `cbor:"1,keyasint,omitempty"`
	Nodes        []NodeInfo `cbor:"2,keyasint"`
}

// ReadPayload is the payload of a Read request. NodeIDs holds textual
// node identifiers in the order the results are wanted back.
type ReadPayload struct {
	NodeIDs []string `cbor:"1,keyasint"`
}

// NodeValue carries one node's value and its update timestamp. It is
// used both in read results and in notification change sets. Found is
// false when the node does not exist on the server, in which case
// Value and Timestamp are meaningless.
type NodeValue struct {
	NodeID    string `cbor:"1,keyasint"`
	Found     bool   `cbor:"2,keyasint"`
	Value     any    `cbor:"3,keyasint,omitempty"`
	Timestamp int64  `cbor:"4,keyasint,omitempty"` // unix nanoseconds
}

// ReadResult is the payload of a successful Read response. Results
// appear in request order, one entry per requested node.
type ReadResult struct {
	Results []NodeValue `cbor:"1,keyasint"`
}

// WritePayload is the payload of a Write request. A write addresses a
// single node.
type WritePayload struct {
	NodeID string `cbor:"1,keyasint"`
	Value  any    `cbor:"2,keyasint"`
}

// SubscribePayload is the payload of a Subscribe request. Interval is
// the requested publishing interval in milliseconds; zero lets the
// server choose.
type SubscribePayload struct {
	NodeIDs  []string `cbor:"1,keyasint"`
	Interval uint32   `cbor:"2,keyasint,omitempty"`
}

// SubscribeResult is the payload of a successful Subscribe response.
// Interval is the granted publishing interval in milliseconds.
type SubscribeResult struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
	Interval       uint32 `cbor:"2,keyasint"`
}

// UnsubscribePayload is the payload of an Unsubscribe request.
type UnsubscribePayload struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
}
