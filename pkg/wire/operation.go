package wire

// Operation is a request operation code.
type Operation uint8

const (
	// OpBrowse lists the nodes the server exposes.
	OpBrowse Operation = 1

	// OpRead gets the current values of a set of nodes.
	OpRead Operation = 2

	// OpWrite sets the value of a single node.
	OpWrite Operation = 3

	// OpSubscribe registers for change notifications on a set of nodes.
	OpSubscribe Operation = 4

	// OpUnsubscribe cancels a subscription.
	OpUnsubscribe Operation = 5
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpBrowse:
		return "Browse"
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	case OpSubscribe:
		return "Subscribe"
	case OpUnsubscribe:
		return "Unsubscribe"
	default:
		return "Unknown"
	}
}

// IsValid reports whether o is a defined operation code.
func (o Operation) IsValid() bool {
	return o >= OpBrowse && o <= OpUnsubscribe
}
