package wire

// Status is a response status code.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusUnknownNode indicates the addressed node does not exist.
	StatusUnknownNode Status = 1

	// StatusTypeMismatch indicates a written value does not match the
	// node's declared type.
	StatusTypeMismatch Status = 2

	// StatusInvalidOperation indicates an unknown operation code.
	StatusInvalidOperation Status = 3

	// StatusInvalidPayload indicates the payload could not be decoded
	// or failed validation.
	StatusInvalidPayload Status = 4

	// StatusInternal indicates an unexpected server-side failure.
	StatusInternal Status = 5

	// StatusShuttingDown indicates the server is stopping and no
	// longer accepts the operation.
	StatusShuttingDown Status = 6
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusUnknownNode:
		return "UNKNOWN_NODE"
	case StatusTypeMismatch:
		return "TYPE_MISMATCH"
	case StatusInvalidOperation:
		return "INVALID_OPERATION"
	case StatusInvalidPayload:
		return "INVALID_PAYLOAD"
	case StatusInternal:
		return "INTERNAL"
	case StatusShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess reports whether s is the success status.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
