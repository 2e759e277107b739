package nodeid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the identifier forms a node ID can take.
type Kind uint8

const (
	// KindString is a string identifier ("ns=2;s=Temperature").
	KindString Kind = iota

	// KindNumeric is a numeric identifier ("ns=3;i=1001").
	KindNumeric

	// KindByteString is an opaque bytestring identifier ("ns=2;b=dGVtcA==").
	KindByteString
)

// String returns the kind's single-letter tag.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "s"
	case KindNumeric:
		return "i"
	case KindByteString:
		return "b"
	default:
		return "?"
	}
}

// Parse errors.
var (
	ErrInvalid = errors.New("invalid node identifier")
)

// ID is a namespace-qualified node identifier. The zero value is not a
// valid identifier. ID is comparable and usable as a map key.
type ID struct {
	// Namespace is the namespace index the identifier belongs to.
	Namespace uint16

	// Kind selects which identifier field is meaningful.
	Kind Kind

	// Text holds the identifier for KindString and KindByteString.
	Text string

	// Numeric holds the identifier for KindNumeric.
	Numeric uint32
}

// NewString returns a string-form ID in the given namespace.
func NewString(namespace uint16, text string) ID {
	return ID{Namespace: namespace, Kind: KindString, Text: text}
}

// NewNumeric returns a numeric-form ID in the given namespace.
func NewNumeric(namespace uint16, n uint32) ID {
	return ID{Namespace: namespace, Kind: KindNumeric, Numeric: n}
}

// Parse converts a textual identifier like "ns=2;s=Var1" into an ID.
// Quotes around a string identifier (`ns=2;s="Pressure"`) are tolerated
// and stripped. Unknown identifier tags fall back to the string form,
// matching how permissive industrial tooling treats them.
func Parse(s string) (ID, error) {
	parts := strings.SplitN(s, ";", 2)
	if len(parts) != 2 {
		return ID{}, fmt.Errorf("%w: %q: missing ';' separator", ErrInvalid, s)
	}

	nsPart, idPart := parts[0], parts[1]

	nsValue, ok := strings.CutPrefix(nsPart, "ns=")
	if !ok {
		return ID{}, fmt.Errorf("%w: %q: missing ns= prefix", ErrInvalid, s)
	}
	ns, err := strconv.ParseUint(nsValue, 10, 16)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: bad namespace index: %v", ErrInvalid, s, err)
	}

	tag, value, ok := strings.Cut(idPart, "=")
	if !ok || value == "" {
		return ID{}, fmt.Errorf("%w: %q: empty identifier", ErrInvalid, s)
	}

	switch tag {
	case "i":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return ID{}, fmt.Errorf("%w: %q: bad numeric identifier: %v", ErrInvalid, s, err)
		}
		return ID{Namespace: uint16(ns), Kind: KindNumeric, Numeric: uint32(n)}, nil
	case "b":
		return ID{Namespace: uint16(ns), Kind: KindByteString, Text: value}, nil
	case "s":
		return ID{Namespace: uint16(ns), Kind: KindString, Text: trimQuotes(value)}, nil
	default:
		// Unknown tag: treat the whole identifier part as a string ID.
		return ID{Namespace: uint16(ns), Kind: KindString, Text: trimQuotes(idPart)}, nil
	}
}

// MustParse is Parse for identifiers known to be valid at compile time.
// It panics on error.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical textual form of the identifier.
func (id ID) String() string {
	switch id.Kind {
	case KindNumeric:
		return fmt.Sprintf("ns=%d;i=%d", id.Namespace, id.Numeric)
	case KindByteString:
		return fmt.Sprintf("ns=%d;b=%s", id.Namespace, id.Text)
	default:
		return fmt.Sprintf("ns=%d;s=%s", id.Namespace, id.Text)
	}
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
