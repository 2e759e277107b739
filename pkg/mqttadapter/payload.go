package mqttadapter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
)

// Document is the JSON payload published per node.
type Document struct {
	Value     any    `json:"value"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // unix nanoseconds
}

// encodeDocument renders a node value as the published JSON document.
func encodeDocument(t addrspace.ValueType, value any, ts time.Time) ([]byte, error) {
	return json.Marshal(Document{
		Value:     value,
		Type:      t.String(),
		Timestamp: ts.UnixNano(),
	})
}

// decodeDocument parses a published document and restores the store's
// canonical value representation. JSON numbers arrive as float64;
// integer nodes are narrowed back per the embedded type name.
func decodeDocument(data []byte) (value any, ts time.Time, err error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing node document: %w", err)
	}

	value = doc.Value
	if doc.Type == addrspace.TypeInt.String() {
		if f, ok := value.(float64); ok {
			value = int64(f)
		}
	}
	return value, time.Unix(0, doc.Timestamp), nil
}
