package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeServerTXT creates TXT records for server discovery.
func EncodeServerTXT(info *ServerInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyProtocol] = info.Protocol
	txt[TXTKeyNamespace] = info.NamespaceURI

	if info.NodeCount > 0 {
		txt[TXTKeyNodeCount] = strconv.Itoa(info.NodeCount)
	}

	return txt
}

// DecodeServerTXT parses TXT records from server discovery.
func DecodeServerTXT(txt TXTRecordMap) (*ServerInfo, error) {
	info := &ServerInfo{}

	var ok bool
	info.Protocol, ok = txt[TXTKeyProtocol]
	if !ok || info.Protocol == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProtocol)
	}

	info.NamespaceURI, ok = txt[TXTKeyNamespace]
	if !ok || info.NamespaceURI == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyNamespace)
	}

	if ncStr, ok := txt[TXTKeyNodeCount]; ok {
		nc, err := strconv.Atoi(ncStr)
		if err != nil || nc < 0 {
			return nil, fmt.Errorf("%w: invalid node count %q", ErrInvalidTXTRecord, ncStr)
		}
		info.NodeCount = nc
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords converts "key=value" strings to a TXTRecordMap.
// Strings without an equals sign are ignored.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(records))
	for _, record := range records {
		key, value, found := strings.Cut(record, "=")
		if !found || key == "" {
			continue
		}
		txt[key] = value
	}
	return txt
}
