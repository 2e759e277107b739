package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

// LoadServer reads a server configuration from path, dispatching on the
// file extension (.ini, .yaml, .yml). The result is validated.
func LoadServer(path string) (ServerConfig, error) {
	var (
		cfg ServerConfig
		err error
	)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		cfg, err = loadServerYAML(path)
	default:
		cfg, err = loadServerINI(path)
	}
	if err != nil {
		return ServerConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClient reads a client configuration from path, dispatching on the
// file extension (.ini, .yaml, .yml). The result is validated.
func LoadClient(path string) (ClientConfig, error) {
	var (
		cfg ClientConfig
		err error
	)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		cfg, err = loadClientYAML(path)
	default:
		cfg, err = loadClientINI(path)
	}
	if err != nil {
		return ClientConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func readINI(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

func loadServerINI(path string) (ServerConfig, error) {
	v, err := readINI(path)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		Endpoint:       v.GetString("server.endpoint"),
		NamespaceURI:   v.GetString("server.namespace_uri"),
		ServerName:     v.GetString("server.server_name"),
		UpdateInterval: time.Duration(v.GetFloat64("server.server_loop_time") * float64(time.Second)),
	}

	// Numbered node entries: node1_name, node1_nodeid, node1_initial_value,
	// optional node1_type. Enumeration stops at the first gap.
	for i := 1; ; i++ {
		key := func(suffix string) string {
			return fmt.Sprintf("variables.node%d_%s", i, suffix)
		}
		if !v.IsSet(key("nodeid")) {
			break
		}

		id, err := nodeid.Parse(v.GetString(key("nodeid")))
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s: node%d: %w", path, i, err)
		}

		rawInitial := v.GetString(key("initial_value"))
		valueType, initial, err := resolveValue(v.GetString(key("type")), rawInitial)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s: node%d: %w", path, i, err)
		}

		name := v.GetString(key("name"))
		if name == "" {
			name = fmt.Sprintf("Variable%d", i)
		}

		cfg.Nodes = append(cfg.Nodes, addrspace.NodeDefinition{
			ID:      id,
			Name:    name,
			Type:    valueType,
			Initial: initial,
		})
	}

	return cfg, nil
}

func loadClientINI(path string) (ClientConfig, error) {
	v, err := readINI(path)
	if err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{
		Endpoint:     v.GetString("client.endpoint"),
		PollInterval: time.Duration(v.GetFloat64("client.poll_interval") * float64(time.Second)),
	}

	for i := 1; ; i++ {
		key := fmt.Sprintf("client_variables.node%d_nodeid", i)
		if !v.IsSet(key) {
			break
		}
		id, err := nodeid.Parse(v.GetString(key))
		if err != nil {
			return ClientConfig{}, fmt.Errorf("%s: node%d: %w", path, i, err)
		}
		cfg.NodeIDs = append(cfg.NodeIDs, id)
	}

	return cfg, nil
}

// resolveValue determines the declared type and the typed initial value
// for a node from its raw configuration strings. An explicit type name
// wins; otherwise the type is inferred from the literal: integer, then
// float, then bool, then string.
func resolveValue(typeName, raw string) (addrspace.ValueType, any, error) {
	if typeName != "" {
		t, err := addrspace.ParseValueType(typeName)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrUnknownValueType, err)
		}
		value, err := addrspace.ParseValue(t, raw)
		if err != nil {
			return 0, nil, err
		}
		return t, value, nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return addrspace.TypeInt, n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return addrspace.TypeFloat, f, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return addrspace.TypeBool, b, nil
	}
	return addrspace.TypeString, raw, nil
}
