package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openplantsim/plantsim-go/pkg/addrspace"
	"github.com/openplantsim/plantsim-go/pkg/nodeid"
)

type yamlServerFile struct {
	Server struct {
		Endpoint     string  `yaml:"endpoint"`
		NamespaceURI string  `yaml:"namespace_uri"`
		ServerName   string  `yaml:"server_name"`
		LoopTime     float64 `yaml:"server_loop_time"`
	} `yaml:"server"`
	Variables []yamlVariable `yaml:"variables"`
}

type yamlVariable struct {
	Name         string `yaml:"name"`
	NodeID       string `yaml:"nodeid"`
	Type         string `yaml:"type"`
	InitialValue string `yaml:"initial_value"`
}

type yamlClientFile struct {
	Client struct {
		Endpoint     string  `yaml:"endpoint"`
		PollInterval float64 `yaml:"poll_interval"`
	} `yaml:"client"`
	Variables []struct {
		NodeID string `yaml:"nodeid"`
	} `yaml:"variables"`
}

func loadServerYAML(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var file yamlServerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ServerConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := ServerConfig{
		Endpoint:       file.Server.Endpoint,
		NamespaceURI:   file.Server.NamespaceURI,
		ServerName:     file.Server.ServerName,
		UpdateInterval: time.Duration(file.Server.LoopTime * float64(time.Second)),
	}

	for i, entry := range file.Variables {
		id, err := nodeid.Parse(entry.NodeID)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s: variable %d: %w", path, i+1, err)
		}

		valueType, initial, err := resolveValue(entry.Type, entry.InitialValue)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s: variable %d: %w", path, i+1, err)
		}

		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("Variable%d", i+1)
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

func loadClientYAML(path string) (ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var file yamlClientFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ClientConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := ClientConfig{
		Endpoint:     file.Client.Endpoint,
		PollInterval: time.Duration(file.Client.PollInterval * float64(time.Second)),
	}

	for i, entry := range file.Variables {
		id, err := nodeid.Parse(entry.NodeID)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("%s: variable %d: %w", path, i+1, err)
		}
		cfg.NodeIDs = append(cfg.NodeIDs, id)
	}

	return cfg, nil
}
