// Package config defines the typed server and client configuration
// consumed by protocol adapters, and loaders for the two file formats the
// suite ships with.
//
// The INI format follows the historical per-protocol config files:
//
//	[server]
//	endpoint = opc.tcp://127.0.0.1:4840
//	namespace_uri = http://plantsim.example/plant
//	server_name = PlantSimServer
//	server_loop_time = 10
//
//	[variables]
//	node1_name = Temperature
//	node1_nodeid = ns=2;s=Temperature
//	node1_initial_value = 20.0
//
//	[client]
//	endpoint = opc.tcp://127.0.0.1:4840
//	poll_interval = 5
//
//	[client_variables]
//	node1_nodeid = ns=2;s=Temperature
//
// The YAML format carries the same sections with variables as proper
// lists. Both loaders produce identical typed structures; adapters never
// see configuration text.
package config
