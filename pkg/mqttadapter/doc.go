// Package mqttadapter publishes an address space over an MQTT broker.
//
// Unlike the other adapters, both sides attach to an external broker
// named by the endpoint (mqtt://host:port/topicprefix). The server
// publishes every node under <prefix>/<node-id> as a retained JSON
// document carrying the value, its declared type and the update
// timestamp; the retained flag means late subscribers immediately see
// the current state. Store changes are published as they happen.
//
// The client subscribes to <prefix>/# and keeps the last-seen document
// per node. Poll answers from that cache, so its results are as fresh
// as the broker's delivery; Subscribe hands decoded updates straight
// to the callback. Writes are not part of this adapter: the topic tree
// is a one-way telemetry surface.
package mqttadapter
