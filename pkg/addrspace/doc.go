// Package addrspace implements the in-memory address space shared by all
// protocol adapters.
//
// The address space is a registry of simulated nodes. Each node pairs an
// immutable definition (identifier, display name, declared value type,
// initial value) with mutable state (current value, last-updated
// timestamp). The Store is the single point of mutation: every write goes
// through type validation, updates value and timestamp atomically, and
// fans the change out to registered change listeners so adapters can push
// subscription notifications without polling.
//
// Namespaces group nodes under a URI. Indexes 0 and 1 are reserved by
// convention, so the first application namespace gets index 2.
package addrspace
