// Package modbusadapter exposes an address space as a Modbus TCP
// holding-register map.
//
// Modbus has no node names, so the adapter lays nodes out by
// configuration order: node i occupies holding registers 2i and 2i+1,
// a 32-bit slot transferred high word first. Floats carry IEEE 754
// single-precision bits, integers their low 32 bits, booleans 0 or 1.
// String nodes cannot be represented and fail adapter startup.
//
// Reads and writes must cover whole slots; a request that slices a
// slot in half is answered with an illegal data address exception.
// Writes decode the slot per the node's declared type and go through
// the store, so subscribers on other protocol adapters observe them.
//
// The client side polls the register map. It knows only node IDs, not
// types, so polled values surface as raw int64 register contents; it
// relies on the node list matching the server's configuration order.
// Modbus has no push semantics, so Subscribe reports
// ErrSubscribeUnsupported.
package modbusadapter
