// Package engine drives periodic value updates over an address space.
//
// The engine runs a single update loop that perturbs every registered
// node on a fixed interval, writing new values through the store so
// that change listeners and subscribers observe them. The perturbation
// applied to a node depends on its value type and is supplied by an
// UpdatePolicy; the default policy mimics a live plant signal.
//
// An interval of zero disables the loop entirely, which is the
// configuration for a static address space.
package engine
