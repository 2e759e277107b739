// Package discovery provides mDNS advertising and browsing for
// simulator servers on the local network.
//
// A running server advertises itself as a "_plantsim._tcp" service
// whose TXT records carry the protocol adapter name, the address
// space namespace URI and the node count. Clients browse the same
// service type to find simulators without knowing endpoints up front.
package discovery
