// Package nodeid implements parsing and formatting of namespace-qualified
// node identifiers.
//
// Identifiers use the textual form
//
//	ns=<namespace-index>;s=<string-id>
//	ns=<namespace-index>;i=<numeric-id>
//	ns=<namespace-index>;b=<bytestring-id>
//
// for example "ns=2;s=Temperature" or "ns=3;i=1001". The string form is
// canonical: two identifiers are equal exactly when their canonical forms
// are equal, which makes ID usable as a map key throughout the address
// space store and the protocol adapters.
package nodeid
