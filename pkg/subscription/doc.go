// Package subscription implements change-driven reporting over a set
// of nodes.
//
// A Subscription names the nodes a client wants reports for, plus a
// minimum interval (coalescing window) and a maximum interval
// (heartbeat deadline). The Manager indexes subscriptions by node so a
// single value change fans out only to the subscriptions that watch
// that node. Pending changes are coalesced: the first change opens a
// window of the minimum interval, further changes to the same node
// replace the pending value, and the report goes out once the window
// expires. If nothing changes for the maximum interval a heartbeat
// report keeps the client informed that the subscription is alive.
//
// On creation every subscription receives a priming report carrying
// the current values of all subscribed nodes, so clients never start
// from an unknown state.
package subscription
