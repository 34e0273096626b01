// Package workflow coordinates the daemon's background work: the periodic
// pull of remote project and log rows into the local cache, the recompute
// of aggregation-driven totals, and the debounced write pipeline that
// pushes cell edits back to the remote store.
package workflow
