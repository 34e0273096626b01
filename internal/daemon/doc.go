// Package daemon coordinates the long-running booktrackd process.
//
// It wires configuration, the project store, the sync manager, and the
// notification service into a single lifecycle with flock-based locking to
// prevent multiple instances, and serves the HTTP API the dashboard
// surfaces consume. Keep orchestration logic here: view projections and
// aggregation live in their own packages while the daemon focuses on
// startup, shutdown, and request routing.
package daemon
