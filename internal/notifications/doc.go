// Package notifications delivers sync and write events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Sync and error events can be toggled independently so a quiet
// topic only carries failures.
//
// Extend this package if you need alternative transports; the daemon
// depends only on the simple Service interface.
package notifications
