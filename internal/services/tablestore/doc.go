// Package tablestore talks to the remote row store that owns the shared
// project and productivity-log tables. The store speaks a PostgREST-style
// REST dialect: one route per table, filters in the query string, upserts
// via Prefer headers.
package tablestore
