// Package projects persists the project list in SQLite and owns the
// project status lifecycle.
//
// The Store manages schema initialization, CRUD, busy retries, and the
// status transitions managers drive from the dashboard: projects cycle
// ongoing → done → archived and back, never jumping from ongoing straight
// to archived. A JSON snapshot of the full list mirrors every mutation as
// the local persistence fallback and seeds an empty database at startup.
//
// Treat this package as the single source of truth for project semantics;
// when fields change, update schema.sql and bump schemaVersion.
package projects
