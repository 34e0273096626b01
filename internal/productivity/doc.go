// Package productivity implements the time-log core: the entry model, the
// per-card edit buffer with its reconciliation rules, the debounced remote
// writer, and the roll-up aggregators behind the weekly and monthly reports.
//
// The remote row store owns the durable truth. The Buffer is a transient
// staging area for one project card: edits land in it synchronously and
// flow to the store through a per-key Debouncer, while background refreshes
// rebuild it from fetched entries unless an edit is in progress.
//
// All date handling goes through workweek's canonical YYYY-MM-DD strings;
// aggregation windows are inclusive string ranges over that form.
package productivity
