// Package views projects the stored project list into the shapes the
// dashboard surfaces render: client groupings, due-date ordering, and
// per-person filters for the editor and QC views.
package views
