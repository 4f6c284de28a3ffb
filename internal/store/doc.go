// Package store keeps transient per-session form values in SQLite.
//
// The analysis form auto-saves its fields on every change and restores them
// when the form is opened again in the same session. A session is an opaque
// key; NewSessionKey makes a fresh one. Entries older than the configured
// lifetime are purged when the store is opened, so saved forms do not
// outlive the session they belong to.
//
// Design decision: We use SQLite (via modernc.org/sqlite) with sqlx because
// the store is a single CGO-free file under the XDG data directory, and
// sqlx maps rows onto structs without hand-written Scan calls.
package store
