// Package controller holds one controller per dashboard page.
//
// A controller owns the state of its page explicitly: staged files, the
// current session id, the in-flight flag of the inbox, the scheduled tasks
// that poll the backend. It talks to the backend through a narrow
// interface that *api.Client satisfies, and renders typed view models into
// a view.Page.
//
// Design decision: Every operation takes a context and returns the error
// it also shows on the page, so the CLI can drive a controller without a
// page and tests can assert on both. Periodic work runs on poll tasks that
// are stopped by Close; a request that is still in flight at Close lands
// on a closed page and is dropped.
package controller
