// Package model defines the data structures exchanged with the dashboard
// backend and the transient state that controllers hold for a page.
//
// Nothing here persists. Every value lives for as long as the controller that
// owns it, which mirrors the lifetime of a browser tab in the web
// dashboard. Wire types carry JSON tags that match the backend contract
// exactly; they are decoded by the api package and rendered by the view and
// report packages.
package model
