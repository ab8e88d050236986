// Package engine serves a resource tree over HTTP and keeps it current.
//
// A Server owns the listener, a Reloader that rebuilds the tree from the
// interface description and publishes it atomically, and an optional
// polling Watcher that asks the Reloader for a rebuild when description
// files change. Requests are answered by a Handler that matches the path,
// resolves a response body and writes it with the declared status, media
// type and headers.
//
// Requests read the tree once, at their start, so a reload never changes
// the tree a request is being answered from. A failed rebuild keeps the
// previous tree in service.
package engine
