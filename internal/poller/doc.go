// Package poller periodically asks mounted views to reload from the catalog
// service.
//
// The stream keeps views current, but events missed while disconnected are
// never replayed. A refresh interval bounds how stale a view can get. It is
// off by default.
package poller
