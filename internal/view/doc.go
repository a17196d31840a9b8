// Package view holds the catalog state a screen renders and keeps it in sync
// with the update stream.
//
// Each view:
//   - subscribes to the router on Mount and unsubscribes on Close
//   - runs one worker that drains an inbox of stream events and commands, so
//     one event (including any reload it triggers) finishes before the next
//   - loads its data from the catalog service and reconciles batches in place
//   - drops results that arrive after Close
//
// Snapshot returns a deep copy; Changes signals that a new snapshot is ready.
package view
