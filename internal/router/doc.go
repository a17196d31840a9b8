// Package router implements the Subscription Registry component.
//
// The Router fans decoded stream events out to every registered callback:
//   - Subscribe returns an idempotent unsubscribe function
//   - Dispatch iterates a snapshot of the subscriber set taken at dispatch start
//   - a callback never runs after its unsubscribe has returned
//
// GrowableBuffer is the unbounded FIFO used as a per-view inbox and as the
// journal input queue, so a slow consumer never blocks Dispatch.
package router
