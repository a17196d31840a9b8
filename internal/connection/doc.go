// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Keeps exactly one live stream to the catalog update endpoint
//   - Decodes every frame into an event.Event and dispatches it in arrival order
//   - Reconnects after a fixed 2000 ms delay, with at most one pending timer
//   - Supports Server-Sent Events (default) and WebSocket transports
package connection
