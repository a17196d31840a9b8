// Package event decodes inbound stream frames into a tagged variant.
//
// Every frame becomes exactly one Event:
//   - UpdateBatch: type "catalog:update_batch" with a well-formed items array
//   - Unknown: any other JSON payload (consumers treat it as a no-op)
//   - Raw: a payload that is not JSON at all, delivered unchanged
//
// Decoding never fails and never drops a frame.
package event
