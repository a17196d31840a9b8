// Package journal records every received offer update item in PostgreSQL.
//
// The journal is append-only and is never read back by the views; it exists
// for auditing what the stream delivered. Items are queued in a
// router.GrowableBuffer by the router handler and written in pgx batches,
// either when BatchSize rows are pending or every FlushInterval.
package journal
