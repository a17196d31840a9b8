// Package database manages the PostgreSQL connection pool used by the
// offer journal.
package database
