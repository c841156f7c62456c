// Package storage records submissions and their scheduler jobs.
//
// This package includes:
//   - GormStorage: a GORM-based core.Store for SQLite and PostgreSQL
//   - Open: picks the driver from a DSN
//   - Pool configuration for the underlying *sql.DB
//
// The store is a convenience record for humans and the history command; the
// monitor and collator never consult it.
package storage
