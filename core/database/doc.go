// Package database handles the connection to the directory database.
//
// It provides a wrapper around GORM to configure MySQL connections based on
// the application's configuration. The directory is read-mostly from the
// sync engine's point of view: reconciliation walks groups and people with
// non-tracking paged queries, while the only tables this service writes are
// the person table (onboarding) and the Mailchimp link table.
//
// # Connect
//
// Connect establishes a pooled connection with generous I/O timeouts, since
// a full reconciliation run scans every eligible group member. GORM logging
// is silenced; the run logs through zap.
package database
