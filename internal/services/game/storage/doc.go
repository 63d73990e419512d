// Package storage defines the persistence contracts shared by the game's
// storage backends.
//
// The save archive and bones files are single-purpose formats with their own
// packages. Records that outlive a game, the high-score table and the
// logfile, are described here and implemented by the sqlite subpackage.
//
// Common error types:
//   - ErrNotFound: requested record is missing
package storage
