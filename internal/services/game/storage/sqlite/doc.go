// Package sqlite implements storage.ScoreStore on an embedded SQLite
// database.
//
// The high-score table and the logfile share one file. The table keeps the
// best MaxScoreEntries scored games; the logfile keeps every finished game,
// scored or not, as the logline the score package renders. Schema changes
// are embedded migrations applied on Open.
package sqlite
