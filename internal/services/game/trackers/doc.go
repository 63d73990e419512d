// Package trackers holds the small per-game collaborators the session
// reports to: notes, the message log, kill counts, per-level stash and
// travel annotations, and the activity queue.
//
// Each tracker that outlives a save implements session.ChunkStore and is
// stored as its own archive chunk. Per-level trackers also implement
// session.LevelTracker so a deleted level takes its annotations with it.
package trackers
