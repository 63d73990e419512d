// Package app composes a playable game from its parts.
//
// It opens the save archive, score database and bones pools, wires the
// trackers and collaborators into a session, and exposes the few moves a
// headless driver needs: taking stairs, being hurt, passing turns and
// saving.
package app
