// Package session holds the GameSession: the player, the current level,
// the open save archive and every collaborator the core game operations
// touch. Level loading, saving and damage resolution all take the session
// explicitly; nothing in the engine reaches for package-level state.
package session
