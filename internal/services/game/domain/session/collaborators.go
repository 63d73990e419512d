package session

import (
	"context"

	"github.com/louisbranch/undercroft/internal/services/game/domain/ghost"
	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/score"
)

// Archive is the open save file. *archive.Archive satisfies it.
type Archive interface {
	Has(name string) bool
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Delete(name string) error
	Commit() error
	Chunks() ([]string, error)
}

// Channel classifies a message for display.
type Channel uint8

const (
	ChannelPlain Channel = iota
	ChannelWarn
	ChannelDanger
	ChannelGod
	ChannelTutorial
	ChannelPrompt
	ChannelDiagnostic
)

var channelNames = [...]string{"plain", "warn", "danger", "god", "tutorial", "prompt", "diagnostic"}

func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return "unknown"
}

// Messages receives the text shown to the player.
type Messages interface {
	Add(ch Channel, text string)
}

// NoteKind classifies a note.
type NoteKind uint8

const (
	NoteHPChange NoteKind = iota
	NoteXPLevelChange
	NoteDeath
	NoteLevelChange
	NoteXomEffect
	NoteXomRevival
	NoteMessage
	noteKindCount
)

var noteKindNames = [...]string{"hp_change", "xl_change", "death", "level_change", "xom_effect", "xom_revival", "message"}

func (k NoteKind) String() string {
	if k < noteKindCount {
		return noteKindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is a known kind.
func (k NoteKind) Valid() bool { return k < noteKindCount }

// Note is one entry in the character's notes.
type Note struct {
	Kind   NoteKind
	Turn   int
	Place  level.ID
	First  int
	Second int
	Desc   string
}

// Notes records notes.
type Notes interface {
	Add(n Note)
}

// Interrupt describes an event that may stop a multi-turn activity.
type Interrupt struct {
	Kind   string
	Damage int
	Method score.KillMethod
}

// Activities is the queue of multi-turn player actions.
type Activities interface {
	// Interrupt reports whether the current activity stopped.
	Interrupt(ev Interrupt) bool
	Stop()
}

// Builder generates new levels. arrive is the feature the player must be
// able to arrive on.
type Builder interface {
	Generate(ctx context.Context, id level.ID, arrive level.Feature) (*level.Level, error)
}

// LevelTracker keeps per-level annotations that die with a deleted level:
// travel data, stashes, shopping list entries.
type LevelTracker interface {
	RemoveLevel(id level.ID)
}

// ChunkStore is auxiliary state persisted as one archive chunk.
type ChunkStore interface {
	ChunkName() string
	Save() ([]byte, error)
	Load(data []byte) error
}

// Scores appends finished games to the high-score table and logfile and
// returns the high-score rank, or 0 when the entry did not place.
type Scores interface {
	Record(ctx context.Context, e score.Entry) (int, error)
}

// Bones writes and reads ghost files. *bones.Manager satisfies it.
type Bones interface {
	Save(ctx context.Context, id level.ID, ghosts []ghost.Record, force bool) (string, error)
	Load(ctx context.Context, id level.ID) ([]ghost.Record, error)
}

// Checkpointer forces a synchronous save of the running game.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// Ender tears down a finished game: the save is removed and the session
// marked over.
type Ender interface {
	EndGame(ctx context.Context, e score.Entry, rank int) error
}

// Prompter asks the player a yes/no question.
type Prompter interface {
	YesNo(question string, def bool) bool
}
