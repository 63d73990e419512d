package trackers

import (
	"fmt"
	"strings"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// MaxNotes bounds the notes kept for one character.
const MaxNotes = 10000

// Notes is the character's notes, oldest first.
type Notes struct {
	notes []session.Note
}

var (
	_ session.Notes      = (*Notes)(nil)
	_ session.ChunkStore = (*Notes)(nil)
)

// Add appends n, dropping the oldest note once MaxNotes is reached.
func (t *Notes) Add(n session.Note) {
	if len(t.notes) >= MaxNotes {
		t.notes = append(t.notes[:0], t.notes[1:]...)
	}
	t.notes = append(t.notes, n)
}

// All returns a copy of every note.
func (t *Notes) All() []session.Note {
	return append([]session.Note(nil), t.notes...)
}

// Dump renders the notes as the table printed in a character dump.
func (t *Notes) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%8s | %-10s | %s\n", "Turn", "Place", "Note")
	for _, n := range t.notes {
		fmt.Fprintf(&b, "%8d | %-10s | %s\n", n.Turn, n.Place, describeNote(n))
	}
	return b.String()
}

func describeNote(n session.Note) string {
	switch n.Kind {
	case session.NoteHPChange:
		return fmt.Sprintf("HP: %d/%d [%s]", n.First, n.Second, n.Desc)
	case session.NoteXPLevelChange:
		return fmt.Sprintf("Reached XP level %d. %s", n.First, n.Desc)
	case session.NoteLevelChange:
		return "Entered " + n.Desc
	}
	return n.Desc
}

func (t *Notes) ChunkName() string { return session.ChunkNotes }

func (t *Notes) Save() ([]byte, error) {
	w := tag.NewChunkWriter()
	w.Int(len(t.notes))
	for _, n := range t.notes {
		w.Uint8(uint8(n.Kind))
		w.Int(n.Turn)
		level.EncodeID(w, n.Place)
		w.Int(n.First)
		w.Int(n.Second)
		w.String(n.Desc)
	}
	return w.Bytes(), nil
}

func (t *Notes) Load(data []byte) error {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return err
	}
	count := r.Count("notes", MaxNotes)
	notes := make([]session.Note, 0, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		n := session.Note{
			Kind:   session.NoteKind(r.Uint8("note.kind")),
			Turn:   r.Int("note.turn"),
			Place:  level.DecodeID(r, "note.place"),
			First:  r.Int("note.first"),
			Second: r.Int("note.second"),
			Desc:   r.String("note.desc"),
		}
		if r.Err() == nil && !n.Kind.Valid() {
			r.Corrupt("note.kind", "unknown kind %d", n.Kind)
		}
		notes = append(notes, n)
	}
	if err := r.FailIfNotEOF(session.ChunkNotes); err != nil {
		return err
	}
	t.notes = notes
	return nil
}
