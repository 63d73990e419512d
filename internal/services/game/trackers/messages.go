package trackers

import (
	"fmt"
	"io"

	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// MaxMessages is the length of the saved message history.
const MaxMessages = 400

// Message is one line of the message log.
type Message struct {
	Channel session.Channel
	Text    string
	// Repeats counts identical consecutive messages folded into this one.
	Repeats int
}

func (m Message) String() string {
	if m.Repeats > 1 {
		return fmt.Sprintf("%s x%d", m.Text, m.Repeats)
	}
	return m.Text
}

// Messages is the message log. When Out is set each new line is also
// written there.
type Messages struct {
	Out io.Writer

	log []Message
}

var (
	_ session.Messages   = (*Messages)(nil)
	_ session.ChunkStore = (*Messages)(nil)
)

// Add appends a message, folding it into the previous one when identical.
func (t *Messages) Add(ch session.Channel, text string) {
	if n := len(t.log); n > 0 && t.log[n-1].Channel == ch && t.log[n-1].Text == text {
		t.log[n-1].Repeats++
	} else {
		if len(t.log) >= MaxMessages {
			t.log = append(t.log[:0], t.log[1:]...)
		}
		t.log = append(t.log, Message{Channel: ch, Text: text, Repeats: 1})
	}
	if t.Out != nil {
		fmt.Fprintln(t.Out, text)
	}
}

// Recent returns up to n of the latest messages, oldest first.
func (t *Messages) Recent(n int) []Message {
	if n <= 0 || n > len(t.log) {
		n = len(t.log)
	}
	return append([]Message(nil), t.log[len(t.log)-n:]...)
}

func (t *Messages) ChunkName() string { return session.ChunkMessages }

func (t *Messages) Save() ([]byte, error) {
	w := tag.NewChunkWriter()
	w.Int(len(t.log))
	for _, m := range t.log {
		w.Uint8(uint8(m.Channel))
		w.String(m.Text)
		w.Int(m.Repeats)
	}
	return w.Bytes(), nil
}

func (t *Messages) Load(data []byte) error {
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return err
	}
	count := r.Count("messages", MaxMessages)
	log := make([]Message, 0, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		log = append(log, Message{
			Channel: session.Channel(r.Uint8("message.channel")),
			Text:    r.String("message.text"),
			Repeats: r.Int("message.repeats"),
		})
	}
	if err := r.FailIfNotEOF(session.ChunkMessages); err != nil {
		return err
	}
	t.log = log
	return nil
}
