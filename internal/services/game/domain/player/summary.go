package player

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/louisbranch/undercroft/internal/services/game/domain/level"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// SummaryFormat versions the character summary independently of the tag
// major so save browsers can list saves from incompatible builds.
const SummaryFormat uint8 = 1

// MaxSummarySize bounds the summary payload.
const MaxSummarySize = 1024

// Summary is the small character description stored alongside a save.
type Summary struct {
	Name    string
	Species Species
	Job     string
	XL      int
	Place   level.ID
	GameID  uuid.UUID
	Lives   int
	Wizard  bool
	// Version is the tag version of the save the summary belongs to.
	Version tag.Version
}

// Summarize captures p's summary.
func Summarize(p *Player) Summary {
	return Summary{
		Name:    p.Name,
		Species: p.Species,
		Job:     p.Job,
		XL:      p.XL,
		Place:   p.Place,
		GameID:  p.GameID,
		Lives:   p.Lives,
		Wizard:  p.Wizard,
		Version: tag.Current(),
	}
}

// Describe renders a one-line listing entry.
func (s Summary) Describe() string {
	place := "nowhere"
	if s.Place.Valid() {
		place = s.Place.String()
	}
	desc := fmt.Sprintf("%s, a level %d %s %s on %s", s.Name, s.XL, s.Species, s.Job, place)
	if s.Wizard {
		desc += " (wizard)"
	}
	if s.Version.Major != tag.MajorVersion {
		desc += fmt.Sprintf(" [incompatible %d.%d]", s.Version.Major, s.Version.Minor)
	}
	return desc
}

// EncodeSummary returns the summary chunk: format byte, then a
// length-prefixed tagged payload.
func EncodeSummary(s Summary) ([]byte, error) {
	body := tag.NewWriter()
	body.Version(s.Version)
	body.String(s.Name)
	body.Uint8(uint8(s.Species))
	body.String(s.Job)
	body.Int(s.XL)
	level.EncodeID(body, s.Place)
	body.Raw(s.GameID[:])
	body.Int(s.Lives)
	body.Bool(s.Wizard)
	if body.Len() > MaxSummarySize {
		return nil, fmt.Errorf("character summary is %d bytes, limit %d", body.Len(), MaxSummarySize)
	}
	w := tag.NewWriter()
	w.Uint8(SummaryFormat)
	w.Blob(body.Bytes())
	return w.Bytes(), nil
}

// DecodeSummary reads a summary chunk. It does not reject other tag
// majors; callers decide whether the save is loadable.
func DecodeSummary(data []byte) (Summary, error) {
	r := tag.NewReader(data)
	if format := r.Uint8("summary.format"); r.Err() == nil && format != SummaryFormat {
		r.Corrupt("summary.format", "format %d", format)
	}
	body := r.Blob("summary.body")
	if r.Err() == nil && len(body) > MaxSummarySize {
		r.Corrupt("summary.body", "%d bytes", len(body))
	}
	if err := r.FailIfNotEOF("summary"); err != nil {
		return Summary{}, err
	}

	br := tag.NewReader(body)
	var s Summary
	s.Version = br.Version("summary.version")
	s.Name = br.String("summary.name")
	s.Species = Species(br.Uint8("summary.species"))
	s.Job = br.String("summary.job")
	s.XL = br.Int("summary.xl")
	s.Place = level.DecodeID(br, "summary.place")
	if raw := br.Raw("summary.game_id", 16); raw != nil {
		copy(s.GameID[:], raw)
	}
	s.Lives = br.Int("summary.lives")
	s.Wizard = br.Bool("summary.wizard")
	if err := br.FailIfNotEOF("summary"); err != nil {
		return Summary{}, err
	}
	return s, nil
}
