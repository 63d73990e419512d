package bones

import (
	"errors"
	"fmt"

	"github.com/louisbranch/undercroft/internal/services/game/domain/ghost"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// Signature follows the version bytes of every bones file.
const Signature int16 = -0x23ab // 0xDC55 as a signed 16-bit value

const paddingWords = 3

var (
	// ErrIncompatible reports a bones file from another major or a newer
	// minor. Such files are skipped, never fatal.
	ErrIncompatible = errors.New("incompatible bones file")
	// ErrSignature reports a file that is not a bones file.
	ErrSignature = errors.New("bad bones signature")
)

// Encode renders a complete bones file.
func Encode(ghosts []ghost.Record) []byte {
	w := tag.NewWriter()
	w.Version(tag.Current())
	w.Int16(Signature)
	for i := 0; i < paddingWords; i++ {
		w.Uint32(0)
	}
	ghost.EncodeAll(w, ghosts)
	return w.Bytes()
}

// Decode parses a bones file. Header problems are reported as
// ErrIncompatible or ErrSignature; payload problems as tag read errors.
func Decode(data []byte) ([]ghost.Record, error) {
	r := tag.NewReader(data)
	v := r.Version("bones.version")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if v.Major != tag.MajorVersion || v.Minor > tag.MinorCurrent {
		return nil, fmt.Errorf("%w: version %s, want %s", ErrIncompatible, v, tag.Current())
	}
	r.SetMinor(v.Minor)
	if sig := r.Int16("bones.signature"); r.Err() == nil && sig != Signature {
		return nil, fmt.Errorf("%w: %#04x", ErrSignature, uint16(sig))
	}
	r.Raw("bones.padding", 4*paddingWords)
	if err := r.Err(); err != nil {
		return nil, err
	}
	ghosts := ghost.DecodeAll(r)
	if err := r.FailIfNotEOF("bones"); err != nil {
		return nil, err
	}
	return ghosts, nil
}
