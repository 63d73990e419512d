package tag

import (
	"errors"
	"fmt"
)

// Kind classifies a read failure.
type Kind int

const (
	// KindTruncated means the stream ended before a field was complete.
	KindTruncated Kind = iota + 1
	// KindCorrupt means a field was present but held an impossible value.
	KindCorrupt
	// KindMajorVersion means the header major differs from MajorVersion.
	KindMajorVersion
	// KindMinorTooNew means the data came from a newer build.
	KindMinorTooNew
)

func (k Kind) String() string {
	switch k {
	case KindTruncated:
		return "truncated"
	case KindCorrupt:
		return "corrupt"
	case KindMajorVersion:
		return "major version mismatch"
	case KindMinorTooNew:
		return "minor version too new"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. ErrVersion matches both version kinds.
var (
	ErrTruncated    = errors.New("tag: truncated")
	ErrCorrupt      = errors.New("tag: corrupt")
	ErrVersion      = errors.New("tag: incompatible version")
	ErrMajorVersion = errors.New("tag: major version mismatch")
	ErrMinorTooNew  = errors.New("tag: minor version too new")
)

// ReadError is the single failure type produced by Reader.
type ReadError struct {
	Kind    Kind
	Field   string
	Offset  int
	Version Version
	Detail  string
}

func (e *ReadError) Error() string {
	switch e.Kind {
	case KindMajorVersion, KindMinorTooNew:
		return fmt.Sprintf("tag: %s: %s (found %d.%d, supported %d.%d)",
			e.Field, e.Kind, e.Version.Major, e.Version.Minor, MajorVersion, MinorCurrent)
	}
	msg := fmt.Sprintf("tag: %s at offset %d reading %s", e.Kind, e.Offset, e.Field)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is lets callers match on the sentinels above.
func (e *ReadError) Is(target error) bool {
	switch target {
	case ErrTruncated:
		return e.Kind == KindTruncated
	case ErrCorrupt:
		return e.Kind == KindCorrupt
	case ErrVersion:
		return e.Kind == KindMajorVersion || e.Kind == KindMinorTooNew
	case ErrMajorVersion:
		return e.Kind == KindMajorVersion
	case ErrMinorTooNew:
		return e.Kind == KindMinorTooNew
	}
	return false
}

// KindOf returns the kind of a ReadError anywhere in err's chain, or zero.
func KindOf(err error) Kind {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
