// Package tag implements the versioned binary format shared by save chunks
// and bones files.
//
// Every chunk starts with a two byte (major, minor) header. Readers accept
// any minor up to MinorCurrent for MajorVersion and gate optional fields on
// Reader.AtLeast. Integers are big-endian.
package tag

import "strconv"

// MajorVersion is the only major accepted for reading and writing.
const MajorVersion uint8 = 35

// Minor versions of the current major, oldest first.
const (
	MinorReset      uint8 = 0
	MinorPlaceTurns uint8 = 1 // per-branch turn counters in place info
	MinorLives      uint8 = 2 // lives and deaths on the player record
	MinorCurrent          = MinorLives
)

// One old pre-release build wrote major 34 minor 17 for data identical to
// MinorReset.
const (
	legacyMajor uint8 = 34
	legacyMinor uint8 = 17
)

// Version is a (major, minor) chunk header.
type Version struct {
	Major uint8
	Minor uint8
}

// Current returns the version written by this build.
func Current() Version {
	return Version{Major: MajorVersion, Minor: MinorCurrent}
}

func (v Version) String() string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
}

// Normalize validates v and returns the effective version used for gated
// reads.
func Normalize(v Version) (Version, error) {
	if v.Major == legacyMajor && v.Minor == legacyMinor {
		return Version{Major: MajorVersion, Minor: MinorReset}, nil
	}
	if v.Major != MajorVersion {
		return v, &ReadError{Kind: KindMajorVersion, Field: "header", Version: v}
	}
	if v.Minor > MinorCurrent {
		return v, &ReadError{Kind: KindMinorTooNew, Field: "header", Version: v}
	}
	return v, nil
}
