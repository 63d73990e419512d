// Package errors provides structured error handling with actionable hints.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Save data errors
	CodeSaveTruncated     Code = "SAVE_TRUNCATED"
	CodeSaveCorrupt       Code = "SAVE_CORRUPT"
	CodeSaveMajorVersion  Code = "SAVE_MAJOR_VERSION"
	CodeSaveMinorTooNew   Code = "SAVE_MINOR_TOO_NEW"
	CodeSaveIncompatible  Code = "SAVE_INCOMPATIBLE"
	CodeArchiveLocked     Code = "ARCHIVE_LOCKED"
	CodeArchiveNotFound   Code = "ARCHIVE_NOT_FOUND"
	CodeChunkNotFound     Code = "CHUNK_NOT_FOUND"
	CodeArchiveNotWritten Code = "ARCHIVE_NOT_WRITTEN"

	// Level errors
	CodeLevelStackDuplicate Code = "LEVEL_STACK_DUPLICATE"
	CodeLevelInvalidID      Code = "LEVEL_INVALID_ID"

	// Bones errors
	CodeBonesPoolFull   Code = "BONES_POOL_FULL"
	CodeBonesUnreadable Code = "BONES_UNREADABLE"

	// Damage errors
	CodeDamageInvalidInput Code = "DAMAGE_INVALID_INPUT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// Hint returns the actionable sentence shown next to a failure with this code.
func (c Code) Hint() string {
	switch c {
	case CodeSaveTruncated, CodeSaveCorrupt:
		return "The save appears to be damaged; delete it and start a new game."
	case CodeSaveMajorVersion, CodeSaveIncompatible:
		return "Continue the game with the version that created it, or delete it and start a new game."
	case CodeSaveMinorTooNew:
		return "The save is from a newer version; install that version to continue."
	case CodeArchiveLocked:
		return "Another process is playing this character; close it first."
	case CodeArchiveNotWritten:
		return "The game was not saved; check free space and permissions on the save directory."
	case CodeLevelStackDuplicate:
		return "The game state is inconsistent; please report this save."
	default:
		return ""
	}
}

// Fatal reports whether the code ends the current game session when it
// reaches the top-level entry point.
func (c Code) Fatal() bool {
	switch c {
	case CodeSaveTruncated,
		CodeSaveCorrupt,
		CodeSaveMajorVersion,
		CodeSaveMinorTooNew,
		CodeSaveIncompatible,
		CodeLevelStackDuplicate:
		return true
	default:
		return false
	}
}
