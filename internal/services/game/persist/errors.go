package persist

import (
	"errors"

	apperrors "github.com/louisbranch/undercroft/internal/platform/errors"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
	"github.com/louisbranch/undercroft/internal/services/game/storage/archive"
)

// codeFor classifies storage and decoding failures, falling back to def.
func codeFor(err error, def apperrors.Code) apperrors.Code {
	switch {
	case errors.Is(err, tag.ErrTruncated):
		return apperrors.CodeSaveTruncated
	case errors.Is(err, tag.ErrMajorVersion):
		return apperrors.CodeSaveMajorVersion
	case errors.Is(err, tag.ErrMinorTooNew):
		return apperrors.CodeSaveMinorTooNew
	case errors.Is(err, tag.ErrCorrupt):
		return apperrors.CodeSaveCorrupt
	case errors.Is(err, archive.ErrLocked):
		return apperrors.CodeArchiveLocked
	case errors.Is(err, archive.ErrNotFound):
		return apperrors.CodeArchiveNotFound
	case errors.Is(err, archive.ErrChunkNotFound):
		return apperrors.CodeChunkNotFound
	}
	return def
}

// chunkError converts a failure to read chunk into a coded error.
func chunkError(chunk string, err error) error {
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return apperrors.WrapWithMetadata(codeFor(err, apperrors.CodeSaveCorrupt), "read chunk",
		map[string]string{"chunk": chunk}, err)
}

func writeError(chunk string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeArchiveNotWritten, "write chunk",
		map[string]string{"chunk": chunk}, err)
}
