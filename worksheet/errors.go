package worksheet

import (
	"errors"
	"fmt"

	ferrors "github.com/tdambrin/sf-push/errors"
)

var (
	// ErrSourceMissing is returned when the configured worksheets path does
	// not exist in the repository. Errors carrying it are coded
	// INVALID_CONFIGURATION.
	ErrSourceMissing = errors.New("worksheet source missing")

	// ErrMetadataParse is returned when a metadata descriptor is not valid
	// JSON or lacks a required field. Errors carrying it are coded INVALID_INPUT.
	ErrMetadataParse = errors.New("invalid worksheet metadata")
)

func sourceMissingError(path string) error {
	return ferrors.WrapWithContext(ErrSourceMissing, ferrors.CodeInvalidConfig,
		"could not retrieve worksheets, the folder does not exist",
		map[string]interface{}{"path": path})
}

func metadataError(file string, cause error) error {
	err := ErrMetadataParse
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrMetadataParse, cause)
	}
	return ferrors.WrapWithContext(err, ferrors.CodeInvalidInput,
		"failed to parse worksheet metadata",
		map[string]interface{}{"file": file})
}
