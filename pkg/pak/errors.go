package pak

import (
	"errors"
	"io"
)

// Sentinel errors returned by the codec and MergeReader. Wrapped values
// carry position or name context; match with errors.Is.
var (
	// ErrCorruptHeader is returned when a segment does not start with the
	// expected (2, 1) byte pair.
	ErrCorruptHeader = errors.New("pak: corrupt header")

	// ErrTruncated is returned when the stream ends before a complete
	// record, table or footer could be read.
	ErrTruncated = errors.New("pak: truncated stream")

	// ErrInvalidEncoding is returned when a length-prefixed string payload
	// is not valid UTF-8.
	ErrInvalidEncoding = errors.New("pak: invalid utf-8 string")

	// ErrNotFound is returned by MergeReader.ReadFile when the requested
	// name is absent from the merged chunk set.
	ErrNotFound = errors.New("pak: file not found")
)

// truncated maps end-of-stream conditions onto ErrTruncated and lets real
// device errors pass through untouched.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
