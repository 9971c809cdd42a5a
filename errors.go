package immeta

import (
	"errors"
	"fmt"
	"io"
)

// Standard error types for metadata extraction.
var (
	// ErrUnexpectedEOF is returned when the byte source ends while a mandatory
	// marker, length field or payload byte was still expected. The error
	// message names the read that was in progress.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrInvalidFormat is returned when the bytes read are structurally
	// present but violate a format rule. The error message includes the
	// offending value when one is available.
	ErrInvalidFormat = errors.New("invalid image format")
)

// eofErrf annotates ErrUnexpectedEOF with the read that was in progress,
// e.g. "when searching for SOI marker".
func eofErrf(format string, args ...any) error {
	return fmt.Errorf("%w %s", ErrUnexpectedEOF, fmt.Sprintf(format, args...))
}

// formatErrf annotates ErrInvalidFormat with the violated rule.
func formatErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}

// isEOF reports whether err is one of the stdlib end-of-input errors.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
