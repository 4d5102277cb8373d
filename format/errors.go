package format

import "errors"

// Sentinel errors for the PNGB binary format (spec §4.G, §7).
var (
	// ErrInvalidFormat covers bad magic, out-of-order sections, or a
	// section that runs past the end of the buffer.
	ErrInvalidFormat = errors.New("format: invalid PNGB layout")

	// ErrUnsupportedVersion is returned for a version other than 4 or 5.
	ErrUnsupportedVersion = errors.New("format: unsupported PNGB version")

	// ErrTooManyStrings is returned once a StringTable would exceed 65535
	// entries (spec §4.B).
	ErrTooManyStrings = errors.New("format: too many interned strings")

	// ErrInvalidStringID is returned by StringTable.Get for an ID that was
	// never interned.
	ErrInvalidStringID = errors.New("format: invalid string id")

	// ErrInvalidDataID is returned by DataSection.Get for an ID that was
	// never added.
	ErrInvalidDataID = errors.New("format: invalid data id")
)

// FormatError wraps ErrInvalidFormat/ErrUnsupportedVersion with the byte
// offset that failed validation, matching the teacher's pattern of typed
// errors carrying enough context to locate the failure without a debugger
// (core/error.go's IDError).
type FormatError struct {
	Offset  int
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	return "format: " + e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

func newFormatError(offset int, message string, cause error) *FormatError {
	return &FormatError{Offset: offset, Message: message, Cause: cause}
}
