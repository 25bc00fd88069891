package golite

import "errors"

// Sentinel errors for the taxonomy described in the file-format spec.
// Call sites wrap these with fmt.Errorf("...: %w", Err...) so errors.Is
// keeps working through the stack.
var (
	// ErrIo is returned when a read against the underlying file fails.
	ErrIo = errors.New("io error")
	// ErrInvalidHeader is returned when the 100-byte file header fails to
	// validate: bad magic, bad page size, or wrong fixed payload fractions.
	ErrInvalidHeader = errors.New("invalid database header")
	// ErrMalformedPage is returned when a page cannot be interpreted: an
	// unknown page-type byte, a cell pointer out of range, or a truncated
	// header.
	ErrMalformedPage = errors.New("malformed page")
	// ErrInvalidSerialType is returned when a record's serial-type varint
	// is negative or one of the reserved internal values (10, 11).
	ErrInvalidSerialType = errors.New("invalid serial type")
	// ErrOutOfRange is returned when a page number falls outside
	// [1, num_pages].
	ErrOutOfRange = errors.New("page number out of range")
	// ErrNotFound is returned when a row, index entry, or catalog object
	// cannot be located.
	ErrNotFound = errors.New("not found")
)
