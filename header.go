package golite

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderString is the required 16-byte string at the beginning of a valid SQLite file.
	HeaderString = "SQLite format 3\x00"
	// HeaderSize is the size of the SQLite database header in bytes.
	HeaderSize = 100

	// expectedMaxPayloadFraction, expectedMinPayloadFraction, and
	// expectedLeafPayloadFraction are the only values SQLite has ever
	// written to these header fields; any other value means the file was
	// not produced by SQLite (or is corrupt).
	expectedMaxPayloadFraction  = 64
	expectedMinPayloadFraction  = 32
	expectedLeafPayloadFraction = 32
)

// Header represents the parsed 100-byte header of an SQLite database file.
// It contains key metadata about the database structure.
type Header struct {
	// PageSize is the database page size in bytes. Must be a power of two
	// between 512 and 32768 inclusive, or 65536 (encoded on disk as 1).
	PageSize uint32
	// WriteVersion and ReadVersion are the file format write/read version
	// numbers (1 = legacy rollback journal, 2 = WAL).
	WriteVersion byte
	ReadVersion  byte
	// ReservedSpace is the number of bytes reserved at the end of every
	// page for extension use. UsablePageSize = PageSize - ReservedSpace.
	ReservedSpace byte
	// ChangeCounter is the file change counter.
	ChangeCounter uint32
	// DatabaseSize is the raw in-header page count. Use Open's reconciled
	// value (Database.PageCount) rather than this field directly.
	DatabaseSize uint32
	// FreelistTrunk is the page number of the first freelist trunk page,
	// or 0 if the freelist is empty.
	FreelistTrunk uint32
	// FreelistPages is the total number of freelist pages.
	FreelistPages uint32
	// SchemaCookie is used to detect schema changes.
	SchemaCookie uint32
	// SchemaFormat is the schema format number. 1, 2, 3, and 4 are supported.
	SchemaFormat uint32
	// DefaultCacheSize is the suggested default page cache size, in pages.
	DefaultCacheSize int32
	// LargestRootPage is non-zero when the database is in auto- or
	// incremental-vacuum mode.
	LargestRootPage uint32
	// TextEncoding defines the text encoding used by the database.
	// 1: UTF-8, 2: UTF-16le, 3: UTF-16be.
	TextEncoding uint32
	// UserVersion is the "user version" number, read and set by the user_version pragma.
	UserVersion uint32
	// IncrementalVacuum is true when incremental-vacuum mode is enabled.
	IncrementalVacuum bool
	// ApplicationID is the "Application ID" set by the application_id pragma.
	ApplicationID uint32
	// VersionValidFor is the change-counter value for which DatabaseSize
	// is trustworthy; see the DatabaseSize reconciliation rule below.
	VersionValidFor uint32
	// SQLiteVersion is the version of SQLite that last wrote the file,
	// encoded as described in the file-format reference (e.g. 3046001 for
	// "3.46.1").
	SQLiteVersion uint32
}

// ParseHeader reads the 100-byte header data and returns a parsed Header
// struct. It validates the magic string, page size, and fixed payload
// fractions, but does not reconcile DatabaseSize against the file size —
// that requires knowing the file length, which Open does once the file
// is open (see reconcileDatabaseSize).
func ParseHeader(data []byte) (*Header, error) {
	if len(data) != HeaderSize {
		return nil, fmt.Errorf("%w: expected %d header bytes, got %d", ErrInvalidHeader, HeaderSize, len(data))
	}

	if string(data[0:16]) != HeaderString {
		return nil, fmt.Errorf("%w: bad magic string", ErrInvalidHeader)
	}

	rawPageSize := binary.BigEndian.Uint16(data[16:18])
	pageSize := uint32(rawPageSize)
	if rawPageSize == 1 {
		pageSize = 65536
	}
	if !isValidPageSize(pageSize) {
		return nil, fmt.Errorf("%w: invalid page size %d", ErrInvalidHeader, pageSize)
	}

	maxFrac, minFrac, leafFrac := data[21], data[22], data[23]
	if maxFrac != expectedMaxPayloadFraction || minFrac != expectedMinPayloadFraction || leafFrac != expectedLeafPayloadFraction {
		return nil, fmt.Errorf("%w: unexpected payload fractions %d/%d/%d", ErrInvalidHeader, maxFrac, minFrac, leafFrac)
	}

	h := &Header{
		PageSize:          pageSize,
		WriteVersion:      data[18],
		ReadVersion:       data[19],
		ReservedSpace:     data[20],
		ChangeCounter:     binary.BigEndian.Uint32(data[24:28]),
		DatabaseSize:      binary.BigEndian.Uint32(data[28:32]),
		FreelistTrunk:     binary.BigEndian.Uint32(data[32:36]),
		FreelistPages:     binary.BigEndian.Uint32(data[36:40]),
		SchemaCookie:      binary.BigEndian.Uint32(data[40:44]),
		SchemaFormat:      binary.BigEndian.Uint32(data[44:48]),
		DefaultCacheSize:  int32(binary.BigEndian.Uint32(data[48:52])),
		LargestRootPage:   binary.BigEndian.Uint32(data[52:56]),
		TextEncoding:      binary.BigEndian.Uint32(data[56:60]),
		UserVersion:       binary.BigEndian.Uint32(data[60:64]),
		IncrementalVacuum: binary.BigEndian.Uint32(data[64:68]) != 0,
		ApplicationID:     binary.BigEndian.Uint32(data[68:72]),
		VersionValidFor:   binary.BigEndian.Uint32(data[92:96]),
		SQLiteVersion:     binary.BigEndian.Uint32(data[96:100]),
	}

	return h, nil
}

// isValidPageSize reports whether n is a legal SQLite page size: a power
// of two in [512, 32768], or 65536.
func isValidPageSize(n uint32) bool {
	if n == 65536 {
		return true
	}
	if n < 512 || n > 32768 {
		return false
	}
	return n&(n-1) == 0
}

// UsablePageSize returns PageSize minus ReservedSpace: the maximum
// addressable byte range inside a page for cells and cell pointers.
func (h *Header) UsablePageSize() uint32 {
	return h.PageSize - uint32(h.ReservedSpace)
}

// reconcileDatabaseSize applies the rule from the file-format reference:
// the in-header page count is trusted iff it is non-zero AND
// ChangeCounter == VersionValidFor; otherwise the page count is derived
// from the file size.
func reconcileDatabaseSize(h *Header, fileSize int64) uint32 {
	if h.DatabaseSize != 0 && h.ChangeCounter == h.VersionValidFor {
		return h.DatabaseSize
	}
	return uint32(fileSize / int64(h.PageSize))
}
