package golite

import (
	"encoding/binary"
	"fmt"
)

const (
	// PageTypeInteriorIndex is a B-Tree interior index page.
	PageTypeInteriorIndex byte = 0x02
	// PageTypeInteriorTable is a B-Tree interior table page.
	PageTypeInteriorTable byte = 0x05
	// PageTypeLeafIndex is a B-Tree leaf index page.
	PageTypeLeafIndex byte = 0x0a
	// PageTypeLeafTable is a B-Tree leaf table page.
	PageTypeLeafTable byte = 0x0d
)

// LeafTableCell represents a cell in a leaf table page (type 0x0d):
// varint payload_size, varint row_id, payload.
type LeafTableCell struct {
	PayloadSize  int64
	RowID        int64
	Payload      []byte // on-page prefix, length == on_page(PayloadSize)
	Record       Record // nil when Payload was truncated by overflow
	HasOverflow  bool
	OverflowPage uint32
}

// LeafIndexCell represents a cell in a leaf index page (type 0x0a):
// varint payload_size, payload.
type LeafIndexCell struct {
	PayloadSize  int64
	Payload      []byte
	Record       Record
	HasOverflow  bool
	OverflowPage uint32
}

// InteriorTableCell represents a cell in an interior table page (type
// 0x05): u32 left_child, varint row_id_key. No payload.
type InteriorTableCell struct {
	LeftChildPageNum uint32
	Key              int64
}

// InteriorIndexCell represents a cell in an interior index page (type
// 0x02): u32 left_child, varint payload_size, payload.
type InteriorIndexCell struct {
	LeftChildPageNum uint32
	PayloadSize      int64
	Payload          []byte
	Record           Record
	HasOverflow      bool
	OverflowPage     uint32
}

// Page represents a single parsed page of one of the four B-tree page
// variants.
type Page struct {
	// Raw holds the exact bytes this Page was parsed from, including its
	// reserved trailer and any inter-cell gaps. Since this core never
	// mutates a page (there is no write path — see spec Non-goals),
	// Serialize returning Raw verbatim is not a shortcut around a missing
	// encoder: it IS the correct encoder for an object that is never
	// edited after being parsed. A write path would need to rebuild Raw
	// from the cell fields instead; that rebuild belongs to the insertion
	// work this core deliberately excludes.
	Raw          []byte
	Number       int
	Type         byte
	Freeblock    uint16
	CellCount    uint16
	CellContent  uint16
	Fragmented   byte
	RightMostPtr uint32 // only meaningful for interior page types
	CellPointers []uint16

	TableLeafCells     []LeafTableCell
	TableInteriorCells []InteriorTableCell
	IndexLeafCells     []LeafIndexCell
	IndexInteriorCells []InteriorIndexCell
}

// IsInterior reports whether the page is one of the two interior
// variants (and so carries a right-most-child pointer).
func (p *Page) IsInterior() bool {
	return p.Type == PageTypeInteriorTable || p.Type == PageTypeInteriorIndex
}

// IsIndex reports whether the page belongs to an index B-tree rather
// than a table B-tree.
func (p *Page) IsIndex() bool {
	return p.Type == PageTypeLeafIndex || p.Type == PageTypeInteriorIndex
}

// Serialize returns the page's exact on-disk bytes. See the Raw field's
// doc comment for why this is the original buffer rather than a
// rebuild-from-cells encoder.
func (p *Page) Serialize() []byte {
	return p.Raw
}

// headerOffset returns the byte offset, within data, at which a page's
// own 8- or 12-byte header begins. Page 1 is the only page affected: its
// header is preceded by the 100-byte file header, but cell pointers
// remain relative to the start of the page (offset 0), not to offset
// 100 — only the B-tree page header itself is shifted.
func headerOffset(pageNum int) int {
	if pageNum == 1 {
		return HeaderSize
	}
	return 0
}

// ParsePage reads a raw page buffer and parses it into a Page. pageNum
// is the 1-based page number (used to locate the header on page 1).
// usableSize is PageSize - ReservedSpace, needed to compute the on-page
// payload threshold for cells that might overflow.
func ParsePage(data []byte, pageNum int, usableSize int) (*Page, error) {
	offset := headerOffset(pageNum)
	if offset+8 > len(data) {
		return nil, fmt.Errorf("%w: page %d header truncated", ErrMalformedPage, pageNum)
	}
	header := data[offset:]

	p := &Page{
		Raw:         data,
		Number:      pageNum,
		Type:        header[0],
		Freeblock:   binary.BigEndian.Uint16(header[1:3]),
		CellCount:   binary.BigEndian.Uint16(header[3:5]),
		CellContent: binary.BigEndian.Uint16(header[5:7]),
		Fragmented:  header[7],
	}

	switch p.Type {
	case PageTypeLeafTable, PageTypeLeafIndex, PageTypeInteriorTable, PageTypeInteriorIndex:
	default:
		return nil, fmt.Errorf("%w: unknown page type 0x%02x on page %d", ErrMalformedPage, p.Type, pageNum)
	}

	headerSize := 8
	if p.IsInterior() {
		headerSize = 12
		if offset+12 > len(data) {
			return nil, fmt.Errorf("%w: interior page %d header truncated", ErrMalformedPage, pageNum)
		}
		p.RightMostPtr = binary.BigEndian.Uint32(header[8:12])
	}

	p.CellPointers = make([]uint16, p.CellCount)
	cellPointerStart := offset + headerSize
	for i := 0; i < int(p.CellCount); i++ {
		pointerOffset := cellPointerStart + i*2
		if pointerOffset+2 > len(data) {
			return nil, fmt.Errorf("%w: cell pointer %d truncated on page %d", ErrMalformedPage, i, pageNum)
		}
		ptr := binary.BigEndian.Uint16(data[pointerOffset : pointerOffset+2])
		if int(ptr) >= len(data) {
			return nil, fmt.Errorf("%w: cell pointer %d (%d) out of range on page %d", ErrMalformedPage, i, ptr, pageNum)
		}
		p.CellPointers[i] = ptr
	}

	if err := parseCells(p, data, pageNum, usableSize); err != nil {
		return nil, err
	}

	return p, nil
}

func parseCells(p *Page, data []byte, pageNum int, usableSize int) error {
	switch p.Type {
	case PageTypeLeafTable:
		p.TableLeafCells = make([]LeafTableCell, p.CellCount)
		for i, cellOffset := range p.CellPointers {
			cellData := data[int(cellOffset):]
			payloadSize, n := readVarint(cellData)
			rowID, m := readVarint(cellData[n:])
			bodyStart := n + m
			cell, err := readLeafPayload(cellData[bodyStart:], payloadSize, usableSize, false)
			if err != nil {
				return fmt.Errorf("cell %d on page %d: %w", i, pageNum, err)
			}
			p.TableLeafCells[i] = LeafTableCell{
				PayloadSize:  payloadSize,
				RowID:        rowID,
				Payload:      cell.onPage,
				Record:       cell.record,
				HasOverflow:  cell.hasOverflow,
				OverflowPage: cell.overflowPage,
			}
		}
	case PageTypeLeafIndex:
		p.IndexLeafCells = make([]LeafIndexCell, p.CellCount)
		for i, cellOffset := range p.CellPointers {
			cellData := data[int(cellOffset):]
			payloadSize, n := readVarint(cellData)
			cell, err := readLeafPayload(cellData[n:], payloadSize, usableSize, true)
			if err != nil {
				return fmt.Errorf("cell %d on page %d: %w", i, pageNum, err)
			}
			p.IndexLeafCells[i] = LeafIndexCell{
				PayloadSize:  payloadSize,
				Payload:      cell.onPage,
				Record:       cell.record,
				HasOverflow:  cell.hasOverflow,
				OverflowPage: cell.overflowPage,
			}
		}
	case PageTypeInteriorTable:
		p.TableInteriorCells = make([]InteriorTableCell, p.CellCount)
		for i, cellOffset := range p.CellPointers {
			cellData := data[int(cellOffset):]
			if len(cellData) < 4 {
				return fmt.Errorf("%w: cell %d on page %d truncated", ErrMalformedPage, i, pageNum)
			}
			leftChild := binary.BigEndian.Uint32(cellData[0:4])
			key, _ := readVarint(cellData[4:])
			p.TableInteriorCells[i] = InteriorTableCell{LeftChildPageNum: leftChild, Key: key}
		}
	case PageTypeInteriorIndex:
		p.IndexInteriorCells = make([]InteriorIndexCell, p.CellCount)
		for i, cellOffset := range p.CellPointers {
			cellData := data[int(cellOffset):]
			if len(cellData) < 4 {
				return fmt.Errorf("%w: cell %d on page %d truncated", ErrMalformedPage, i, pageNum)
			}
			leftChild := binary.BigEndian.Uint32(cellData[0:4])
			payloadSize, n := readVarint(cellData[4:])
			cell, err := readLeafPayload(cellData[4+n:], payloadSize, usableSize, true)
			if err != nil {
				return fmt.Errorf("cell %d on page %d: %w", i, pageNum, err)
			}
			p.IndexInteriorCells[i] = InteriorIndexCell{
				LeftChildPageNum: leftChild,
				PayloadSize:      payloadSize,
				Payload:          cell.onPage,
				Record:           cell.record,
				HasOverflow:      cell.hasOverflow,
				OverflowPage:     cell.overflowPage,
			}
		}
	}
	return nil
}

// payloadCell is the common result of reading a (possibly overflowing)
// cell payload: the on-page prefix, the parsed record when the payload
// fit entirely on the page, and overflow bookkeeping otherwise.
type payloadCell struct {
	onPage       []byte
	record       Record
	hasOverflow  bool
	overflowPage uint32
}

// readLeafPayload reads the on-page portion of a cell payload (and the
// trailing overflow pointer, if any) starting at body. payloadSize is
// the cell's total (on-page + overflow) payload size, as read from the
// cell's leading varint.
func readLeafPayload(body []byte, payloadSize int64, usableSize int, isIndex bool) (payloadCell, error) {
	onPage := onPageThreshold(int64(usableSize), isIndex, payloadSize)
	if onPage < 0 || int64(len(body)) < onPage {
		return payloadCell{}, fmt.Errorf("%w: payload of %d bytes truncated (want %d on-page bytes, have %d)", ErrMalformedPage, payloadSize, onPage, len(body))
	}
	prefix := body[:onPage]

	if onPage == payloadSize {
		record, err := ParseRecord(prefix)
		if err != nil {
			return payloadCell{}, err
		}
		return payloadCell{onPage: prefix, record: record}, nil
	}

	// Overflow: a 4-byte page pointer follows the on-page prefix. The
	// chain itself is not followed (see design notes); subsequent cell
	// parsing only needs us to have consumed exactly onPage+4 bytes here,
	// which the caller does by re-deriving the next cell's offset from
	// its own cell pointer rather than from this cell's length.
	if int64(len(body)) < onPage+4 {
		return payloadCell{}, fmt.Errorf("%w: overflow pointer truncated", ErrMalformedPage)
	}
	overflowPage := binary.BigEndian.Uint32(body[onPage : onPage+4])
	return payloadCell{onPage: prefix, hasOverflow: true, overflowPage: overflowPage}, nil
}

// onPageThreshold computes the number of payload bytes SQLite stores
// on the cell's home page before overflowing to a linked chain of
// overflow pages, per the file-format reference's formula. usableSize is
// PageSize - ReservedSpace. All arithmetic is integer division.
func onPageThreshold(usableSize int64, isIndex bool, payloadSize int64) int64 {
	u := usableSize
	var x int64
	if isIndex {
		x = (u-12)*64/255 - 23
	} else {
		x = u - 35
	}
	m := (u-12)*32/255 - 23

	if payloadSize <= x {
		return payloadSize
	}
	var k int64
	if payloadSize < m {
		k = m
	} else {
		k = m + (payloadSize-m)%(u-4)
	}
	if k <= x {
		return k
	}
	return m
}
