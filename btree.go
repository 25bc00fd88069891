package golite

import (
	"fmt"
	"iter"
)

// DefaultMaxDepth bounds how many pages a single descent or scan may
// visit along one path before giving up. It guards against a crafted or
// corrupt B-tree whose child pointers cycle, since nothing else in a
// read-only core would ever terminate such a walk.
const DefaultMaxDepth = 32

// Navigator walks a single B-tree (table or index) rooted at a fixed
// page number. It holds no page state of its own — every page it visits
// is fetched fresh from its Pager, which owns the cache — so a Navigator
// is cheap to construct per query and safe to discard afterward.
type Navigator struct {
	pager *Pager
	root  int

	// lastErr records the error (if any) that ended the most recent
	// ScanRows/ScanIndex sequence. This is iteration status, not cached
	// page state — it carries nothing about the pages themselves and is
	// overwritten at the start of every scan.
	lastErr error
}

// NewNavigator returns a Navigator over the B-tree rooted at root,
// backed by pager.
func NewNavigator(pager *Pager, root int) *Navigator {
	return &Navigator{pager: pager, root: root}
}

// Err returns the error that stopped the most recent ScanRows or
// ScanIndex sequence early, or nil if the last scan ran to completion
// (or none has run yet). Check it after a range loop over a scan the
// same way a bufio.Scanner caller checks Err after a for-Scan loop.
func (n *Navigator) Err() error {
	return n.lastErr
}

// GetRow descends the table B-tree looking for the row with the given
// row id, resolving its payload (including following an overflow chain,
// if any) into a Record. Returns an error wrapping ErrNotFound if no row
// with that id exists.
func (n *Navigator) GetRow(rowID int64) (Record, error) {
	pageNum := n.root
	for depth := 0; ; depth++ {
		if depth > DefaultMaxDepth {
			return nil, fmt.Errorf("%w: table descent exceeded max depth", ErrMalformedPage)
		}
		page, err := n.pager.Get(pageNum)
		if err != nil {
			return nil, err
		}
		switch page.Type {
		case PageTypeLeafTable:
			for _, cell := range page.TableLeafCells {
				if cell.RowID == rowID {
					return n.resolvePayload(cell.Payload, cell.Record, cell.HasOverflow, cell.OverflowPage, cell.PayloadSize)
				}
			}
			return nil, fmt.Errorf("%w: row id %d", ErrNotFound, rowID)
		case PageTypeInteriorTable:
			next := page.RightMostPtr
			for _, cell := range page.TableInteriorCells {
				if rowID <= cell.Key {
					next = cell.LeftChildPageNum
					break
				}
			}
			pageNum = int(next)
		default:
			return nil, fmt.Errorf("%w: page %d is not part of a table btree", ErrMalformedPage, pageNum)
		}
	}
}

// GetIndexEntry descends the index B-tree looking for a record whose
// indexed columns equal key, compared with CmpPrefix so that key may
// carry only the indexed columns while index records trail a row id.
// Per the index page format, an interior cell carries a full copy of
// its record, so a match found on an interior page is returned directly
// without descending further (the equality-terminates-at-interior
// rule) — unlike a table btree, where interior cells carry no payload.
func (n *Navigator) GetIndexEntry(key Record) (Record, error) {
	pageNum := n.root
	for depth := 0; ; depth++ {
		if depth > DefaultMaxDepth {
			return nil, fmt.Errorf("%w: index descent exceeded max depth", ErrMalformedPage)
		}
		page, err := n.pager.Get(pageNum)
		if err != nil {
			return nil, err
		}
		switch page.Type {
		case PageTypeLeafIndex:
			for _, cell := range page.IndexLeafCells {
				rec, err := n.resolvePayload(cell.Payload, cell.Record, cell.HasOverflow, cell.OverflowPage, cell.PayloadSize)
				if err != nil {
					return nil, err
				}
				if CmpPrefix(key, rec) == 0 {
					return rec, nil
				}
			}
			return nil, fmt.Errorf("%w: index key", ErrNotFound)
		case PageTypeInteriorIndex:
			next := page.RightMostPtr
			for _, cell := range page.IndexInteriorCells {
				rec, err := n.resolvePayload(cell.Payload, cell.Record, cell.HasOverflow, cell.OverflowPage, cell.PayloadSize)
				if err != nil {
					return nil, err
				}
				cmp := CmpPrefix(key, rec)
				if cmp == 0 {
					return rec, nil
				}
				if cmp < 0 {
					next = cell.LeftChildPageNum
					break
				}
			}
			pageNum = int(next)
		default:
			return nil, fmt.Errorf("%w: page %d is not part of an index btree", ErrMalformedPage, pageNum)
		}
	}
}

// ScanRows walks the entire table B-tree in ascending row-id order,
// yielding (rowID, Record) pairs. If a page proves malformed partway
// through the scan, the sequence stops early and the error is available
// from Err afterward — callers that need to distinguish "scan
// completed" from "scan aborted on error" should check Err once the
// range loop ends, the same way bufio.Scanner callers check Err after a
// for-range-style Scan loop.
func (n *Navigator) ScanRows() iter.Seq2[int64, Record] {
	return func(yield func(int64, Record) bool) {
		n.lastErr = nil
		_, err := n.scanTable(n.root, 0, yield)
		n.lastErr = err
	}
}

func (n *Navigator) scanTable(pageNum int, depth int, yield func(int64, Record) bool) (bool, error) {
	if depth > DefaultMaxDepth {
		return false, fmt.Errorf("%w: table scan exceeded max depth", ErrMalformedPage)
	}
	page, err := n.pager.Get(pageNum)
	if err != nil {
		return false, err
	}
	switch page.Type {
	case PageTypeLeafTable:
		for _, cell := range page.TableLeafCells {
			rec, err := n.resolvePayload(cell.Payload, cell.Record, cell.HasOverflow, cell.OverflowPage, cell.PayloadSize)
			if err != nil {
				return false, err
			}
			if !yield(cell.RowID, rec) {
				return false, nil
			}
		}
		return true, nil
	case PageTypeInteriorTable:
		for _, cell := range page.TableInteriorCells {
			cont, err := n.scanTable(int(cell.LeftChildPageNum), depth+1, yield)
			if err != nil || !cont {
				return cont, err
			}
		}
		return n.scanTable(int(page.RightMostPtr), depth+1, yield)
	default:
		return false, fmt.Errorf("%w: page %d is not part of a table btree", ErrMalformedPage, pageNum)
	}
}

// ScanIndex walks the entire index B-tree in ascending key order,
// yielding each record (interior records included, since the index leaf
// and interior page formats both carry a full copy of the value).
func (n *Navigator) ScanIndex() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		n.lastErr = nil
		_, err := n.scanIndex(n.root, 0, yield)
		n.lastErr = err
	}
}

func (n *Navigator) scanIndex(pageNum int, depth int, yield func(Record) bool) (bool, error) {
	if depth > DefaultMaxDepth {
		return false, fmt.Errorf("%w: index scan exceeded max depth", ErrMalformedPage)
	}
	page, err := n.pager.Get(pageNum)
	if err != nil {
		return false, err
	}
	switch page.Type {
	case PageTypeLeafIndex:
		for _, cell := range page.IndexLeafCells {
			rec, err := n.resolvePayload(cell.Payload, cell.Record, cell.HasOverflow, cell.OverflowPage, cell.PayloadSize)
			if err != nil {
				return false, err
			}
			if !yield(rec) {
				return false, nil
			}
		}
		return true, nil
	case PageTypeInteriorIndex:
		for _, cell := range page.IndexInteriorCells {
			cont, err := n.scanIndex(int(cell.LeftChildPageNum), depth+1, yield)
			if err != nil || !cont {
				return cont, err
			}
			rec, err := n.resolvePayload(cell.Payload, cell.Record, cell.HasOverflow, cell.OverflowPage, cell.PayloadSize)
			if err != nil {
				return false, err
			}
			if !yield(rec) {
				return false, nil
			}
		}
		return n.scanIndex(int(page.RightMostPtr), depth+1, yield)
	default:
		return false, fmt.Errorf("%w: page %d is not part of an index btree", ErrMalformedPage, pageNum)
	}
}

// resolvePayload returns record as-is when the cell's payload fit
// entirely on its home page, or reassembles it from the on-page prefix
// plus the linked overflow chain otherwise.
func (n *Navigator) resolvePayload(onPage []byte, record Record, hasOverflow bool, overflowPage uint32, payloadSize int64) (Record, error) {
	if !hasOverflow {
		return record, nil
	}
	remaining := payloadSize - int64(len(onPage))
	tail, err := n.pager.ReadOverflowChain(overflowPage, remaining)
	if err != nil {
		return nil, err
	}
	full := make([]byte, 0, len(onPage)+len(tail))
	full = append(full, onPage...)
	full = append(full, tail...)
	return ParseRecord(full)
}
