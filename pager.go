package golite

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of parsed pages the pager keeps
// in its bounded LRU cache.
const DefaultCacheSize = 10

// maxFreelistDepth bounds how many trunk pages FreelistPages will walk
// before giving up, guarding against a crafted or corrupt trunk chain
// that cycles back on itself (see design notes on cyclic page
// structures).
const maxFreelistDepth = 1 << 20

// Pager opens the database file and serves parsed pages from a bounded
// LRU cache, reading and parsing on a cache miss. It owns the file
// descriptor exclusively; navigators only ever hold a non-owning
// reference to a Pager.
//
// Single-threaded cooperative model (see spec §5): Pager is not
// goroutine-safe and makes no attempt to be — GetMut's exclusive-borrow
// check is a programmer-error guard against re-entrant misuse within one
// goroutine's call chain, not a concurrency primitive.
type Pager struct {
	file       *os.File
	pageSize   int
	usableSize int
	numPages   uint32
	cache      *lru.Cache[int, *Page]

	mutableBorrowed bool
}

// NewPager constructs a Pager over an already-open file. cacheSize <= 0
// uses DefaultCacheSize.
func NewPager(file *os.File, pageSize int, reservedSpace int, numPages uint32, cacheSize int) (*Pager, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[int, *Page](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing page cache: %v", ErrIo, err)
	}
	return &Pager{
		file:       file,
		pageSize:   pageSize,
		usableSize: pageSize - reservedSpace,
		numPages:   numPages,
		cache:      cache,
	}, nil
}

// NumPages returns the number of pages in the database file.
func (p *Pager) NumPages() uint32 { return p.numPages }

// PageSize returns the database's page size in bytes.
func (p *Pager) PageSize() int { return p.pageSize }

// UsableSize returns PageSize minus the reserved trailer.
func (p *Pager) UsableSize() int { return p.usableSize }

// ReadRaw reads the raw bytes of page pageNum directly from the file,
// bypassing the cache.
func (p *Pager) ReadRaw(pageNum int) ([]byte, error) {
	if pageNum < 1 || uint32(pageNum) > p.numPages {
		return nil, fmt.Errorf("%w: page %d (database has %d pages)", ErrOutOfRange, pageNum, p.numPages)
	}
	buf := make([]byte, p.pageSize)
	offset := int64(pageNum-1) * int64(p.pageSize)
	if _, err := p.file.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("%w: reading page %d: %v", ErrIo, pageNum, err)
	}
	return buf, nil
}

// Get returns the parsed page pageNum, serving it from the cache when
// present and otherwise reading, parsing, and caching it. The returned
// *Page must not be mutated by callers — it may be handed out again from
// the cache, and may be evicted (but not invalidated in place; eviction
// only drops the pager's own reference) by a subsequent Get call.
func (p *Pager) Get(pageNum int) (*Page, error) {
	if page, ok := p.cache.Get(pageNum); ok {
		return page, nil
	}
	raw, err := p.ReadRaw(pageNum)
	if err != nil {
		return nil, err
	}
	page, err := ParsePage(raw, pageNum, p.usableSize)
	if err != nil {
		return nil, err
	}
	p.cache.Add(pageNum, page)
	return page, nil
}

// GetMut is like Get but marks the page as exclusively borrowed until
// ReleaseMut is called. Only one mutable borrow may be outstanding at a
// time; calling GetMut while one is already outstanding is a programmer
// error and panics rather than returning an error, per the error-handling
// policy in spec §7.
func (p *Pager) GetMut(pageNum int) (*Page, error) {
	if p.mutableBorrowed {
		panic("golite: pager: GetMut called while a mutable borrow is already outstanding")
	}
	page, err := p.Get(pageNum)
	if err != nil {
		return nil, err
	}
	p.mutableBorrowed = true
	return page, nil
}

// ReleaseMut releases the exclusive mutable borrow taken by GetMut.
func (p *Pager) ReleaseMut() {
	p.mutableBorrowed = false
}

// Put replaces the cache entry for pageNum with page.
func (p *Pager) Put(pageNum int, page *Page) {
	p.cache.Add(pageNum, page)
}

// Sync is a no-op: durability and the write path are out of scope for
// this core (see spec Non-goals). It exists so a future write path has
// a symmetrical place to flush dirty pages without changing this
// type's public shape.
func (p *Pager) Sync() error {
	return nil
}

// ReadOverflowChain reassembles the tail of a cell's payload by walking
// the linked chain of overflow pages starting at first, reading exactly
// remaining bytes total. Each overflow page begins with a big-endian u32
// pointer to the next overflow page (0 on the last page of the chain)
// followed by usable-4 bytes of payload.
func (p *Pager) ReadOverflowChain(first uint32, remaining int64) ([]byte, error) {
	out := make([]byte, 0, remaining)
	page := first
	for remaining > 0 {
		if page == 0 {
			return nil, fmt.Errorf("%w: overflow chain ended with %d bytes still unread", ErrMalformedPage, remaining)
		}
		raw, err := p.ReadRaw(int(page))
		if err != nil {
			return nil, err
		}
		r := NewReader(raw)
		next, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: overflow page %d truncated", ErrMalformedPage, page)
		}
		chunk := p.usableSize - 4
		if int64(chunk) > remaining {
			chunk = int(remaining)
		}
		data, err := r.Bytes(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: overflow page %d shorter than usable size", ErrMalformedPage, page)
		}
		out = append(out, data...)
		remaining -= int64(chunk)
		page = next
	}
	return out, nil
}

// FreelistPages walks the freelist trunk chain starting at firstTrunk
// and returns the set of every page number reachable from it — both
// trunk pages and the leaf pages they list. firstTrunk == 0 means there
// is no freelist, and the empty set is returned.
//
// Each trunk page begins with a big-endian u32 next-trunk pointer (0 if
// none) and a big-endian u32 leaf count, followed by that many u32 leaf
// page numbers.
func (p *Pager) FreelistPages(firstTrunk uint32) (map[uint32]struct{}, error) {
	free := make(map[uint32]struct{})
	trunk := firstTrunk
	for depth := 0; trunk != 0; depth++ {
		if depth > maxFreelistDepth {
			return nil, fmt.Errorf("%w: freelist trunk chain exceeds %d pages", ErrMalformedPage, maxFreelistDepth)
		}
		if trunk < 1 || trunk > p.numPages {
			return nil, fmt.Errorf("%w: freelist trunk page %d out of range", ErrMalformedPage, trunk)
		}
		raw, err := p.ReadRaw(int(trunk))
		if err != nil {
			return nil, err
		}
		r := NewReader(raw)
		next, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: freelist trunk page %d truncated", ErrMalformedPage, trunk)
		}
		leafCount, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: freelist trunk page %d truncated", ErrMalformedPage, trunk)
		}
		free[trunk] = struct{}{}

		for i := 0; i < int(leafCount); i++ {
			leaf, err := r.U32()
			if err != nil {
				return nil, fmt.Errorf("%w: freelist trunk page %d leaf count %d exceeds page size", ErrMalformedPage, trunk, leafCount)
			}
			free[leaf] = struct{}{}
		}
		trunk = next
	}
	return free, nil
}
