package golite

import (
	"bytes"
	"os"
	"testing"
)

func TestParsePage(t *testing.T) {
	t.Run("parse page 1 header and cells", func(t *testing.T) {
		dbPath := createTestDB(t, "page_test.sqlite")
		data, err := os.ReadFile(dbPath)
		if err != nil {
			t.Fatalf("failed to read test database file: %v", err)
		}

		// For this test, we only need the file header to get the page size.
		fileHeader, err := ParseHeader(data[:HeaderSize])
		if err != nil {
			t.Fatalf("failed to parse file header: %v", err)
		}

		page1Data := data[:fileHeader.PageSize]
		page, err := ParsePage(page1Data, 1, int(fileHeader.UsablePageSize()))
		if err != nil {
			t.Fatalf("ParsePage() failed with error: %v", err)
		}

		if page.Type != PageTypeLeafTable {
			t.Errorf("expected page 1 to be a leaf table page (0x0d), but got 0x%02x", page.Type)
		}

		// The schema table is on page 1 and should have two entries: the
		// 'test' table and its 'idx_name' index.
		if page.CellCount != 2 {
			t.Errorf("expected page 1 to have 2 cells, but got %d", page.CellCount)
		}

		if len(page.CellPointers) != 2 {
			t.Errorf("expected to parse 2 cell pointers, but got %d", len(page.CellPointers))
		}

		if len(page.TableLeafCells) != 2 {
			t.Fatalf("expected to parse 2 cells, but got %d", len(page.TableLeafCells))
		}

		cell := page.TableLeafCells[0]
		// The sqlite_schema table's first row is for our 'test' table, and its rowid should be 1.
		if cell.RowID != 1 {
			t.Errorf("expected cell rowID to be 1, but got %d", cell.RowID)
		}

		if cell.PayloadSize <= 0 {
			t.Errorf("expected cell payload size to be positive, but got %d", cell.PayloadSize)
		}
	})

	t.Run("page-1 header is offset by the 100-byte file header", func(t *testing.T) {
		dbPath := createTestDB(t, "page_offset_test.sqlite")
		data, err := os.ReadFile(dbPath)
		if err != nil {
			t.Fatalf("failed to read test database file: %v", err)
		}
		fileHeader, err := ParseHeader(data[:HeaderSize])
		if err != nil {
			t.Fatalf("failed to parse file header: %v", err)
		}

		page1Data := data[:fileHeader.PageSize]
		page, err := ParsePage(page1Data, 1, int(fileHeader.UsablePageSize()))
		if err != nil {
			t.Fatalf("ParsePage() failed with error: %v", err)
		}
		// Page 1 of the fixture holds only the two schema rows, so every
		// cell pointer must land after the file header.
		for i, ptr := range page.CellPointers {
			if int(ptr) < HeaderSize {
				t.Errorf("cell pointer %d (%d) falls inside the 100-byte file header", i, ptr)
			}
		}
	})
}

// TestPage_RoundTripFullDatabase exercises scenario S6: every page of the
// canonical fixture database, re-serialized, reproduces the exact input
// bytes, including its reserved trailer and any inter-cell gaps.
func TestPage_RoundTripFullDatabase(t *testing.T) {
	dbPath := createTestDB(t, "page_roundtrip_test.sqlite")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	for pageNum := 1; pageNum <= int(db.PageCount); pageNum++ {
		raw, err := db.Pager.ReadRaw(pageNum)
		if err != nil {
			t.Fatalf("ReadRaw(%d) failed: %v", pageNum, err)
		}
		page, err := db.Pager.Get(pageNum)
		if err != nil {
			// Not every page is a B-tree page variant ParsePage recognizes
			// (overflow and freelist pages have no type byte at the page
			// header offset this core understands); only B-tree pages are
			// in scope for round-trip here.
			continue
		}
		if !bytes.Equal(page.Serialize(), raw) {
			t.Errorf("page %d: Serialize() does not reproduce the original bytes", pageNum)
		}
	}
}

// TestOnPageThreshold exercises the on_page(P) formula at the boundary
// where a cell stops fitting entirely on its home page: P at and just
// past the non-overflowing maximum X for both table and index cells.
// Up to X, on_page(P) == P (the whole payload is on-page); just past X,
// it drops to the minimum fill M rather than continuing to track P,
// since the excess now lives in the overflow chain.
func TestOnPageThreshold(t *testing.T) {
	const usableSize = 4096
	const x, m = 4061, 489 // X = usableSize-35, M = (usableSize-12)*32/255 - 23

	if got := onPageThreshold(usableSize, false, 0); got != 0 {
		t.Errorf("onPageThreshold(0) = %d, want 0", got)
	}
	if got := onPageThreshold(usableSize, false, x); got != x {
		t.Errorf("onPageThreshold(X=%d) = %d, want %d (fits entirely on page)", x, got, x)
	}
	if got := onPageThreshold(usableSize, false, x+1); got != m {
		t.Errorf("onPageThreshold(X+1=%d) = %d, want %d (overflow begins, fill drops to M)", x+1, got, m)
	}

	const xIndex = 1002 // X = (usableSize-12)*64/255 - 23
	if got := onPageThreshold(usableSize, true, xIndex); got != xIndex {
		t.Errorf("index onPageThreshold(X=%d) = %d, want %d", xIndex, got, xIndex)
	}
	if got := onPageThreshold(usableSize, true, xIndex+1); got != m {
		t.Errorf("index onPageThreshold(X+1=%d) = %d, want %d", xIndex+1, got, m)
	}
}

func TestReadVarint(t *testing.T) {
	testCases := []struct {
		name    string
		input   []byte
		wantVal int64
		wantLen int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"one", []byte{0x01}, 1, 1},
		{"127", []byte{0x7f}, 127, 1},
		{"128", []byte{0x81, 0x00}, 128, 2},
		{"240", []byte{0x81, 0x70}, 240, 2},
		{"2024", []byte{0x8f, 0x68}, 2024, 2},
		{"16383", []byte{0xff, 0x7f}, 16383, 2},
		{"16384", []byte{0x81, 0x80, 0x00}, 16384, 3},
		{"2097151", []byte{0xff, 0xff, 0x7f}, 2097151, 3},
		{"max 9-byte", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, -1, 9},
		{"zero in 9-bytes", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, 0, 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			val, length := readVarint(tc.input)
			if val != tc.wantVal {
				t.Errorf("readVarint() got value = %v, want %v", val, tc.wantVal)
			}
			if length != tc.wantLen {
				t.Errorf("readVarint() got length = %v, want %v", length, tc.wantLen)
			}
		})
	}
}
