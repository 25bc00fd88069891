package golite

import (
	"fmt"
	"iter"
	"os"
)

// RecordIterator is the iterator shape used throughout this package for
// streaming a sequence of records that may fail partway through: each
// step yields either a record and a nil error, or a nil record and the
// error that ended the sequence.
type RecordIterator = iter.Seq2[Record, error]

// Database represents an open SQLite database file. It owns the file
// handle and the pager built on top of it; all page access — by Find,
// FindInIndex, Scan, and GetSchema — goes through a short-lived
// Navigator rather than touching the file or cache directly.
type Database struct {
	file   *os.File
	Header *Header
	Pager  *Pager

	// PageCount is the reconciled page count: the in-header value when
	// it is trustworthy, otherwise derived from the file size (see
	// reconcileDatabaseSize).
	PageCount uint32
}

// Open opens an SQLite database file from the given path and prepares
// its pager. The file header and the reconciled page count are read
// immediately; individual table/index pages are read lazily through the
// pager as queries touch them.
func Open(path string) (*Database, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}

	headerBytes := make([]byte, HeaderSize)
	if _, err := file.ReadAt(headerBytes, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read database header: %w: %w", ErrIo, err)
	}

	header, err := ParseHeader(headerBytes)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to parse database header: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat database file: %w", err)
	}
	pageCount := reconcileDatabaseSize(header, info.Size())

	pager, err := NewPager(file, int(header.PageSize), int(header.ReservedSpace), pageCount, DefaultCacheSize)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Database{file: file, Header: header, Pager: pager, PageCount: pageCount}, nil
}

// Close closes the underlying database file.
func (db *Database) Close() error {
	return db.file.Close()
}

// Options summarizes the header fields that describe an opened
// database's configuration rather than its schema.
type Options struct {
	PageSize      uint32
	ReservedSpace byte
	TextEncoding  uint32
	UserVersion   uint32
	ApplicationID uint32
	SchemaFormat  uint32
}

// DBOptions returns the subset of the parsed header that describes how
// the database was configured when it was written.
func (db *Database) DBOptions() Options {
	return Options{
		PageSize:      db.Header.PageSize,
		ReservedSpace: db.Header.ReservedSpace,
		TextEncoding:  db.Header.TextEncoding,
		UserVersion:   db.Header.UserVersion,
		ApplicationID: db.Header.ApplicationID,
		SchemaFormat:  db.Header.SchemaFormat,
	}
}

// Table returns a Navigator rooted at the named table's B-tree, reading
// the schema afresh on every call. It fails with ErrNotFound if no table
// by that name exists.
func (db *Database) Table(name string) (*Navigator, error) {
	schema, err := db.GetSchema()
	if err != nil {
		return nil, err
	}
	table, ok := schema.Tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	return NewNavigator(db.Pager, table.RootPage), nil
}

// Index returns a Navigator rooted at the named index's B-tree, reading
// the schema afresh on every call. It fails with ErrNotFound if no index
// by that name exists.
func (db *Database) Index(name string) (*Navigator, error) {
	schema, err := db.GetSchema()
	if err != nil {
		return nil, err
	}
	index, ok := schema.Indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", name, ErrNotFound)
	}
	return NewNavigator(db.Pager, index.RootPage), nil
}

// Find searches for a record with a specific rowID within a table's B-Tree.
func (db *Database) Find(table TableInfo, rowID int64) (Record, error) {
	nav := NewNavigator(db.Pager, table.RootPage)
	record, err := nav.GetRow(rowID)
	if err != nil {
		return nil, err
	}
	if table.RowIDColumnIndex != -1 && len(record) > table.RowIDColumnIndex {
		record = append(Record(nil), record...)
		record[table.RowIDColumnIndex] = rowID
	}
	return record, nil
}

// FindInIndex searches for a key within an index's B-Tree and returns the
// corresponding rowID. The key is a Record containing the values of the
// indexed columns; the matching index record trails those columns with
// the row id, which is what is returned.
func (db *Database) FindInIndex(index IndexInfo, key Record) (int64, error) {
	nav := NewNavigator(db.Pager, index.RootPage)
	record, err := nav.GetIndexEntry(key)
	if err != nil {
		return 0, err
	}
	if len(record) == 0 {
		return 0, fmt.Errorf("malformed index record: no columns")
	}
	rowid, ok := record[len(record)-1].(int64)
	if !ok {
		return 0, fmt.Errorf("malformed index record: rowid is not an integer")
	}
	return rowid, nil
}

// Scan returns an iterator over all records in a table, in ascending
// row-id order. The iterator can be used with a for...range loop.
func (db *Database) Scan(table TableInfo) RecordIterator {
	return func(yield func(Record, error) bool) {
		nav := NewNavigator(db.Pager, table.RootPage)
		for rowID, record := range nav.ScanRows() {
			if table.RowIDColumnIndex != -1 && len(record) > table.RowIDColumnIndex {
				record = append(Record(nil), record...)
				record[table.RowIDColumnIndex] = rowID
			}
			if !yield(record, nil) {
				return
			}
		}
		if err := nav.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// TableScan returns table's full row sequence as a RecordIterator; it is
// the same sequence Scan returns.
func (db *Database) TableScan(table TableInfo) RecordIterator {
	return db.Scan(table)
}

// IndexScan returns an iterator over every record in an index's B-Tree,
// in ascending key order.
func (db *Database) IndexScan(index IndexInfo) RecordIterator {
	return func(yield func(Record, error) bool) {
		nav := NewNavigator(db.Pager, index.RootPage)
		for record := range nav.ScanIndex() {
			if !yield(record, nil) {
				return
			}
		}
		if err := nav.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// GetSchema reads and parses the entire database schema from the sqlite_schema table.
func (db *Database) GetSchema() (*Schema, error) {
	schema := &Schema{
		Tables:  make(map[string]TableInfo),
		Indexes: make(map[string]IndexInfo),
	}

	// The schema table is always rooted at page 1.
	// We create a "bootstrap" TableInfo for the schema table itself to use the Scan method.
	// The schema table has no INTEGER PRIMARY KEY, so its RowIDColumnIndex is -1.
	schemaTableInfo := TableInfo{
		Name:             "sqlite_schema",
		RootPage:         1,
		SQL:              "CREATE TABLE sqlite_schema(type text, name text, tbl_name text, rootpage integer, sql text)",
		RowIDColumnIndex: -1,
	}
	schema.Tables[schemaTableInfo.Name] = schemaTableInfo

	for record, err := range db.Scan(schemaTableInfo) {
		if err != nil {
			return nil, fmt.Errorf("failed to scan schema table: %w", err)
		}

		// Schema table format: type, name, tbl_name, rootpage, sql
		if len(record) < 5 {
			return nil, fmt.Errorf("malformed schema record: expected at least 5 columns, got %d", len(record))
		}

		itemType, ok := record[0].(string)
		if !ok {
			return nil, fmt.Errorf("malformed schema record: column 0 (type) is not a string")
		}
		switch itemType {
		case "table":
			name, okName := record[1].(string)
			rootPage, okRootPage := record[3].(int64)
			sql, okSQL := record[4].(string)
			if !okName || !okRootPage || !okSQL {
				return nil, fmt.Errorf("malformed schema record for table %q: one or more columns have an unexpected type", name)
			}

			columns, rowIndex, err := ParseTableSQL(sql)
			if err != nil {
				return nil, fmt.Errorf("failed to parse schema for table %q: %w", name, err)
			}
			schema.Tables[name] = TableInfo{
				Name:             name,
				RootPage:         int(rootPage),
				SQL:              sql,
				Columns:          columns,
				RowIDColumnIndex: rowIndex,
			}
		case "index":
			name, okName := record[1].(string)
			tableName, okTableName := record[2].(string)
			rootPage, okRootPage := record[3].(int64)
			sql, okSQL := record[4].(string)
			if !okName || !okTableName || !okRootPage || !okSQL {
				return nil, fmt.Errorf("malformed schema record for index %q: one or more columns have an unexpected type", name)
			}
			schema.Indexes[name] = IndexInfo{
				Name:      name,
				TableName: tableName,
				RootPage:  int(rootPage),
				SQL:       sql,
			}
		}
	}
	return schema, nil
}
