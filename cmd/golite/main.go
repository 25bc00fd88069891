// Command golite opens a single SQLite database file and reports its
// schema and page layout. It is a thin shell around the golite package:
// there is no SQL execution, no REPL, and no write path — those are out
// of scope for this core.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/tidalcode/golite"
)

var cli struct {
	Path string `arg:"" required:"" type:"existingfile" help:"Path to the SQLite database file."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("golite"),
		kong.Description("Read-only inspector for SQLite 3 database files."),
		kong.UsageOnError(),
	)

	if err := run(cli.Path); err != nil {
		fmt.Fprintf(os.Stderr, "golite: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	db, err := golite.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	fmt.Printf("page size:   %d\n", db.Header.PageSize)
	fmt.Printf("page count:  %d\n", db.PageCount)
	fmt.Printf("reserved:    %d bytes\n", db.Header.ReservedSpace)
	fmt.Printf("encoding:    %s\n", textEncodingName(db.Header.TextEncoding))
	fmt.Printf("user_version: %d\n", db.Header.UserVersion)

	schema, err := db.GetSchema()
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	tableNames := make([]string, 0, len(schema.Tables))
	for name := range schema.Tables {
		if name == "sqlite_schema" {
			continue
		}
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)

	fmt.Printf("\ntables (%d):\n", len(tableNames))
	for _, name := range tableNames {
		table := schema.Tables[name]
		fmt.Printf("  %-20s root=%-6d %s\n", table.Name, table.RootPage, table.SQL)
	}

	indexNames := make([]string, 0, len(schema.Indexes))
	for name := range schema.Indexes {
		indexNames = append(indexNames, name)
	}
	sort.Strings(indexNames)

	fmt.Printf("\nindexes (%d):\n", len(indexNames))
	for _, name := range indexNames {
		index := schema.Indexes[name]
		fmt.Printf("  %-20s on=%-15s root=%-6d %s\n", index.Name, index.TableName, index.RootPage, index.SQL)
	}

	return nil
}

func textEncodingName(encoding uint32) string {
	switch encoding {
	case 1:
		return "UTF-8"
	case 2:
		return "UTF-16le"
	case 3:
		return "UTF-16be"
	default:
		return fmt.Sprintf("unknown (%d)", encoding)
	}
}
