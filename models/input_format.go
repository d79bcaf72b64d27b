package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InputFormat selects how a Record source decodes its input.
type InputFormat int

const (
	// InputFormatAuto picks the format from the file extension.
	InputFormatAuto  InputFormat = iota
	InputFormatJSON              // one document: object of records or array of records
	InputFormatJSONL             // one record per JSON value
	InputFormatSQLite            // rows of a SQLite table
)

func (f InputFormat) String() string {
	switch f {
	case InputFormatJSON:
		return "json"
	case InputFormatJSONL:
		return "jsonl"
	case InputFormatSQLite:
		return "sqlite"
	default:
		return "auto"
	}
}

// ParseInputFormat parses a --input-format value. Empty means auto.
func ParseInputFormat(s string) (InputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return InputFormatAuto, nil
	case "json":
		return InputFormatJSON, nil
	case "jsonl", "ndjson":
		return InputFormatJSONL, nil
	case "sqlite", "db":
		return InputFormatSQLite, nil
	}
	return InputFormatAuto, fmt.Errorf("unknown input format %q (want json, jsonl or sqlite)", s)
}

// ResolveInputFormat determines the concrete format for a path.
func ResolveInputFormat(path string, f InputFormat) InputFormat {
	if f != InputFormatAuto {
		return f
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return InputFormatJSONL
	case ".db", ".sqlite", ".sqlite3":
		return InputFormatSQLite
	}
	return InputFormatJSON
}
