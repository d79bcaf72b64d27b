package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/db"
)

// SQLite reads one record per row. The tags column holds the JSON tag array
// and is exposed under Field; the key column is kept under its own name.
type SQLite struct {
	Path  string
	Query db.RowQuery
	Field string
}

func (s *SQLite) Name() string {
	return s.Path
}

func (s *SQLite) fail(op string, err error) error {
	return &Error{Op: op, Source: s.Name(), Err: err}
}

// Len returns the number of rows in the record table.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	database, err := db.Open(s.Path)
	if err != nil {
		return 0, s.fail("open", err)
	}
	defer database.Close()

	n, err := database.CountRows(ctx, s.Query)
	if err != nil {
		return 0, s.fail("query", err)
	}
	return n, nil
}

func (s *SQLite) Each(ctx context.Context, fn func(models.Record) error) error {
	database, err := db.Open(s.Path)
	if err != nil {
		return s.fail("open", err)
	}
	defer database.Close()

	field := s.Field
	if field == "" {
		field = models.DefaultField
	}

	var stopped error
	err = database.EachRow(ctx, s.Query, func(row db.Row) error {
		rec := models.Record{s.Query.KeyColumn: row.Key, field: nil}
		if row.Tags.Valid {
			rec[field] = decodeTags(row.Tags.String)
		}
		if err := fn(rec); err != nil {
			stopped = err
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case stopped != nil && errors.Is(err, stopped):
		return stopped
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return s.fail("query", err)
	}
}

// decodeTags parses the stored JSON. Text that is not a single JSON value is
// returned unchanged, which the tally treats as a malformed record.
func decodeTags(text string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return text
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return text
	}
	return v
}
