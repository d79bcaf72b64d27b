package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dtnitsch/genre-tally/models"
)

// RowQuery names the table holding one record per row, the column used as
// the record key and the TEXT column holding the JSON tag array.
type RowQuery struct {
	Table      string
	KeyColumn  string
	TagsColumn string
}

func (q RowQuery) validate() error {
	for _, name := range []string{q.Table, q.KeyColumn, q.TagsColumn} {
		if !models.IsIdentifier(name) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

// Row is one record row as stored.
type Row struct {
	Key  any            // int64, float64, string or nil
	Tags sql.NullString // raw JSON text, invalid JSON is left to the caller
}

// EachRow streams rows in rowid order, stopping at the first error from fn.
func (db *DB) EachRow(ctx context.Context, q RowQuery, fn func(Row) error) error {
	if err := q.validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT "%s", "%s" FROM "%s" ORDER BY rowid`, q.KeyColumn, q.TagsColumn, q.Table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Key, &row.Tags); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		if b, ok := row.Key.([]byte); ok {
			row.Key = string(b)
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in the record table.
func (db *DB) CountRows(ctx context.Context, q RowQuery) (int, error) {
	if err := q.validate(); err != nil {
		return 0, err
	}

	var n int
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, q.Table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}
