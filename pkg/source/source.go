// Package source reads Records from a JSON dump, a JSON Lines stream or a
// SQLite table.
//
// Any failure to obtain or parse the input is reported as an *Error whose
// chain matches ErrUnavailable. Loosely structured records are never an error
// here; they are handed to the caller as-is and sorted out by the tally.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/db"
)

// ErrUnavailable marks inputs that could not be read or parsed at all.
var ErrUnavailable = errors.New("source unavailable")

// Error describes why a source could not produce its records.
type Error struct {
	Op     string // open, decode, query
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot read %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Source yields Records in input order.
type Source interface {
	Name() string
	// Each calls fn for every record. An error from fn stops the iteration
	// and is returned unchanged.
	Each(ctx context.Context, fn func(models.Record) error) error
}

// Sized is implemented by sources that can report their record count
// up front.
type Sized interface {
	Len(ctx context.Context) (int, error)
}

// Collect materializes every record of src.
func Collect(ctx context.Context, src Source) ([]models.Record, error) {
	var records []models.Record
	if sized, ok := src.(Sized); ok {
		if n, err := sized.Len(ctx); err == nil {
			records = make([]models.Record, 0, n)
		}
	}
	err := src.Each(ctx, func(r models.Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// New builds the source described by cfg.
func New(cfg *models.Config) (Source, error) {
	format, err := models.ParseInputFormat(cfg.InputFormat)
	if err != nil {
		return nil, err
	}

	switch models.ResolveInputFormat(cfg.Input, format) {
	case models.InputFormatSQLite:
		return &SQLite{
			Path: cfg.Input,
			Query: db.RowQuery{
				Table:      cfg.SQLite.Table,
				KeyColumn:  cfg.SQLite.KeyColumn,
				TagsColumn: cfg.SQLite.TagsColumn,
			},
			Field: cfg.Field,
		}, nil
	case models.InputFormatJSONL:
		return &JSONFile{Path: cfg.Input, Format: models.InputFormatJSONL}, nil
	default:
		return &JSONFile{Path: cfg.Input, Format: models.InputFormatJSON}, nil
	}
}

func asRecord(v any) models.Record {
	if m, ok := v.(map[string]any); ok {
		return models.Record(m)
	}
	return nil
}
