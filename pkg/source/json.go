package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dtnitsch/genre-tally/models"
)

// JSONFile reads records from a file, or stdin when Path is empty or "-".
//
// InputFormatJSON expects one document: either an object whose values are
// records (the TMDB dump layout, keyed by movie id) or an array of records.
// InputFormatJSONL expects a stream of JSON values, one record each.
// Values that are not objects become empty records.
type JSONFile struct {
	Path   string
	Format models.InputFormat
	Stdin  io.Reader
}

func (f *JSONFile) Name() string {
	if f.Path == "" || f.Path == "-" {
		return "stdin"
	}
	return f.Path
}

func (f *JSONFile) fail(op string, err error) error {
	return &Error{Op: op, Source: f.Name(), Err: err}
}

func (f *JSONFile) open() (io.ReadCloser, error) {
	if f.Path == "" || f.Path == "-" {
		if f.Stdin != nil {
			return io.NopCloser(f.Stdin), nil
		}
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(filepath.Clean(f.Path))
}

func (f *JSONFile) Each(ctx context.Context, fn func(models.Record) error) error {
	rc, err := f.open()
	if err != nil {
		return f.fail("open", err)
	}
	defer rc.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(rc, 64<<10))
	dec.UseNumber()

	if f.Format == models.InputFormatJSONL {
		return f.eachValue(ctx, dec, fn)
	}
	return f.eachDocument(ctx, dec, fn)
}

// eachDocument walks a top-level object or array token by token so records
// are delivered in document order without loading the whole dump.
func (f *JSONFile) eachDocument(ctx context.Context, dec *json.Decoder, fn func(models.Record) error) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return f.fail("decode", errors.New("empty input"))
	}
	if err != nil {
		return f.fail("decode", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return f.fail("decode", fmt.Errorf("top-level value must be an object or an array, got %v", tok))
	}

	n := 0
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if delim == '{' {
			if _, err := dec.Token(); err != nil {
				return f.fail("decode", fmt.Errorf("record key %d: %w", n+1, err))
			}
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return f.fail("decode", fmt.Errorf("record %d: %w", n+1, err))
		}
		n++

		if err := fn(asRecord(v)); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return f.fail("decode", err)
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected %v after top-level value", tok)
		}
		return f.fail("decode", err)
	}

	return nil
}

func (f *JSONFile) eachValue(ctx context.Context, dec *json.Decoder, fn func(models.Record) error) error {
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return f.fail("decode", fmt.Errorf("record %d: %w", n, err))
		}

		if err := fn(asRecord(v)); err != nil {
			return err
		}
	}
}
