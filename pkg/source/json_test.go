package source

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/genre-tally/models"
)

const tmdbDump = `{
  "603": {"title": "The Matrix", "genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}]},
  "13":  {"title": "Forrest Gump", "genres": [{"id": 18, "name": "Drama"}]},
  "550": {"title": "Fight Club", "genres": null},
  "11":  "not an object"
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func titles(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["title"].(string)
	}
	return out
}

func TestJSONFile_ObjectDumpKeepsDocumentOrder(t *testing.T) {
	path := writeFile(t, "tmdb.json", tmdbDump)
	src := &JSONFile{Path: path, Format: models.InputFormatJSON}

	records, err := Collect(context.Background(), src)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := []string{"The Matrix", "Forrest Gump", "Fight Club", ""}
	if got := titles(records); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("titles = %q, want %q", got, want)
	}
	if records[3] != nil {
		t.Errorf("non-object record = %v, want nil record", records[3])
	}

	genres := records[0]["genres"].([]any)
	id := genres[0].(map[string]any)["id"]
	if id != json.Number("28") {
		t.Errorf("genre id = %#v, want json.Number(\"28\")", id)
	}
}

func TestJSONFile_Array(t *testing.T) {
	src := &JSONFile{Stdin: strings.NewReader(`[{"title":"A"}, {"title":"B"}, 7]`), Format: models.InputFormatJSON}

	records, err := Collect(context.Background(), src)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := strings.Join(titles(records), ","); got != "A,B," {
		t.Errorf("titles = %q, want %q", got, "A,B,")
	}
	if src.Name() != "stdin" {
		t.Errorf("Name() = %q, want stdin", src.Name())
	}
}

func TestJSONFile_EmptyContainersAreValid(t *testing.T) {
	for _, doc := range []string{`{}`, `[]`, "  [ ]\n"} {
		src := &JSONFile{Stdin: strings.NewReader(doc), Format: models.InputFormatJSON}
		records, err := Collect(context.Background(), src)
		if err != nil {
			t.Errorf("Collect(%q) error = %v", doc, err)
		}
		if len(records) != 0 {
			t.Errorf("Collect(%q) = %d records, want 0", doc, len(records))
		}
	}
}

func TestJSONFile_JSONL(t *testing.T) {
	stream := `{"title":"A","genres":[{"id":1}]}

{"title":"B"}
{"title":"C"}`
	path := writeFile(t, "movies.jsonl", stream)

	records, err := Collect(context.Background(), &JSONFile{Path: path, Format: models.InputFormatJSONL})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := strings.Join(titles(records), ","); got != "A,B,C" {
		t.Errorf("titles = %q, want A,B,C", got)
	}
}

func TestJSONFile_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format models.InputFormat
		op     string
	}{
		{"empty document", "", models.InputFormatJSON, "decode"},
		{"top-level scalar", `42`, models.InputFormatJSON, "decode"},
		{"top-level string", `"tmdb"`, models.InputFormatJSON, "decode"},
		{"truncated object", `{"1": {"genres": [`, models.InputFormatJSON, "decode"},
		{"missing close", `[{"title":"A"}`, models.InputFormatJSON, "decode"},
		{"trailing garbage", `[] []`, models.InputFormatJSON, "decode"},
		{"bad jsonl line", "{\"title\":\"A\"}\n{oops}\n", models.InputFormatJSONL, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &JSONFile{Stdin: strings.NewReader(tt.input), Format: tt.format}
			_, err := Collect(context.Background(), src)

			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("Collect() error = %v, want ErrUnavailable", err)
			}
			var srcErr *Error
			if !errors.As(err, &srcErr) {
				t.Fatalf("Collect() error %T is not *Error", err)
			}
			if srcErr.Op != tt.op {
				t.Errorf("Op = %q, want %q", srcErr.Op, tt.op)
			}
		})
	}
}

func TestJSONFile_MissingFile(t *testing.T) {
	src := &JSONFile{Path: filepath.Join(t.TempDir(), "tmdb.json"), Format: models.InputFormatJSON}

	err := src.Each(context.Background(), func(models.Record) error { return nil })

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Each() error = %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Each() error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestJSONFile_CallbackErrorPassesThrough(t *testing.T) {
	stop := errors.New("stop")
	src := &JSONFile{Stdin: strings.NewReader(tmdbDump), Format: models.InputFormatJSON}

	err := src.Each(context.Background(), func(models.Record) error { return stop })

	if err != stop {
		t.Errorf("Each() error = %v, want the callback error unchanged", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("callback error should not be reported as ErrUnavailable")
	}
}

func TestJSONFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &JSONFile{Stdin: strings.NewReader(tmdbDump), Format: models.InputFormatJSON}
	err := src.Each(ctx, func(models.Record) error { return nil })

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Each() error = %v, want context.Canceled", err)
	}
}
