package report

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/source"
	"github.com/dtnitsch/genre-tally/pkg/storage"
	"github.com/dtnitsch/genre-tally/pkg/tally"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleTally() *tally.Tally {
	genre := func(id int, name string) map[string]any { return map[string]any{"id": id, "name": name} }
	return tally.Run([]models.Record{
		{"genres": []any{genre(18, "Drama")}},
		{"genres": []any{genre(18, "Drama"), genre(35, "Comedy")}},
		{"genres": nil},
		{"genres": []any{genre(27, "Horror"), genre(35, "Comedy"), genre(18, "Drama")}},
	}, tally.DefaultOptions())
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		meta        Meta
		wantNames   []string
		wantRanked  bool
		wantPartial bool
	}{
		{
			name:      "first occurrence order",
			meta:      Meta{},
			wantNames: []string{"Drama", "Comedy", "Horror"},
		},
		{
			name:       "ranked",
			meta:       Meta{Rank: true},
			wantNames:  []string{"Drama", "Comedy", "Horror"},
			wantRanked: true,
		},
		{
			name:        "top one",
			meta:        Meta{Top: 1},
			wantNames:   []string{"Drama"},
			wantRanked:  true,
			wantPartial: true,
		},
		{
			name:        "min count",
			meta:        Meta{MinCount: 2},
			wantNames:   []string{"Drama", "Comedy"},
			wantPartial: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.meta.Now = fixedNow
			tt.meta.Field = "genres"
			r := Build(sampleTally(), tt.meta)

			var names []string
			for _, e := range r.Entries {
				names = append(names, e.Name())
			}
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("entries = %v, want %v", names, tt.wantNames)
			}
			if r.Ranked != tt.wantRanked {
				t.Errorf("Ranked = %v, want %v", r.Ranked, tt.wantRanked)
			}
			if r.Partial != tt.wantPartial {
				t.Errorf("Partial = %v, want %v", r.Partial, tt.wantPartial)
			}
			if r.Categories != 3 || r.Total != 6 {
				t.Errorf("Categories/Total = %d/%d, want 3/6", r.Categories, r.Total)
			}
			if r.GeneratedAt != "2024-03-01T12:00:00Z" {
				t.Errorf("GeneratedAt = %q", r.GeneratedAt)
			}
			if r.RunID == "" {
				t.Error("RunID is empty")
			}
		})
	}
}

func TestWrite_JSONEntryShape(t *testing.T) {
	r := Build(sampleTally(), Meta{Field: "genres", Sources: []string{"tmdb.json"}, Now: fixedNow})

	data, err := Render(r, "json")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded struct {
		Entries []map[string]any `json:"entries"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	want := map[string]any{"id": float64(18), "name": "Drama", "count": float64(3)}
	if !reflect.DeepEqual(decoded.Entries[0], want) {
		t.Errorf("first entry = %v, want %v", decoded.Entries[0], want)
	}
}

func TestWrite_YAML(t *testing.T) {
	r := Build(sampleTally(), Meta{Field: "genres", Now: fixedNow})

	data, err := Render(r, "yaml")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded struct {
		Field   string           `yaml:"field"`
		Total   int              `yaml:"total"`
		Entries []map[string]any `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Field != "genres" || decoded.Total != 6 {
		t.Errorf("field/total = %q/%d, want genres/6", decoded.Field, decoded.Total)
	}
	if decoded.Entries[1]["name"] != "Comedy" || decoded.Entries[1]["count"] != 2 {
		t.Errorf("second entry = %v, want Comedy with count 2", decoded.Entries[1])
	}
}

func TestWrite_YAMLNumbersFromJSON(t *testing.T) {
	entries := []models.CategoryCount{{ID: json.Number("18"), Fields: map[string]any{"name": "Drama"}, Count: 1}}
	tl, err := tally.FromEntries(entries, tally.Stats{})
	if err != nil {
		t.Fatalf("FromEntries() error = %v", err)
	}

	data, err := Render(Build(tl, Meta{Now: fixedNow}), "yaml")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(data), "id: 18\n") {
		t.Errorf("YAML output should carry a plain numeric id:\n%s", data)
	}
}

func TestWrite_Text(t *testing.T) {
	r := Build(sampleTally(), Meta{Field: "genres", Sources: []string{"tmdb.json"}, Top: 2, Now: fixedNow})

	data, err := Render(r, "text")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `Source: tmdb.json (field genres)
Records: 4 (tagged 3, untagged 1, malformed 0)
Categories: 3, occurrences: 6
1. Drama (id=18): 3
2. Comedy (id=35): 2
`
	if string(data) != want {
		t.Errorf("text output =\n%s\nwant\n%s", data, want)
	}
}

func TestWrite_TextEmpty(t *testing.T) {
	r := Build(tally.Run(nil, tally.DefaultOptions()), Meta{Field: "genres", Now: fixedNow})

	data, err := Render(r, "text")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(data), "No categories found.") {
		t.Errorf("empty report should say so, got:\n%s", data)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if _, err := Render(Report{}, "xml"); err == nil {
		t.Error("Render() with unknown format error = nil, want error")
	}
}

func TestSaveLoadRebuildsTally(t *testing.T) {
	s := &storage.Storage{}
	path := filepath.Join(t.TempDir(), "out", "genres.json")
	original := sampleTally()

	if err := Save(s, path, Build(original, Meta{Field: "genres", Now: fixedNow}), "json"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(s, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rebuilt, err := loaded.Tally()
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if rebuilt.Len() != original.Len() || rebuilt.Total() != original.Total() {
		t.Errorf("rebuilt Len/Total = %d/%d, want %d/%d", rebuilt.Len(), rebuilt.Total(), original.Len(), original.Total())
	}
	if rebuilt.Stats() != original.Stats() {
		t.Errorf("rebuilt Stats = %+v, want %+v", rebuilt.Stats(), original.Stats())
	}
	drama, ok := rebuilt.Get(18)
	if !ok || drama.Name() != "Drama" || drama.Count != 3 {
		t.Errorf("rebuilt Drama = %+v, %v", drama, ok)
	}
}

func TestLoad_Unavailable(t *testing.T) {
	s := &storage.Storage{}
	dir := t.TempDir()

	notJSON := filepath.Join(dir, "bad.json")
	noEntries := filepath.Join(dir, "other.json")
	if err := s.SaveFile(notJSON, []byte("Drama: 3")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveFile(noEntries, []byte(`{"total": 3}`)); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "absent.json"), notJSON, noEntries} {
		if _, err := Load(s, path); !errors.Is(err, source.ErrUnavailable) {
			t.Errorf("Load(%s) error = %v, want source.ErrUnavailable", filepath.Base(path), err)
		}
	}
}

func TestSaveLoadYAML(t *testing.T) {
	s := &storage.Storage{}
	path := filepath.Join(t.TempDir(), "genres.yaml")

	if err := Save(s, path, Build(sampleTally(), Meta{Field: "genres", Sources: []string{"tmdb.json"}, Now: fixedNow}), "yaml"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(s, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Field != "genres" || !reflect.DeepEqual(loaded.Sources, []string{"tmdb.json"}) {
		t.Errorf("loaded field/sources = %q/%v", loaded.Field, loaded.Sources)
	}

	rebuilt, err := loaded.Tally()
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	comedy, ok := rebuilt.Get(35)
	if !ok || comedy.Name() != "Comedy" || comedy.Count != 2 {
		t.Errorf("rebuilt Comedy = %+v, %v", comedy, ok)
	}
	if rebuilt.Stats() != sampleTally().Stats() {
		t.Errorf("rebuilt Stats = %+v, want %+v", rebuilt.Stats(), sampleTally().Stats())
	}
}
