// Package report formats a Tally for people and for later merging.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/genre-tally/models"
	"github.com/dtnitsch/genre-tally/pkg/source"
	"github.com/dtnitsch/genre-tally/pkg/storage"
	"github.com/dtnitsch/genre-tally/pkg/tally"
)

// Report is a Tally plus the metadata of the run that produced it.
// Entries serialize like the genre objects of the input with a count added.
type Report struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	GeneratedAt string                 `json:"generated_at" yaml:"generated_at"`
	Sources     []string               `json:"sources" yaml:"sources"`
	Field       string                 `json:"field" yaml:"field"`
	Stats       tally.Stats            `json:"stats" yaml:"stats"`
	Categories  int                    `json:"categories" yaml:"categories"` // distinct ids before top/min-count
	Total       int                    `json:"total" yaml:"total"`
	Ranked      bool                   `json:"ranked,omitempty" yaml:"ranked,omitempty"`
	Partial     bool                   `json:"partial,omitempty" yaml:"partial,omitempty"` // entries were cut by top or min-count
	Entries     []models.CategoryCount `json:"entries" yaml:"entries"`
}

// Meta describes the run and how entries are selected.
type Meta struct {
	Sources  []string
	Field    string
	Top      int  // keep the n most frequent entries, 0 keeps all
	MinCount int  // drop entries below this count
	Rank     bool // sort by count even when Top is 0
	Now      time.Time
}

// Build assembles a Report. Without Rank or Top, entries stay in
// first-occurrence order.
func Build(t *tally.Tally, meta Meta) Report {
	now := meta.Now
	if now.IsZero() {
		now = time.Now()
	}

	shown := t
	if meta.MinCount > 1 {
		shown = t.Filter(meta.MinCount)
	}

	var entries []models.CategoryCount
	ranked := meta.Rank || meta.Top > 0
	if ranked {
		entries = shown.Top(meta.Top)
	} else {
		entries = shown.Entries()
	}

	sources := meta.Sources
	if sources == nil {
		sources = []string{}
	}

	return Report{
		RunID:       uuid.NewString(),
		GeneratedAt: now.Format(time.RFC3339),
		Sources:     sources,
		Field:       meta.Field,
		Stats:       t.Stats(),
		Categories:  t.Len(),
		Total:       t.Total(),
		Ranked:      ranked,
		Partial:     len(entries) < t.Len(),
		Entries:     entries,
	}
}

// Tally rebuilds the tally held by a report.
func (r Report) Tally() (*tally.Tally, error) {
	t, err := tally.FromEntries(r.Entries, r.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild tally: %w", err)
	}
	return t, nil
}

// Write renders r as text, json or yaml.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		return enc.Close()
	case "text", "":
		return writeText(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// Render returns the report as bytes in the given format.
func Render(r Report, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, r, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeText(w io.Writer, r Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Source: %s (field %s)\n", strings.Join(r.Sources, ", "), r.Field)
	fmt.Fprintf(&sb, "Records: %d (tagged %d, untagged %d, malformed %d)\n",
		r.Stats.Records, r.Stats.TaggedRecords, r.Stats.UntaggedRecords, r.Stats.MalformedRecords)
	fmt.Fprintf(&sb, "Categories: %d, occurrences: %d", r.Categories, r.Total)
	if r.Stats.SkippedTags > 0 {
		fmt.Fprintf(&sb, ", skipped tags: %d", r.Stats.SkippedTags)
	}
	sb.WriteString("\n")

	if len(r.Entries) == 0 {
		sb.WriteString("No categories found.\n")
	}
	for i, e := range r.Entries {
		if name := e.Name(); name != "" {
			fmt.Fprintf(&sb, "%d. %s (id=%v): %d\n", i+1, name, e.ID, e.Count)
		} else {
			fmt.Fprintf(&sb, "%d. %v: %d\n", i+1, e.ID, e.Count)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Load reads a JSON or YAML report written by Write, picking the decoder from
// the file extension. A report that cannot be read or parsed is reported as
// source.ErrUnavailable.
func Load(s *storage.Storage, path string) (Report, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return Report{}, &source.Error{Op: "open", Source: path, Err: err}
	}

	var r Report
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &r)
	default:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return Report{}, &source.Error{Op: "decode", Source: path, Err: err}
	}
	if r.Entries == nil {
		return Report{}, &source.Error{Op: "decode", Source: path, Err: fmt.Errorf("not a tally report: no entries")}
	}
	return r, nil
}

// Save writes the report to path in the given format.
func Save(s *storage.Storage, path string, r Report, format string) error {
	data, err := Render(r, format)
	if err != nil {
		return err
	}
	if err := s.SaveFile(path, data); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
