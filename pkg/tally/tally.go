// Package tally counts category tag occurrences across a sequence of records.
//
// A Tally maps each category id to the number of occurrences seen and the
// descriptive fields of the first tag carrying that id. Entries keep the
// order in which ids were first seen, so two runs over the same input
// produce identical results.
package tally

import (
	"github.com/dtnitsch/genre-tally/models"
)

// Stats holds the run counters collected while building a Tally.
type Stats struct {
	Records          int `json:"records" yaml:"records"`
	TaggedRecords    int `json:"tagged_records" yaml:"tagged_records"`
	UntaggedRecords  int `json:"untagged_records" yaml:"untagged_records"`   // tag field absent or null
	MalformedRecords int `json:"malformed_records" yaml:"malformed_records"` // tag field present but not a sequence
	Tags             int `json:"tags" yaml:"tags"`
	SkippedTags      int `json:"skipped_tags" yaml:"skipped_tags"`
}

// Add returns the field-wise sum of two Stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Records:          s.Records + o.Records,
		TaggedRecords:    s.TaggedRecords + o.TaggedRecords,
		UntaggedRecords:  s.UntaggedRecords + o.UntaggedRecords,
		MalformedRecords: s.MalformedRecords + o.MalformedRecords,
		Tags:             s.Tags + o.Tags,
		SkippedTags:      s.SkippedTags + o.SkippedTags,
	}
}

// Tally is the aggregate result of a run. It is read-only once returned.
type Tally struct {
	index   map[string]int
	entries []models.CategoryCount
	stats   Stats
}

func newTally() *Tally {
	return &Tally{index: make(map[string]int)}
}

// observe counts one occurrence of a well-formed tag.
func (t *Tally) observe(key string, id any, fields map[string]any) {
	i, ok := t.index[key]
	if !ok {
		i = len(t.entries)
		t.index[key] = i
		t.entries = append(t.entries, models.CategoryCount{
			Key:    key,
			ID:     id,
			Fields: copyFields(fields),
		})
	}
	t.entries[i].Count++
}

// Len returns the number of distinct category ids.
func (t *Tally) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in first-occurrence order.
func (t *Tally) Entries() []models.CategoryCount {
	if t == nil {
		return []models.CategoryCount{}
	}
	out := make([]models.CategoryCount, len(t.entries))
	for i, e := range t.entries {
		e.Fields = copyFields(e.Fields)
		out[i] = e
	}
	return out
}

// Get looks up an entry by id. Numeric and string ids with the same text
// refer to the same entry.
func (t *Tally) Get(id any) (models.CategoryCount, bool) {
	if t == nil {
		return models.CategoryCount{}, false
	}
	key, ok := Key(id)
	if !ok {
		return models.CategoryCount{}, false
	}
	i, ok := t.index[key]
	if !ok {
		return models.CategoryCount{}, false
	}
	e := t.entries[i]
	e.Fields = copyFields(e.Fields)
	return e, true
}

// Total returns the sum of all counts.
func (t *Tally) Total() int {
	if t == nil {
		return 0
	}
	total := 0
	for _, e := range t.entries {
		total += e.Count
	}
	return total
}

// Stats returns the run counters.
func (t *Tally) Stats() Stats {
	if t == nil {
		return Stats{}
	}
	return t.stats
}

// copyFields makes a deep copy so later changes to the input records
// cannot reach into a returned Tally.
func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
