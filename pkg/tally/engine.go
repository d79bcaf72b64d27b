package tally

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dtnitsch/genre-tally/models"
)

// Options selects where tags live inside a record.
type Options struct {
	Field string // record field holding the tag sequence
	IDKey string // tag field holding the category id
}

// DefaultOptions matches the TMDB dump layout: record.genres[].id.
func DefaultOptions() Options {
	return Options{Field: models.DefaultField, IDKey: models.DefaultIDKey}
}

func (o Options) withDefaults() Options {
	if o.Field == "" {
		o.Field = models.DefaultField
	}
	if o.IDKey == "" {
		o.IDKey = models.DefaultIDKey
	}
	return o
}

// Run tallies records in a single pass. It never fails: records without a
// usable tag sequence and tags without an id are counted in Stats and skipped.
func Run(records []models.Record, opts Options) *Tally {
	b := NewBuilder(opts)
	for _, r := range records {
		b.Observe(r)
	}
	return b.Tally()
}

// Builder accumulates a Tally one record at a time, so a source can
// stream records without materializing the whole input.
type Builder struct {
	opts  Options
	tally *Tally
}

func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts.withDefaults(), tally: newTally()}
}

// Observe adds one record's tags to the tally.
func (b *Builder) Observe(r models.Record) {
	t := b.tally
	t.stats.Records++

	raw, present := r[b.opts.Field]
	if !present || raw == nil {
		t.stats.UntaggedRecords++
		return
	}
	tags, ok := raw.([]any)
	if !ok {
		t.stats.MalformedRecords++
		return
	}
	t.stats.TaggedRecords++

	for _, elem := range tags {
		tag, ok := ExtractTag(elem, b.opts.IDKey)
		if !ok {
			t.stats.SkippedTags++
			continue
		}
		key, _ := Key(tag.ID)
		t.observe(key, tag.ID, tag.Fields)
		t.stats.Tags++
	}
}

// Tally returns the accumulated result. The Builder must not be used afterwards.
func (b *Builder) Tally() *Tally {
	t := b.tally
	b.tally = nil
	return t
}

// ExtractTag converts one element of a tag sequence into a CategoryTag.
// It reports false for elements that are not objects or lack a usable id.
func ExtractTag(elem any, idKey string) (models.CategoryTag, bool) {
	obj, ok := elem.(map[string]any)
	if !ok {
		return models.CategoryTag{}, false
	}
	id, ok := obj[idKey]
	if !ok {
		return models.CategoryTag{}, false
	}
	if _, ok := Key(id); !ok {
		return models.CategoryTag{}, false
	}

	fields := make(map[string]any, len(obj)-1)
	for k, v := range obj {
		if k != idKey {
			fields[k] = v
		}
	}
	return models.CategoryTag{ID: id, Fields: fields}, true
}

// numberKey formats a decoded JSON number like the matching Go value, so 18,
// 18.0 and 1.8e1 share a key. Integers too large for int64 keep their text.
func numberKey(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		return n.String()
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// Key returns the dedup key for a category id. Strings and numbers are
// accepted; numbers and strings with the same text share a key.
// nil, booleans, objects and arrays are not ids.
func Key(id any) (string, bool) {
	switch v := id.(type) {
	case string:
		return v, true
	case json.Number:
		return numberKey(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return Key(float64(v))
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	}
	return "", false
}
