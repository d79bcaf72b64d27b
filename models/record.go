// Package models defines data structures for records, tallies and configuration.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Record is one decoded input object (one movie in a TMDB dump).
// Only the tag field is ever inspected; everything else is carried opaquely.
type Record map[string]any

// CategoryTag is one category association attached to a Record.
type CategoryTag struct {
	ID     any
	Fields map[string]any // descriptive fields, id excluded
}

// CategoryCount is the accumulated result for one category id.
// Fields are the ones seen on the first occurrence of the id.
// Key is the normalized id used for deduplication.
type CategoryCount struct {
	Key    string
	ID     any
	Fields map[string]any
	Count  int
}

// Name returns the "name" descriptive field when it is a string.
func (c CategoryCount) Name() string {
	if name, ok := c.Fields["name"].(string); ok {
		return name
	}
	return ""
}

// flatten merges the descriptive fields with id and count into one object,
// the shape genre objects take in the reports. id and count always win.
func (c CategoryCount) flatten() map[string]any {
	out := make(map[string]any, len(c.Fields)+2)
	for k, v := range c.Fields {
		out[k] = v
	}
	out["id"] = c.ID
	out["count"] = c.Count
	return out
}

func (c CategoryCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.flatten())
}

func (c *CategoryCount) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("category entry must be an object")
	}

	count := 0
	switch n := raw["count"].(type) {
	case json.Number:
		v, err := n.Int64()
		if err != nil {
			return fmt.Errorf("invalid count %q: %w", n.String(), err)
		}
		count = int(v)
	case nil:
		return fmt.Errorf("category entry has no count")
	default:
		return fmt.Errorf("invalid count %v", n)
	}
	return c.fromRaw(raw, count)
}

func (c *CategoryCount) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("category entry must be an object")
	}

	switch n := raw["count"].(type) {
	case int:
		return c.fromRaw(raw, n)
	case nil:
		return fmt.Errorf("category entry has no count")
	default:
		return fmt.Errorf("invalid count %v", n)
	}
}

func (c *CategoryCount) fromRaw(raw map[string]any, count int) error {
	id, ok := raw["id"]
	if !ok || id == nil {
		return fmt.Errorf("category entry has no id")
	}

	delete(raw, "id")
	delete(raw, "count")

	c.ID = id
	c.Count = count
	c.Fields = raw
	c.Key = ""
	return nil
}

func (c CategoryCount) MarshalYAML() (interface{}, error) {
	return plainValue(c.flatten()), nil
}

// plainValue turns json.Number values back into Go numbers so YAML output
// does not quote them as strings.
func plainValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
