package tally

import (
	"fmt"

	"github.com/dtnitsch/genre-tally/models"
)

// Merge combines two tallies built from disjoint inputs. Counts and stats are
// summed; when both contain an id, a's descriptive fields are kept. Entries
// of a come first, then b's new ids in b's order, so merging the tallies of
// contiguous partitions reproduces the sequential tally exactly.
// Neither input is modified; nil is treated as empty.
func Merge(a, b *Tally) *Tally {
	out := newTally()
	out.entries = make([]models.CategoryCount, 0, a.Len()+b.Len())

	for _, src := range []*Tally{a, b} {
		if src == nil {
			continue
		}
		for _, e := range src.entries {
			i, ok := out.index[e.Key]
			if !ok {
				out.index[e.Key] = len(out.entries)
				e.Fields = copyFields(e.Fields)
				out.entries = append(out.entries, e)
				continue
			}
			out.entries[i].Count += e.Count
		}
	}

	out.stats = a.Stats().Add(b.Stats())
	return out
}

// FromEntries rebuilds a Tally from saved entries, for example the entries of
// a previously written report. Stats are taken as given, so for entries cut
// by Filter or Top, Stats().Tags counts the whole run and exceeds Total().
func FromEntries(entries []models.CategoryCount, stats Stats) (*Tally, error) {
	t := newTally()
	for _, e := range entries {
		key, ok := Key(e.ID)
		if !ok {
			return nil, fmt.Errorf("entry has an invalid id %v", e.ID)
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("duplicate entry for id %s", key)
		}
		if e.Count < 1 {
			return nil, fmt.Errorf("entry %s has count %d, want at least 1", key, e.Count)
		}
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, models.CategoryCount{
			Key:    key,
			ID:     e.ID,
			Fields: copyFields(e.Fields),
			Count:  e.Count,
		})
	}
	t.stats = stats
	return t, nil
}
