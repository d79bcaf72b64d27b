package tally

import (
	"sort"

	"github.com/dtnitsch/genre-tally/models"
)

// Top returns the n most frequent entries, count descending. Ties keep
// first-occurrence order. n <= 0 returns every entry.
func (t *Tally) Top(n int) []models.CategoryCount {
	entries := t.Entries()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Filter returns a new Tally holding only entries with at least minCount
// occurrences. Stats are carried over unchanged.
func (t *Tally) Filter(minCount int) *Tally {
	out := newTally()
	for _, e := range t.Entries() {
		if e.Count < minCount {
			continue
		}
		out.index[e.Key] = len(out.entries)
		out.entries = append(out.entries, e)
	}
	out.stats = t.Stats()
	return out
}
