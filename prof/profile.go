// Package prof is a small in-process timing registry used by the proof
// constructors and the scenario runner.
package prof

import (
	"sync"
	"time"
)

// Entry represents a single timing measurement.
type Entry struct {
	Label string
	Dur   time.Duration
}

// Summary aggregates the measurements recorded under one label.
type Summary struct {
	Count int
	Total time.Duration
	Mean  time.Duration
}

var (
	mu     sync.Mutex
	record []Entry
)

// Track logs the duration since start under the given label. Intended as
// `defer prof.Track(time.Now(), "op")`.
func Track(start time.Time, label string) {
	elapsed := time.Since(start)
	mu.Lock()
	record = append(record, Entry{Label: label, Dur: elapsed})
	mu.Unlock()
}

// SnapshotAndReset returns the collected timing entries and clears them.
func SnapshotAndReset() []Entry {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Entry, len(record))
	copy(out, record)
	record = nil
	return out
}

// Summarize groups entries by label.
func Summarize(entries []Entry) map[string]Summary {
	out := make(map[string]Summary)
	for _, e := range entries {
		s := out[e.Label]
		s.Count++
		s.Total += e.Dur
		out[e.Label] = s
	}
	for label, s := range out {
		s.Mean = s.Total / time.Duration(s.Count)
		out[label] = s
	}
	return out
}
