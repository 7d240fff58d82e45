package app

import (
	"errors"
	"fmt"
	"time"
)

// ErrLedgerCorrupt reports a broken ledger invariant. It means the state was
// mutated outside the State lock and must never be repaired in place.
var ErrLedgerCorrupt = errors.New("sighting ledger corrupt")

// Sighting is the first-sighting record of one marker ID.
type Sighting struct {
	ID        int       `json:"id"`
	Position  int       `json:"position"`  // 1-based, assigned once
	IsTarget  bool      `json:"is_target"` // target status when first seen
	FirstSeen time.Time `json:"first_seen"`
}

// Ledger is the ordered, deduplicated record of first sightings.
// Insertion order is position order, so records never need sorting.
type Ledger struct {
	records []Sighting
	seen    map[int]int // marker ID -> index into records
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[int]int)}
}

// Record appends a sighting for id unless it was already seen.
// The returned bool is false for repeat sightings, in which case the
// existing record is returned unchanged.
func (l *Ledger) Record(id int, isTarget bool, at time.Time) (Sighting, bool) {
	if idx, ok := l.seen[id]; ok {
		return l.records[idx], false
	}
	s := Sighting{
		ID:        id,
		Position:  len(l.records) + 1,
		IsTarget:  isTarget,
		FirstSeen: at,
	}
	l.seen[id] = len(l.records)
	l.records = append(l.records, s)
	return s, true
}

// Lookup returns the record for id, if any.
func (l *Ledger) Lookup(id int) (Sighting, bool) {
	idx, ok := l.seen[id]
	if !ok {
		return Sighting{}, false
	}
	return l.records[idx], true
}

// Seen reports whether id has a record.
func (l *Ledger) Seen(id int) bool {
	_, ok := l.seen[id]
	return ok
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Snapshot returns a copy of the records in position order.
func (l *Ledger) Snapshot() []Sighting {
	out := make([]Sighting, len(l.records))
	copy(out, l.records)
	return out
}

// Clear drops every record and the seen-set with it.
func (l *Ledger) Clear() {
	l.records = l.records[:0]
	clear(l.seen)
}

// Verify checks that positions run 1..N in order, that no ID repeats and
// that the seen-set indexes exactly the recorded IDs.
func (l *Ledger) Verify() error {
	if len(l.seen) != len(l.records) {
		return fmt.Errorf("%w: %d seen entries for %d records", ErrLedgerCorrupt, len(l.seen), len(l.records))
	}
	for i, s := range l.records {
		if s.Position != i+1 {
			return fmt.Errorf("%w: record %d has position %d", ErrLedgerCorrupt, i, s.Position)
		}
		idx, ok := l.seen[s.ID]
		if !ok {
			return fmt.Errorf("%w: marker %d missing from seen-set", ErrLedgerCorrupt, s.ID)
		}
		if idx != i {
			return fmt.Errorf("%w: marker %d recorded twice", ErrLedgerCorrupt, s.ID)
		}
	}
	return nil
}
