// Package app provides the marker tracking state, its events, and process lifecycle helpers.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State holds the tracker state: the current mode, the per-frame candidate
// snapshot, the target set and the sighting ledger. Every read and write goes
// through one lock so a frame update can never interleave with a Reset.
type State struct {
	mu sync.RWMutex

	mode       Mode
	candidates map[int]struct{}
	targets    *TargetSet
	ledger     *Ledger

	// Session identity, renewed on every Reset
	sessionID    uuid.UUID
	sessionStart time.Time

	now func() time.Time

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different state events.
type EventType int

const (
	EventModeChanged EventType = iota
	EventCandidatesChanged
	EventTargetsChanged
	EventSighted
	EventReset
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

type event struct {
	kind EventType
	data interface{}
}

// View is a read-only snapshot of the state.
type View struct {
	Mode         Mode       `json:"mode"`
	SessionID    string     `json:"session_id"`
	SessionStart time.Time  `json:"session_start"`
	Targets      []int      `json:"targets"`    // ascending
	Candidates   []int      `json:"candidates"` // ascending, empty outside memorize
	Sightings    []Sighting `json:"sightings"`  // position ascending
}

// SightingsByID indexes the sightings for overlay lookups.
func (v View) SightingsByID() map[int]Sighting {
	out := make(map[int]Sighting, len(v.Sightings))
	for _, s := range v.Sightings {
		out[s.ID] = s
	}
	return out
}

// NewState creates a new state in memorize mode with an empty session.
func NewState() *State {
	return newStateWithClock(time.Now)
}

func newStateWithClock(now func() time.Time) *State {
	s := &State{
		mode:       ModeMemorize,
		candidates: make(map[int]struct{}),
		targets:    NewTargetSet(),
		ledger:     NewLedger(),
		now:        now,
		listeners:  make(map[EventType][]EventListener),
	}
	s.sessionID = uuid.New()
	s.sessionStart = now()
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
// It must not be called with s.mu held.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

func (s *State) emitAll(events []event) {
	for _, e := range events {
		s.Emit(e.kind, e.data)
	}
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// RefreshCandidates replaces the candidate snapshot with the IDs visible in
// the current frame. Ignored outside memorize mode.
func (s *State) RefreshCandidates(ids []int) {
	s.mu.Lock()
	var events []event
	if s.mode == ModeMemorize {
		events = s.refreshCandidatesLocked(ids)
	}
	s.mu.Unlock()
	s.emitAll(events)
}

// AddTargets unions the current candidate snapshot into the target set.
// With no candidates in view it changes nothing.
func (s *State) AddTargets() {
	s.mu.Lock()
	var events []event
	if len(s.candidates) > 0 {
		if s.targets.Union(sortedKeys(s.candidates)) > 0 {
			events = append(events, event{EventTargetsChanged, s.targets.Sorted()})
		}
	}
	s.mu.Unlock()
	s.emitAll(events)
}

// StartDetection switches to detect mode. Calling it in detect mode is a no-op.
func (s *State) StartDetection() {
	s.mu.Lock()
	var events []event
	if s.mode == ModeMemorize {
		s.mode = ModeDetect
		// Candidates only mean something while memorizing.
		clear(s.candidates)
		events = append(events, event{EventModeChanged, ModeDetect})
	}
	s.mu.Unlock()
	s.emitAll(events)
}

// Reset returns to memorize mode, clears candidates, targets and the ledger,
// and opens a new session.
func (s *State) Reset() {
	s.mu.Lock()
	s.mode = ModeMemorize
	clear(s.candidates)
	s.targets.Clear()
	s.ledger.Clear()
	s.sessionID = uuid.New()
	s.sessionStart = s.now()
	id := s.sessionID.String()
	s.mu.Unlock()
	s.Emit(EventReset, id)
}

// RecordSightings adds a ledger record for every visible ID not seen before
// in this session. Ignored outside detect mode.
func (s *State) RecordSightings(ids []int) error {
	s.mu.Lock()
	var (
		events []event
		err    error
	)
	if s.mode == ModeDetect {
		events, err = s.recordSightingsLocked(ids)
	}
	s.mu.Unlock()
	s.emitAll(events)
	return err
}

// Observe applies one frame's visible IDs according to the current mode and
// returns the resulting view. Mode check, update and snapshot happen under a
// single lock acquisition.
func (s *State) Observe(ids []int) (View, error) {
	s.mu.Lock()
	var (
		events []event
		err    error
	)
	switch s.mode {
	case ModeMemorize:
		events = s.refreshCandidatesLocked(ids)
	case ModeDetect:
		events, err = s.recordSightingsLocked(ids)
	}
	view := s.viewLocked()
	s.mu.Unlock()
	s.emitAll(events)
	return view, err
}

// Snapshot returns the current view. It has no side effects.
func (s *State) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *State) viewLocked() View {
	return View{
		Mode:         s.mode,
		SessionID:    s.sessionID.String(),
		SessionStart: s.sessionStart,
		Targets:      s.targets.Sorted(),
		Candidates:   sortedKeys(s.candidates),
		Sightings:    s.ledger.Snapshot(),
	}
}

func (s *State) refreshCandidatesLocked(ids []int) []event {
	next := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	if sameSet(next, s.candidates) {
		return nil
	}
	s.candidates = next
	return []event{{EventCandidatesChanged, sortedKeys(next)}}
}

func (s *State) recordSightingsLocked(ids []int) ([]event, error) {
	var events []event
	at := s.now()
	for _, id := range ids {
		if s.ledger.Seen(id) {
			continue
		}
		rec, _ := s.ledger.Record(id, s.targets.Contains(id), at)
		events = append(events, event{EventSighted, rec})
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events, s.ledger.Verify()
}

func sameSet(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
