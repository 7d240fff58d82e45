// Package stream fans encoded frames out to any number of viewers.
//
// The hub keeps a single slot holding the newest frame. Publishing overwrites
// the slot and wakes waiting subscribers; a subscriber that falls behind jumps
// straight to the newest frame instead of draining a queue. The publisher
// never blocks on a slow viewer.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrClosed is returned by Next once the hub is closed.
var ErrClosed = errors.New("stream closed")

var (
	framesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marker_stream_frames_published_total",
		Help: "Frames published to the stream hub",
	})
	framesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marker_stream_frames_skipped_total",
		Help: "Frames a subscriber never saw because a newer one replaced it",
	})
	clientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marker_stream_clients",
		Help: "Connected stream subscribers",
	})
)

// Stats is a point-in-time view of hub activity.
type Stats struct {
	Published uint64
	Clients   int
}

// Hub is a latest-frame broadcaster. Safe for concurrent use.
type Hub struct {
	mu      sync.Mutex
	cond    *sync.Cond
	frame   []byte
	seq     uint64 // sequence of frame; 0 means nothing published yet
	clients int
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	h := &Hub{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish replaces the current frame. frame must not be modified afterwards.
// Publishing to a closed hub is a no-op.
func (h *Hub) Publish(frame []byte) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.frame = frame
	h.seq++
	h.cond.Broadcast()
	h.mu.Unlock()
	framesPublished.Inc()
}

// Latest returns the newest frame and its sequence number (0 if none).
func (h *Hub) Latest() ([]byte, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.seq
}

// Close wakes every subscriber with ErrClosed. Idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Stats returns the current counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Published: h.seq, Clients: h.clients}
}

// Subscribe registers a viewer. The caller must Close the subscription.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	h.clients++
	h.mu.Unlock()
	clientsGauge.Inc()
	return &Subscription{hub: h}
}

// Subscription reads frames from a hub.
type Subscription struct {
	hub    *Hub
	last   uint64
	closed bool
}

// Next blocks until a frame newer than the last one returned is available,
// the hub closes, or ctx is done.
func (s *Subscription) Next(ctx context.Context) ([]byte, error) {
	h := s.hub

	// Wake the wait below when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		h.mu.Lock()
		h.cond.Broadcast()
		h.mu.Unlock()
	})
	defer stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	for h.seq == s.last {
		if h.closed {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.cond.Wait()
	}
	if h.closed {
		return nil, ErrClosed
	}
	if s.last != 0 && h.seq > s.last+1 {
		framesSkipped.Add(float64(h.seq - s.last - 1))
	}
	s.last = h.seq
	return h.frame, nil
}

// Close unregisters the subscription. Idempotent.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if s.closed {
		s.hub.mu.Unlock()
		return
	}
	s.closed = true
	s.hub.clients--
	s.hub.mu.Unlock()
	clientsGauge.Dec()
}
