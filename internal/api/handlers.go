package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"marker-tracker/internal/app"
	"marker-tracker/internal/stream"
)

//go:embed templates/index.html
var templateFS embed.FS

// Server holds what the handlers share.
type Server struct {
	state *app.State
	hub   *stream.Hub
	log   zerolog.Logger
	tmpl  *template.Template

	mu       sync.Mutex
	watchers map[chan struct{}]struct{}
}

// NewServer creates a server and subscribes it to state events.
func NewServer(state *app.State, hub *stream.Hub, log zerolog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	s := &Server{
		state:    state,
		hub:      hub,
		log:      log,
		tmpl:     tmpl,
		watchers: make(map[chan struct{}]struct{}),
	}
	for _, kind := range []app.EventType{
		app.EventModeChanged,
		app.EventCandidatesChanged,
		app.EventTargetsChanged,
		app.EventSighted,
		app.EventReset,
	} {
		state.On(kind, s.notify)
	}
	return s, nil
}

// notify wakes every websocket watcher. Pending wakeups coalesce.
func (s *Server) notify(interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Server) watch() chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unwatch(ch chan struct{}) {
	s.mu.Lock()
	delete(s.watchers, ch)
	s.mu.Unlock()
}

// IndexHandler renders the control page.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	view := s.state.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, view); err != nil {
		s.log.Warn().Err(err).Msg("HTTP: failed to render page")
	}
}

// StateHandler returns the current view as JSON.
func (s *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state.Snapshot())
}

// VideoFeedHandler streams rendered frames as multipart JPEG until the client
// goes away or the hub closes.
func (s *Server) VideoFeedHandler(w http.ResponseWriter, r *http.Request) {
	sub := s.hub.Subscribe()
	defer sub.Close()

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary("frame"); err != nil {
		http.Error(w, "stream setup failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("HTTP: stream client connected")
	for {
		frame, err := sub.Next(r.Context())
		if err != nil {
			if !errors.Is(err, stream.ErrClosed) && r.Context().Err() == nil {
				s.log.Warn().Err(err).Msg("HTTP: stream ended")
			}
			break
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {strconv.Itoa(len(frame))},
		})
		if err != nil {
			break
		}
		if _, err := part.Write(frame); err != nil {
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("HTTP: stream client disconnected")
}

// formAction runs op and redirects back to the page.
func (s *Server) formAction(op func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op()
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// jsonAction runs op and returns the resulting view.
func (s *Server) jsonAction(op func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op()
		writeJSON(w, s.state.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
