// Package api serves the tracker over HTTP: the HTML control page, the MJPEG
// stream, JSON control endpoints and a websocket that pushes state changes.
package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route onto a mux router.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/", s.IndexHandler).Methods("GET")
	r.HandleFunc("/video_feed", s.VideoFeedHandler).Methods("GET")
	r.HandleFunc("/add_targets", s.formAction(s.state.AddTargets)).Methods("POST")
	r.HandleFunc("/start_detection", s.formAction(s.state.StartDetection)).Methods("POST")
	r.HandleFunc("/reset", s.formAction(s.state.Reset)).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.StateHandler).Methods("GET")
	api.HandleFunc("/add_targets", s.jsonAction(s.state.AddTargets)).Methods("POST")
	api.HandleFunc("/start_detection", s.jsonAction(s.state.StartDetection)).Methods("POST")
	api.HandleFunc("/reset", s.jsonAction(s.state.Reset)).Methods("POST")

	r.HandleFunc("/ws", s.WebSocketHandler).Methods("GET")
	return r
}
