// Package web serves the garden dashboard: an HTML status page, the JSON
// feed behind it, and the manual watering controls.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/godrip/godrip/pkg/policy"
	"github.com/godrip/godrip/pkg/state"
)

// Waterer triggers a watering pulse on behalf of a dashboard user.
// *policy.Engine satisfies it.
type Waterer interface {
	Water(trigger state.Trigger) error
}

// Server serves the dashboard over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *state.Tracker
	waterer    Waterer
}

// New creates a Server that reads state from the given tracker and sends
// manual watering requests through the given waterer.
func New(addr string, tracker *state.Tracker, waterer Waterer) *Server {
	s := &Server{tracker: tracker, waterer: waterer}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/data", s.handleData)
	mux.HandleFunc("/water_manual", s.handleWaterManual)
	mux.HandleFunc("/toggle_auto", s.handleToggleAuto)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatData(snap))
}

// statusBody is the response shape of the two control endpoints.
type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Enabled *bool  `json:"enabled,omitempty"`
}

func (s *Server) handleWaterManual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log.Printf("Manual watering requested")
	err := s.waterer.Water(state.TriggerManual)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, statusBody{Status: "success", Message: "Manual watering initiated."})
	case errors.Is(err, policy.ErrWateringInProgress):
		writeJSON(w, http.StatusConflict, statusBody{Status: "error", Message: "Watering already in progress."})
	case errors.Is(err, policy.ErrNotConnected):
		writeJSON(w, http.StatusServiceUnavailable, statusBody{Status: "error", Message: "Serial connection not available. Check Arduino power."})
	default:
		log.Printf("Manual watering failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, statusBody{Status: "error", Message: "Failed to send watering command."})
	}
}

func (s *Server) handleToggleAuto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := s.tracker.ToggleAuto()
	message := "Automatic watering DISABLED."
	if enabled {
		message = "Automatic watering ENABLED."
	}
	log.Print(message)

	writeJSON(w, http.StatusOK, statusBody{Status: "success", Message: message, Enabled: &enabled})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "ok")
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
