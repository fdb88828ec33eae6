// Package server exposes the decision-support dashboard over HTTP: client
// lookup, on-demand risk analysis, population distributions, and a WebSocket
// stream of completed analyses for connected dashboards.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/artifact"
	"credit-dashboard/internal/cfg"
	"credit-dashboard/internal/dataset"
	"credit-dashboard/internal/metrics"
	"credit-dashboard/internal/predict"
	"credit-dashboard/internal/storage"
)

// AnalysisEvent is the completed-analysis notification pushed to connected
// dashboards.
type AnalysisEvent struct {
	ClientID    int64     `json:"clientId"`
	Probability float64   `json:"probability"`
	ScorePct    float64   `json:"scorePct"`
	Source      string    `json:"source"`
	Band        string    `json:"band"`
	Action      string    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
}

// Server serves the dashboard API and pushes analysis events to WebSocket
// clients.
type Server struct {
	settings  cfg.Settings
	table     *dataset.Table
	artifacts *artifact.Cache
	remote    *predict.RemoteClient
	store     *storage.Store // nil when history persistence is disabled
	metrics   *metrics.Metrics
	sessions  *sessionRegistry

	server           *http.Server
	upgrader         websocket.Upgrader
	clients          map[*websocket.Conn]bool
	clientsMu        sync.RWMutex
	broadcastChannel chan AnalysisEvent
	stopChannel      chan struct{}
	isRunning        bool
	mu               sync.RWMutex

	rebuildOnce sync.Once
}

// New wires the dashboard server. The store may be nil; analysis history
// endpoints then report the feature as disabled.
func New(settings cfg.Settings, table *dataset.Table, artifacts *artifact.Cache, store *storage.Store, m *metrics.Metrics) *Server {
	s := &Server{
		settings:         settings,
		table:            table,
		artifacts:        artifacts,
		remote:           predict.NewRemoteClient(settings.ScoringAPIURL, settings.RemoteTimeout),
		store:            store,
		metrics:          m,
		sessions:         newSessionRegistry(m),
		upgrader:         websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:          make(map[*websocket.Conn]bool),
		broadcastChannel: make(chan AnalysisEvent, 100),
		stopChannel:      make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/clients", s.handleClients).Methods("GET")
	r.HandleFunc("/api/clients/{id:[0-9]+}", s.handleClient).Methods("GET")
	r.HandleFunc("/api/clients/{id:[0-9]+}/analyze", s.handleAnalyze).Methods("POST")
	r.HandleFunc("/api/clients/{id:[0-9]+}/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/api/features/{name}/distribution", s.handleDistribution).Methods("GET")
	r.HandleFunc("/api/session", s.handleSession).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.ListenPort),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the dashboard server and the event broadcaster.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard server is already running")
	}

	go s.clientBroadcaster()

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop shuts the server down and closes all WebSocket connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopChannel)

	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard server stopped")
	return nil
}

// clientBroadcaster forwards analysis events to all connected WebSocket
// clients.
func (s *Server) clientBroadcaster() {
	for {
		select {
		case event := <-s.broadcastChannel:
			s.broadcastToClients(event)
		case <-s.stopChannel:
			return
		}
	}
}

func (s *Server) broadcastToClients(event AnalysisEvent) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal analysis event for broadcast")
		return
	}

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Msg("Failed to send event to WebSocket client")
			client.Close()
			delete(s.clients, client)
			if s.metrics != nil {
				s.metrics.ConnectedDashboards.Dec()
			}
		}
	}
}

// handleWebSocket registers a dashboard for analysis-event pushes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	if s.metrics != nil {
		s.metrics.ConnectedDashboards.Inc()
	}

	// The stream is push-only; the read loop just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		if s.metrics != nil {
			s.metrics.ConnectedDashboards.Dec()
		}
	}
	s.clientsMu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
