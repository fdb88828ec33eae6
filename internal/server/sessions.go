package server

import (
	"net/http"
	"sync"
	"time"

	"credit-dashboard/internal/metrics"
)

// sessionIDHeader carries the dashboard session identifier. Browsers that do
// not send one share the default session, matching single-user operation.
const sessionIDHeader = "X-Session-ID"

// session is the explicit per-dashboard state: the client under review and
// the analysis most recently produced for it.
type session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	ClientID     int64     `json:"clientId,omitempty"`
	LastAnalysis *Analysis `json:"lastAnalysis,omitempty"`
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	metrics  *metrics.Metrics
}

func newSessionRegistry(m *metrics.Metrics) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		metrics:  m,
	}
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get(sessionIDHeader); id != "" {
		return id
	}
	return "default"
}

// get returns the session for the id, creating it on first use.
func (sr *sessionRegistry) get(id string) *session {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	s, ok := sr.sessions[id]
	if !ok {
		s = &session{ID: id, CreatedAt: time.Now()}
		sr.sessions[id] = s
		if sr.metrics != nil {
			sr.metrics.ActiveSessions.Set(float64(len(sr.sessions)))
		}
	}
	return s
}

// record stores the outcome of an analysis on the session.
func (sr *sessionRegistry) record(id string, clientID int64, a *Analysis) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	s, ok := sr.sessions[id]
	if !ok {
		s = &session{ID: id, CreatedAt: time.Now()}
		sr.sessions[id] = s
		if sr.metrics != nil {
			sr.metrics.ActiveSessions.Set(float64(len(sr.sessions)))
		}
	}
	s.ClientID = clientID
	s.LastAnalysis = a
}

// snapshot copies the session state for serialization.
func (sr *sessionRegistry) snapshot(id string) session {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if s, ok := sr.sessions[id]; ok {
		return *s
	}
	return session{ID: id}
}
