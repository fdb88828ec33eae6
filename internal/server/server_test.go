package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-dashboard/internal/artifact"
	"credit-dashboard/internal/cfg"
	"credit-dashboard/internal/dataset"
	"credit-dashboard/internal/metrics"
	"credit-dashboard/internal/model"
	"credit-dashboard/internal/storage"
)

const testCSV = `SK_ID_CURR,TARGET,EXT_SOURCE_1,EXT_SOURCE_2,DAYS_BIRTH
100,0,0,0,-14600
200,1,0.5,-0.5,-10950
`

type serverOptions struct {
	withArtifacts bool
	withStore     bool
	noMetrics     bool
}

func newTestServer(t *testing.T, scoringURL string, opts serverOptions) *Server {
	t.Helper()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "clients.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0o600))

	table, err := dataset.Load(csvPath)
	require.NoError(t, err)

	pipelinePath := filepath.Join(dir, "missing", "pipeline")
	explainerPath := filepath.Join(dir, "missing", "explainer")
	if opts.withArtifacts {
		pipelinePath = filepath.Join(dir, "pipeline")
		explainerPath = filepath.Join(dir, "explainer")
		spec := model.PipelineSpec{
			Preprocess: model.PreprocessSpec{
				Features: []string{"EXT_SOURCE_1", "EXT_SOURCE_2"},
				Medians:  []float64{0, 0},
				Means:    []float64{0, 0},
				Scales:   []float64{1, 1},
			},
			Classifier: model.ClassifierSpec{Kind: "logistic", Weights: []float64{1, 1}, Bias: 0},
		}
		require.NoError(t, artifact.Save(pipelinePath, spec))
	}

	var store *storage.Store
	if opts.withStore {
		store, err = storage.New(dir)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
	}

	settings := cfg.Settings{
		ListenPort:    8501,
		MetricsPort:   8080,
		ScoringAPIURL: scoringURL,
		RemoteTimeout: time.Second,
		DatasetPath:   csvPath,
		HistogramBins: 10,
	}

	var m *metrics.Metrics
	if !opts.noMetrics {
		m = metrics.NewWithRegistry(prometheus.NewRegistry())
	}
	return New(settings, table, artifact.NewCache(pipelinePath, explainerPath, false), store, m)
}

func scoringStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestHandleClients(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	var resp struct {
		Clients []int64 `json:"clients"`
		Count   int     `json:"count"`
	}
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/clients", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []int64{100, 200}, resp.Clients)
}

func TestHandleClient_Profile(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	var resp struct {
		Profile dataset.Profile `json:"profile"`
	}
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/clients/100", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(100), resp.Profile.ClientID)
	assert.Equal(t, 40, resp.Profile.AgeYears)
}

func TestHandleClient_Unknown(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/clients/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAnalyze_RemoteSuccess(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.42}`)
	s := newTestServer(t, srv.URL, serverOptions{withArtifacts: true, withStore: true})

	var a Analysis
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/clients/100/analyze", &a)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0.42, a.Assessment.Probability)
	assert.Equal(t, "moderate", string(a.Assessment.Band))
	assert.Equal(t, "review", string(a.Assessment.Action))
	assert.Equal(t, "remote", string(a.Source))
	require.NotNil(t, a.Attribution)
	assert.NotEmpty(t, a.Attribution.Rows)
}

func TestHandleAnalyze_LocalFallback(t *testing.T) {
	srv := scoringStub(t, http.StatusInternalServerError, `boom`)
	s := newTestServer(t, srv.URL, serverOptions{withArtifacts: true})

	var a Analysis
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/clients/100/analyze", &a)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "local", string(a.Source))
	assert.Equal(t, 0.5, a.Assessment.Probability)
	assert.Equal(t, "moderate", string(a.Assessment.Band))
}

func TestHandleAnalyze_WithoutMetrics(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.42}`)
	s := newTestServer(t, srv.URL, serverOptions{withArtifacts: true, noMetrics: true})

	var a Analysis
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/clients/100/analyze", &a)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.42, a.Assessment.Probability)
}

func TestHandleAnalyze_NoSource(t *testing.T) {
	srv := scoringStub(t, http.StatusInternalServerError, `boom`)
	s := newTestServer(t, srv.URL, serverOptions{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/clients/100/analyze", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleAnalyze_UnknownClient(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/clients/999/analyze", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAnalyze_PersistsHistory(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.7}`)
	s := newTestServer(t, srv.URL, serverOptions{withStore: true})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/clients/100/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Analyses []storage.AnalysisRecord `json:"analyses"`
	}
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/clients/100/history", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Analyses, 1)
	assert.Equal(t, 0.7, resp.Analyses[0].Probability)
	assert.Equal(t, "high", resp.Analyses[0].Band)
}

func TestHandleHistory_Disabled(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/clients/100/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleDistribution(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	var resp struct {
		Histogram   dataset.Histogram `json:"histogram"`
		ClientValue *float64          `json:"clientValue"`
	}
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/features/DAYS_BIRTH/distribution?client=100", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	total := 0
	for _, c := range resp.Histogram.Counts {
		total += c
	}
	assert.Equal(t, 2, total)
	require.NotNil(t, resp.ClientValue)
	assert.Equal(t, -14600.0, *resp.ClientValue)
}

func TestHandleDistribution_UnknownFeature(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/features/NOPE/distribution", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDistribution_BadBins(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/features/DAYS_BIRTH/distribution?bins=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSession_TracksLastAnalysis(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.2}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/clients/100/analyze", nil)
	req.Header.Set(sessionIDHeader, "reviewer-1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(sessionIDHeader, "reviewer-1")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var sess session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, int64(100), sess.ClientID)
	require.NotNil(t, sess.LastAnalysis)
	assert.Equal(t, 0.2, sess.LastAnalysis.Assessment.Probability)

	// A different session has no state.
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(sessionIDHeader, "reviewer-2")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var other session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &other))
	assert.Nil(t, other.LastAnalysis)
}

func TestHandleHealth(t *testing.T) {
	srv := scoringStub(t, http.StatusOK, `{"credit_score": 0.1}`)
	s := newTestServer(t, srv.URL, serverOptions{})

	var resp struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Clients)
}

func TestWebSocket_ReceivesAnalysisEvents(t *testing.T) {
	scoring := scoringStub(t, http.StatusOK, `{"credit_score": 0.42}`)
	s := newTestServer(t, scoring.URL, serverOptions{})
	go s.clientBroadcaster()
	defer close(s.stopChannel)

	web := httptest.NewServer(s.Handler())
	defer web.Close()

	wsURL := "ws" + strings.TrimPrefix(web.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the server register the connection before publishing.
	require.Eventually(t, func() bool {
		s.clientsMu.RLock()
		defer s.clientsMu.RUnlock()
		return len(s.clients) == 1
	}, time.Second, 10*time.Millisecond)

	resp, err := http.Post(web.URL+"/api/clients/100/analyze", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event AnalysisEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, int64(100), event.ClientID)
	assert.Equal(t, 0.42, event.Probability)
	assert.Equal(t, "moderate", event.Band)
}
