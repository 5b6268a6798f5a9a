package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/portal"
	"github.com/asshaltech/bapp-review/internal/queue"
	"github.com/asshaltech/bapp-review/internal/review"
	"github.com/asshaltech/bapp-review/internal/session"
)

// stubPortals backs both upstream clients with one httptest server: a DAC
// ajax login, a Datasource login with its probe page, and an empty worklist.
func stubPortals(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/ajax_login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "ci_session", Value: "dac-tok"})
		w.Write([]byte(`{"status":true}`))
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "ci_session", Value: "ds-tok"})
		http.Redirect(w, r, "/proses", http.StatusFound)
	})
	mux.HandleFunc("/view_form/84817", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<span class="admin-name">Budi</span>`))
	})
	mux.HandleFunc("/proses", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<table></table>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	upstream := stubPortals(t)

	dac := portal.NewDACClient(portal.Config{BaseURL: upstream.URL}, logger)
	ds := portal.NewDatasourceClient(portal.DatasourceConfig{
		Config:      portal.Config{BaseURL: upstream.URL},
		ProbeFormID: "84817",
	}, logger)

	sessions := session.NewManager(dac, ds, nil, logger)
	queueCtrl := queue.NewController(queue.Config{
		WorklistType:    "DAC",
		InProcessStatus: "Proses",
	}, dac, ds, sessions, logger)
	pipeline := review.NewPipeline(sessions, ds, dac, queueCtrl, nil, logger)
	handlers := NewHandlers(sessions, queueCtrl, pipeline, nil, logger)

	return NewServer(ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, handlers, logger)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	w, resp := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestAuthStatusUnauthenticated(t *testing.T) {
	srv := newTestServer(t)
	w, resp := doRequest(t, srv, http.MethodGet, "/api/auth/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, false, data["dac"])
	assert.Equal(t, false, data["datasource"])
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	w, resp := doRequest(t, srv, http.MethodPost, "/api/auth/login",
		`{"portal":"dac","username":"user","password":"pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = doRequest(t, srv, http.MethodPost, "/api/auth/login",
		`{"portal":"datasource","username":"user","password":"pass"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	_, resp = doRequest(t, srv, http.MethodGet, "/api/auth/status", "")
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["dac"])
	assert.Equal(t, true, data["datasource"])
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doRequest(t, srv, http.MethodPost, "/api/auth/login", `{"portal":"dac"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, srv, http.MethodPost, "/api/auth/login",
		`{"portal":"lainnya","username":"u","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadQueueRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	w, resp := doRequest(t, srv, http.MethodPost, "/api/queue/load", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestLoadQueueEmptyWorklist(t *testing.T) {
	srv := newTestServer(t)
	_, _ = doRequest(t, srv, http.MethodPost, "/api/auth/login",
		`{"portal":"datasource","username":"user","password":"pass"}`)

	w, resp := doRequest(t, srv, http.MethodPost, "/api/queue/load", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["count"])
}

func TestSubmitWithoutCurrentTask(t *testing.T) {
	srv := newTestServer(t)
	_, _ = doRequest(t, srv, http.MethodPost, "/api/auth/login",
		`{"portal":"datasource","username":"user","password":"pass"}`)

	w, resp := doRequest(t, srv, http.MethodPost, "/api/submit", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)
}

func TestConfirmNoteWithoutPendingSave(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doRequest(t, srv, http.MethodPost, "/api/submit/confirm-note", `{"note":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTaskImageRequiresSrc(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doRequest(t, srv, http.MethodGet, "/api/task/image", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportReportUnconfigured(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doRequest(t, srv, http.MethodGet, "/api/report/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
