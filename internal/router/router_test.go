package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recibo/internal/handler"
	"recibo/internal/middleware"
	"recibo/internal/oracle"
	"recibo/internal/reconcile"
	"recibo/internal/service"
	"recibo/internal/session"
	"recibo/internal/vocab"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	logger := zerolog.Nop()

	engine := reconcile.NewEngine(reconcile.Config{
		Arbiter: reconcile.NewHeuristic(vocab.DefaultLexicon()),
	}, logger)
	sessions := service.NewSessionService(
		session.NewManager(logger),
		service.NewIdentifyService(oracle.NewMockIdentifier(0), time.Second, logger),
		engine,
		time.Second,
		logger,
	)
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })

	return New(Handlers{
		Identify: handler.NewIdentifyHandler(service.NewIdentifyService(oracle.NewMockIdentifier(0), time.Second, logger), logger),
		Verify:   handler.NewVerifyHandler(service.NewVerifyService(engine, logger), logger),
		Session:  handler.NewSessionHandler(sessions, logger),
		Audit:    handler.NewAuditHandler(service.NewAuditService(nil, logger), logger),
		Health:   handler.NewHealthHandler(false, false),
	}, Options{StaticDir: staticDir, MaxBodyBytes: 1024}, logger)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_APIRoutes(t *testing.T) {
	r := newTestRouter(t, "")

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Liveness",
			method:         http.MethodGet,
			path:           "/api/test",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Health",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"healthy","oracle":"mock","storage":"disabled"}`,
		},
		{
			name:           "Identify in mock mode",
			method:         http.MethodPost,
			path:           "/api/identify-item",
			body:           `{"scannedText":"whatever"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"name":"Mock Item (No Key)","price":5.99,"icon":"fa-box"}`,
		},
		{
			name:           "Duplicate charge scenario",
			method:         http.MethodPost,
			path:           "/api/verify-receipt",
			body:           `{"receiptText":"MILK 3.00, MILK 3.00","userItems":[{"id":1,"name":"Milk","price":3.00}]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"verified":false,"discrepancies":[{"itemName":"Milk","issue":"found 2× on receipt, 1× in cart"}]}`,
		},
		{
			name:           "Clean receipt scenario",
			method:         http.MethodPost,
			path:           "/api/verify-receipt",
			body:           `{"receiptText":"BREAD 2.50","userItems":[{"id":1,"name":"Bread","price":2.50}]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"verified":true,"discrepancies":[]}`,
		},
		{
			name:           "Near-empty receipt degrades",
			method:         http.MethodPost,
			path:           "/api/verify-receipt",
			body:           `{"receiptText":" a b ","userItems":[]}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"verified":false,"discrepancies":[]}`,
		},
		{
			name:           "Audits disabled",
			method:         http.MethodGet,
			path:           "/api/audits",
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "Unknown API path",
			method:         http.MethodGet,
			path:           "/api/nope",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"NOT_FOUND","message":"no such endpoint"}`,
		},
		{
			name:           "Body too large",
			method:         http.MethodPost,
			path:           "/api/verify-receipt",
			body:           `{"receiptText":"` + strings.Repeat("x", 2048) + `"}`,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:           "Preflight",
			method:         http.MethodOptions,
			path:           "/api/verify-receipt",
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.CorrelationIDHeader))
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestRouter_SessionFlow(t *testing.T) {
	r := newTestRouter(t, "")

	w := do(r, http.MethodPost, "/api/sessions", `{"storeContext":"Corner Market"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := extractID(t, w.Body.String())
	base := "/api/sessions/" + id

	w = do(r, http.MethodPost, base+"/items", `{"name":"Bread","price":2.50}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, base+"/verify", `{"receiptText":"BREAD 2.50"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"verified":true,"discrepancies":[]}`, w.Body.String())
	assert.Equal(t, "RESOLVED", w.Header().Get(handler.AuditStateHeader))

	w = do(r, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = do(r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_StaticAndSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>shell</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("console.log('app')"), 0o644))

	r := newTestRouter(t, dir)

	tests := []struct {
		name         string
		path         string
		expectedBody string
	}{
		{name: "Root serves shell", path: "/", expectedBody: "<html>shell</html>"},
		{name: "Asset served", path: "/js/app.js", expectedBody: "console.log('app')"},
		{name: "Client route falls back to shell", path: "/cart/review", expectedBody: "<html>shell</html>"},
		{name: "Missing file falls back to shell", path: "/etc/passwd", expectedBody: "<html>shell</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}

func extractID(t *testing.T, body string) string {
	t.Helper()
	const key = `"id":"`
	start := strings.Index(body, key)
	require.GreaterOrEqual(t, start, 0, body)
	rest := body[start+len(key):]
	end := strings.Index(rest, `"`)
	require.Greater(t, end, 0)
	return rest[:end]
}
