package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"recibo/internal/handler"
	"recibo/internal/middleware"
	"recibo/internal/model"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Identify *handler.IdentifyHandler
	Verify   *handler.VerifyHandler
	Session  *handler.SessionHandler
	Audit    *handler.AuditHandler
	Health   *handler.HealthHandler
}

// Options tunes the router.
type Options struct {
	// StaticDir holds the client application. Empty disables static serving.
	StaticDir    string
	MaxBodyBytes int64
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", h.Health.Health)
	mux.HandleFunc("GET /api/test", h.Health.Test)

	// Stateless scan and audit endpoints
	mux.HandleFunc("POST /api/identify-item", h.Identify.Identify)
	mux.HandleFunc("POST /api/verify-receipt", h.Verify.Verify)

	// Shopping sessions
	mux.HandleFunc("POST /api/sessions", h.Session.Create)
	mux.HandleFunc("GET /api/sessions/{id}", h.Session.Get)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.Session.Delete)
	mux.HandleFunc("POST /api/sessions/{id}/reset", h.Session.Reset)
	mux.HandleFunc("POST /api/sessions/{id}/scan", h.Session.Scan)
	mux.HandleFunc("POST /api/sessions/{id}/items", h.Session.AddItem)
	mux.HandleFunc("PUT /api/sessions/{id}/items/{itemId}", h.Session.EditItem)
	mux.HandleFunc("DELETE /api/sessions/{id}/items/{itemId}", h.Session.RemoveItem)
	mux.HandleFunc("POST /api/sessions/{id}/verify", h.Session.Verify)

	// Stored audits
	mux.HandleFunc("GET /api/audits", h.Audit.List)
	mux.HandleFunc("GET /api/audits/{id}", h.Audit.GetByID)

	// Unknown API paths answer JSON instead of the client shell
	mux.HandleFunc("/api/", apiNotFound(logger))

	if opts.StaticDir != "" {
		mux.Handle("/", spa(opts.StaticDir))
	}

	// Apply middleware in order: Recovery -> CorrelationID -> Logging -> CORS -> BodyLimit
	var handler http.Handler = mux
	handler = middleware.BodyLimit(opts.MaxBodyBytes)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

func apiNotFound(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("no api route")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"` + model.ErrCodeNotFound + `","message":"no such endpoint"}`))
	}
}

// spa serves files from dir and answers every other path with index.html.
func spa(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if clean != "/" {
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, index)
	})
}
