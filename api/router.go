package api

import (
	"io"
	"log/slog"
	"net/http"
	"path"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures NewRouter
type Options struct {
	Prefix   string           // Path prefix for every route, e.g. "/api"
	Logger   *slog.Logger     // Request and error logger
	Degraded bool             // Reported by the health endpoint
	Now      func() time.Time // Clock for the health timestamp
}

// EntityPath returns the path an entity is served at under prefix
func EntityPath(prefix, name string) string {
	return path.Join("/", prefix, name)
}

// Function returns a standalone handler for one entity mounted at
// {prefix}/{entity}, as a single serverless function would serve it
func Function(prefix string, h *Handler) http.Handler {
	r := chi.NewRouter()
	use(r, h.logger)
	r.Mount(EntityPath(prefix, h.entity.Name), h.Routes())
	return r
}

// NewRouter mounts every handler and the health endpoint on one router
func NewRouter(handlers []*Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	use(r, logger)
	for _, h := range handlers {
		r.Mount(EntityPath(opts.Prefix, h.entity.Name), h.Routes())
	}
	r.HandleFunc(EntityPath(opts.Prefix, "health"), health(opts.Degraded, now))
	return r
}

// use installs the middleware and fallback handlers shared by both shapes
func use(r chi.Router, logger *slog.Logger) {
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(cors)
	r.Use(recoverer(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// cors marks every response as readable from any origin. Entity routes
// add their own method lists.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Backend   string `json:"backend"`
}

func health(degraded bool, now func() time.Time) http.HandlerFunc {
	backend := "configured"
	if degraded {
		backend = "degraded"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, healthResponse{
				Status:    "ok",
				Timestamp: now().UTC().Format(time.RFC3339),
				Backend:   backend,
			})
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Info("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}

// recoverer turns a panic into a generic 500 without leaking details
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic serving request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
