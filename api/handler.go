// Package api serves the entity stores over HTTP. Each entity gets its
// own Handler, which can be deployed alone (Function) or mounted with the
// others on one router (NewRouter).
package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ideamans/sheetboard"
)

// Handler serves the collection and item routes of one entity
type Handler struct {
	store   *sheetboard.Store
	entity  sheetboard.Entity
	logger  *slog.Logger
	methods string
}

// NewHandler creates a handler for store
func NewHandler(store *sheetboard.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := store.Entity()
	return &Handler{
		store:   store,
		entity:  e,
		logger:  logger.With("entity", e.Name),
		methods: allowedMethods(e),
	}
}

// Entity returns the entity served by the handler
func (h *Handler) Entity() sheetboard.Entity {
	return h.entity
}

// Routes returns the entity routes relative to the entity path
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.cors)
	r.HandleFunc("/", h.collection)
	r.HandleFunc("/{id}", h.item)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", h.methods)
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodPatch, http.MethodDelete:
		// serverless deployments address items as ?id=
		h.mutate(w, r, r.URL.Query().Get("id"))
	default:
		h.methodNotAllowed(w)
	}
}

func (h *Handler) item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPatch, http.MethodDelete:
		h.mutate(w, r, chi.URLParam(r, "id"))
	default:
		h.methodNotAllowed(w)
	}
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, id string) {
	op := sheetboard.OpUpdate
	if r.Method == http.MethodDelete {
		op = sheetboard.OpDelete
	}
	if !h.entity.Allows(op) {
		h.methodNotAllowed(w)
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s ID is required", h.entity.Label))
		return
	}

	if op == sheetboard.OpUpdate {
		h.update(w, r, id)
		return
	}
	h.delete(w, r, id)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !h.entity.Allows(sheetboard.OpList) {
		h.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.store.List(r.Context()))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if !h.entity.Allows(sheetboard.OpCreate) {
		h.methodNotAllowed(w)
		return
	}

	input, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	record, stored, err := h.store.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !stored {
		h.logger.Warn("record was not stored", "id", record.Get(h.entity.IDColumn))
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id string) {
	updates, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	record, stored, err := h.store.Update(r.Context(), id, updates)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !stored {
		h.logger.Warn("record update was not stored", "id", id)
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, id string) {
	removed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !removed {
		h.logger.Warn("record was not removed", "id", id)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// decodeBody reads a JSON object from the request. An empty body is an
// empty record.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (*sheetboard.Record, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}

	record := sheetboard.NewRecord()
	if len(strings.TrimSpace(string(data))) == 0 {
		return record, true
	}
	if err := record.UnmarshalJSON(data); err != nil {
		h.logger.Debug("invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return record, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sheetboard.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s not found", h.entity.Label))
	case errors.Is(err, sheetboard.ErrMissingID):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s ID is required", h.entity.Label))
	case errors.Is(err, sheetboard.ErrReadOnly):
		h.methodNotAllowed(w)
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// allowedMethods lists the HTTP verbs an entity accepts, for CORS
func allowedMethods(e sheetboard.Entity) string {
	var methods []string
	if e.Allows(sheetboard.OpList) {
		methods = append(methods, http.MethodGet)
	}
	if e.Allows(sheetboard.OpCreate) {
		methods = append(methods, http.MethodPost)
	}
	if e.Allows(sheetboard.OpUpdate) {
		methods = append(methods, http.MethodPatch)
	}
	if e.Allows(sheetboard.OpDelete) {
		methods = append(methods, http.MethodDelete)
	}
	methods = append(methods, http.MethodOptions)
	return strings.Join(methods, ", ")
}
