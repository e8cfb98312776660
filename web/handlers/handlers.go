// Package handlers provides the HTTP API for negotiations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/parley/internal/catalog"
	"github.com/alienxp03/parley/internal/config"
	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/engine"
	"github.com/alienxp03/parley/internal/export"
	"github.com/alienxp03/parley/internal/storage"
)

// runTimeout bounds negotiations run in the background.
const runTimeout = 10 * time.Minute

// maxCatalogSize caps generated catalogs served by the API.
const maxCatalogSize = 1000

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine *engine.Engine
	config *config.Config
}

// New creates a new Handler. A nil cfg uses the default configuration.
func New(eng *engine.Engine, cfg *config.Config) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{
		engine: eng,
		config: cfg,
	}
}

// Routes builds the router with all HTTP routes.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", h.engine.Metrics().Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", h.handleAPIListProfiles)
		r.Get("/catalog", h.handleAPICatalog)

		r.Route("/negotiations", func(r chi.Router) {
			r.Get("/", h.handleAPINegotiations)
			r.Post("/", h.handleAPICreateNegotiation)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleAPINegotiation)
				r.Delete("/", h.handleAPIDeleteNegotiation)
				r.Post("/run", h.handleAPIRunNegotiation)
				r.Get("/stream", h.handleNegotiationStream)
				r.Get("/export/{format}", h.handleExportNegotiation)
			})
		})
	})

	return r
}

// requestLogger logs each request with slog once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.json(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleAPINegotiations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	negotiations, err := h.engine.ListNegotiations(limit, offset)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if negotiations == nil {
		negotiations = []*core.NegotiationSummary{}
	}

	h.json(w, negotiations)
}

func (h *Handler) handleAPINegotiation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, turns, err := h.engine.GetNegotiationWithTurns(id)
	if err != nil {
		h.storageError(w, err)
		return
	}
	if turns == nil {
		turns = []*core.Turn{}
	}

	h.json(w, map[string]interface{}{
		"negotiation": n,
		"turns":       turns,
	})
}

// CreateRequest is the body of POST /api/negotiations. Wait runs the
// negotiation before responding; AutoRun starts it in the background.
type CreateRequest struct {
	core.NewNegotiationConfig
	AutoRun bool `json:"auto_run"`
	Wait    bool `json:"wait"`
}

func (h *Handler) handleAPICreateNegotiation(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	n, err := h.engine.CreateNegotiation(r.Context(), req.NewNegotiationConfig)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case req.Wait:
		if _, err := h.engine.RunNegotiation(r.Context(), n.ID, nil); err != nil {
			h.storageError(w, err)
			return
		}
		n, err = h.engine.GetNegotiation(n.ID)
		if err != nil {
			h.storageError(w, err)
			return
		}
	case req.AutoRun:
		if err := h.engine.StartNegotiation(n.ID, runTimeout); err != nil {
			h.storageError(w, err)
			return
		}
	}

	w.Header().Set("Location", "/api/negotiations/"+n.ID)
	h.jsonStatus(w, n, http.StatusCreated)
}

func (h *Handler) handleAPIRunNegotiation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if r.URL.Query().Get("wait") != "true" {
		if err := h.engine.StartNegotiation(id, runTimeout); err != nil {
			h.storageError(w, err)
			return
		}
		h.jsonStatus(w, map[string]string{"id": id, "status": "started"}, http.StatusAccepted)
		return
	}

	outcome, err := h.engine.RunNegotiation(r.Context(), id, nil)
	if err != nil {
		h.storageError(w, err)
		return
	}
	h.json(w, outcome)
}

func (h *Handler) handleAPIDeleteNegotiation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	n, err := h.engine.GetNegotiation(id)
	if err != nil {
		h.storageError(w, err)
		return
	}
	if n.Status == core.StatusInProgress {
		h.jsonError(w, "cannot delete a running negotiation", http.StatusConflict)
		return
	}

	if err := h.engine.DeleteNegotiation(id); err != nil {
		h.storageError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportNegotiation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")

	exporter, err := export.GetExporter(export.Format(format))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, turns, err := h.engine.GetNegotiationWithTurns(id)
	if err != nil {
		h.storageError(w, err)
		return
	}

	filename := export.GenerateFilename(n, exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	if err := exporter.Export(n, turns, w); err != nil {
		slog.Error("Export failed", "negotiation_id", id, "format", format, "error", err)
		http.Error(w, "Export failed", http.StatusInternalServerError)
	}
}

func (h *Handler) handleAPIListProfiles(w http.ResponseWriter, r *http.Request) {
	h.json(w, h.config.AllProfiles())
}

// handleAPICatalog serves the configured catalog file, or a generated corpus
// of the requested (or configured) size.
func (h *Handler) handleAPICatalog(w http.ResponseWriter, r *http.Request) {
	sizeParam := r.URL.Query().Get("size")

	if sizeParam == "" && h.config.Defaults.Catalog != "" {
		alternatives, err := catalog.LoadFile(h.config.Defaults.Catalog)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.json(w, alternatives)
		return
	}

	size := h.config.Defaults.CorpusSize
	if sizeParam != "" {
		n, err := strconv.Atoi(sizeParam)
		if err != nil || n > maxCatalogSize {
			h.jsonError(w, fmt.Sprintf("size must be a number up to %d", maxCatalogSize), http.StatusBadRequest)
			return
		}
		size = n
	}

	alternatives, err := catalog.Generate(size)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.json(w, alternatives)
}

// Helper methods

func (h *Handler) storageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.jsonError(w, "negotiation not found", http.StatusNotFound)
		return
	case errors.Is(err, storage.ErrNotPending):
		h.jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	h.jsonError(w, err.Error(), http.StatusInternalServerError)
}

func (h *Handler) json(w http.ResponseWriter, data interface{}) {
	h.jsonStatus(w, data, http.StatusOK)
}

func (h *Handler) jsonStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	h.jsonStatus(w, map[string]string{"error": message}, code)
}
