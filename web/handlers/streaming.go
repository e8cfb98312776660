package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// streamPollInterval is how often a stream checks storage for new turns.
var streamPollInterval = 500 * time.Millisecond

// handleNegotiationStream streams the transcript of a negotiation using
// Server-Sent Events until the negotiation finishes.
func (h *Handler) handleNegotiationStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("New negotiation stream connection", "id", id, "remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	n, turns, err := h.engine.GetNegotiationWithTurns(id)
	if err != nil {
		slog.Warn("Negotiation not available for stream", "id", id, "error", err)
		h.sendSSEError(w, flusher, "Negotiation not found")
		return
	}

	for _, turn := range turns {
		h.sendSSEEvent(w, flusher, "turn", turn)
	}

	if n.Status.Finished() {
		h.sendSSEEvent(w, flusher, "negotiation_complete", n)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	sent := len(turns)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Stream context done", "id", id)
			return
		case <-ticker.C:
			updated, updatedTurns, err := h.engine.GetNegotiationWithTurns(id)
			if err != nil {
				slog.Error("Stream error updating negotiation", "id", id, "error", err)
				h.sendSSEError(w, flusher, "Negotiation no longer available")
				return
			}

			for ; sent < len(updatedTurns); sent++ {
				h.sendSSEEvent(w, flusher, "turn", updatedTurns[sent])
			}

			if updated.Status.Finished() {
				h.sendSSEEvent(w, flusher, "negotiation_complete", updated)
				return
			}
		}
	}
}

func (h *Handler) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		slog.Error("Failed to write SSE event", "error", err)
		return
	}
	flusher.Flush()
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	h.sendSSEEvent(w, flusher, "error", map[string]string{"message": message})
}

