package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/railvoice/railvoice/internal/announce"
	"github.com/railvoice/railvoice/internal/domain"
)

// StreamHandler serves live announcement feeds over Server-Sent Events.
// Every event carries the full current list for the subscribed scope, so a
// client can always replace its local state wholesale.
type StreamHandler struct {
	svc announce.Service
}

func NewStreamHandler(svc announce.Service) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// Train streams the display-window list of one train partition.
func (h *StreamHandler) Train(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.SubscribeTrain(r.Context(), chi.URLParam(r, "trainID"))
	if err != nil {
		httpError(w, err)
		return
	}
	h.serve(w, r, sub)
}

// Line streams the display-window list of one line partition.
func (h *StreamHandler) Line(w http.ResponseWriter, r *http.Request) {
	sub, err := h.svc.SubscribeLine(r.Context(), chi.URLParam(r, "lineID"))
	if err != nil {
		httpError(w, err)
		return
	}
	h.serve(w, r, sub)
}

// Combined streams the merged line+train feed for a rider who knows either
// or both of their line and train. At least one of the `line` and `train`
// query parameters must be set.
func (h *StreamHandler) Combined(w http.ResponseWriter, r *http.Request) {
	lineID := r.URL.Query().Get("line")
	trainID := r.URL.Query().Get("train")
	sub, err := h.svc.SubscribeCombined(r.Context(), lineID, trainID)
	if err != nil {
		httpError(w, err)
		return
	}
	h.serve(w, r, sub)
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, sub *announce.Subscription) {
	defer sub.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, errs := sub.Updates(), sub.Errors()
	for updates != nil || errs != nil {
		select {
		case <-r.Context().Done():
			return
		case list, chOpen := <-updates:
			if !chOpen {
				updates = nil
				continue
			}
			if err := writeEvent(w, flusher, list); err != nil {
				return
			}
		case err, chOpen := <-errs:
			if !chOpen {
				errs = nil
				continue
			}
			slog.Warn("announcement stream error", "path", r.URL.Path, "err", err)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, list []domain.Announcement) error {
	body, err := json.Marshal(AnnouncementsEnvelope{Data: list})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", body); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
