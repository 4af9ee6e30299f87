package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/railvoice/railvoice/internal/announce"
	"github.com/railvoice/railvoice/internal/domain"
	"github.com/railvoice/railvoice/internal/pkg/validate"
	"github.com/railvoice/railvoice/internal/transport/http/middleware"
)

// CreateAnnouncementRequest is the announcer-facing create payload. Origin
// fields are taken from the bearer token, never from the body.
type CreateAnnouncementRequest struct {
	Text     string `json:"text" validate:"required"`
	Priority string `json:"priority" validate:"required,oneof=emergency service_change info"`
	LineID   string `json:"line_id"`
}

// AnnouncementHandler handles announcement lifecycle endpoints.
type AnnouncementHandler struct {
	svc announce.Service
}

func NewAnnouncementHandler(svc announce.Service) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	createReq := announce.CreateRequest{
		TrainID:  chi.URLParam(r, "trainID"),
		Text:     req.Text,
		Priority: domain.Priority(req.Priority),
		LineID:   req.LineID,
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		createReq.OriginName = claims.Name
		createReq.OriginID = claims.UserID
		createReq.OriginEmail = claims.Email
	}

	a, err := h.svc.Create(r.Context(), createReq)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// List returns the train partition's announcements within the display window.
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAll(r.Context(), chi.URLParam(r, "trainID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnnouncementsEnvelope{Data: list})
}

// Delete removes an announcement from its train partition. Line-scoped
// announcements carry the line in the `line` query parameter so the line
// partition entry is removed as well.
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a := domain.Announcement{
		ID:     chi.URLParam(r, "id"),
		LineID: r.URL.Query().Get("line"),
	}
	if err := h.svc.Remove(r.Context(), chi.URLParam(r, "trainID"), a); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "announcement deleted"})
}
