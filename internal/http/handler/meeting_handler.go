package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/conny0506/jira-lite/internal/http/response"
	"github.com/conny0506/jira-lite/internal/service"
)

type MeetingHandler struct {
	auth     *service.AuthService
	meetings *service.MeetingService
}

func NewMeetingHandler(auth *service.AuthService, meetings *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{auth: auth, meetings: meetings}
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(w, r, h.auth)
	if !ok {
		return
	}
	var req struct {
		Title    string    `json:"title"`
		Agenda   string    `json:"agenda"`
		Location string    `json:"location"`
		StartsAt time.Time `json:"starts_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	m, err := h.meetings.CreateMeeting(r.Context(), actor, service.CreateMeetingInput{
		Title:    req.Title,
		Agenda:   req.Agenda,
		Location: req.Location,
		StartsAt: req.StartsAt,
	})
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, m)
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetings.ListUpcoming(r.Context())
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, meetings)
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveActor(w, r, h.auth)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "meeting_id")
	if !ok {
		return
	}
	if err := h.meetings.DeleteMeeting(r.Context(), actor, id); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
