package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/http/middleware"
	"github.com/conny0506/jira-lite/internal/http/response"
	"github.com/conny0506/jira-lite/internal/service"

	"github.com/go-chi/chi/v5"
)

type TicketHandler struct {
	auth    *service.AuthService
	tickets *service.TicketService
}

func NewTicketHandler(auth *service.AuthService, tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{auth: auth, tickets: tickets}
}

func (h *TicketHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	p, err := h.tickets.CreateProject(r.Context(), actor, req.Name, req.Description)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, p)
}

func (h *TicketHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.tickets.ListProjects(r.Context())
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, projects)
}

func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		ProjectID   uint       `json:"project_id"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		AssigneeID  *uint      `json:"assignee_id"`
		DueAt       *time.Time `json:"due_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	t, err := h.tickets.CreateTicket(r.Context(), actor, service.CreateTicketInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueAt:       req.DueAt,
	})
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, t)
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "ticket_id")
	if !ok {
		return
	}
	t, err := h.tickets.Ticket(r.Context(), id)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

func (h *TicketHandler) ListProjectTickets(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "project_id")
	if !ok {
		return
	}
	tickets, err := h.tickets.ListByProject(r.Context(), id)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tickets)
}

func (h *TicketHandler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	tickets, err := h.tickets.ListMine(r.Context(), actor)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tickets)
}

func (h *TicketHandler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "ticket_id")
	if !ok {
		return
	}
	var req struct {
		AssigneeID uint `json:"assignee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	t, err := h.tickets.AssignTicket(r.Context(), actor, id, req.AssigneeID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

func (h *TicketHandler) RequestUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "ticket_id")
	if !ok {
		return
	}
	var req struct {
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
		SizeBytes   int64  `json:"size_bytes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	info, err := h.tickets.RequestDeliverableUpload(r.Context(), actor, id, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

func (h *TicketHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "ticket_id")
	if !ok {
		return
	}
	var req struct {
		ObjectKey   string `json:"object_key"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	sub, err := h.tickets.SubmitDeliverable(r.Context(), actor, id, req.ObjectKey, req.FileName, req.ContentType)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, sub)
}

func (h *TicketHandler) Review(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "submission_id")
	if !ok {
		return
	}
	var req struct {
		Approved bool   `json:"approved"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	sub, err := h.tickets.ReviewSubmission(r.Context(), actor, id, req.Approved, req.Comment)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, sub)
}

func (h *TicketHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "submission_id")
	if !ok {
		return
	}
	u, err := h.tickets.DeliverableDownloadURL(r.Context(), actor, id)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"download_url": u})
}

func (h *TicketHandler) actor(w http.ResponseWriter, r *http.Request) (*domain.Member, bool) {
	return resolveActor(w, r, h.auth)
}

func resolveActor(w http.ResponseWriter, r *http.Request, auth *service.AuthService) (*domain.Member, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
		return nil, false
	}
	memberID, err := claims.MemberID()
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
		return nil, false
	}
	member, err := auth.Member(r.Context(), memberID)
	if err != nil {
		response.ServiceError(w, r, err)
		return nil, false
	}
	return member, true
}

func uintParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
