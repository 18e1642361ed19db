// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aptr/workshop-engine/internal/model"
	"github.com/aptr/workshop-engine/internal/service"
	"github.com/go-chi/chi/v5"
)

// WorkshopHandler holds all HTTP handlers for the workshop API.
type WorkshopHandler struct {
	svc *service.WorkshopService
}

// NewWorkshopHandler constructs a WorkshopHandler.
func NewWorkshopHandler(svc *service.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{svc: svc}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps engine errors onto HTTP statuses. Validation failures
// carry their named reason so clients can react without string matching.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:  verr.Message,
			Reason: string(verr.Reason),
		})
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrInvalidDate),
		errors.Is(err, model.ErrInvalidRating),
		errors.Is(err, model.ErrWorkshopCompleted),
		errors.Is(err, model.ErrFeedbackNotOpen):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Workshop handlers ────────────────────────────────────────────────────────

// ListWorkshops handles GET /workshops?bucket=upcoming|ongoing|completed
func (h *WorkshopHandler) ListWorkshops(w http.ResponseWriter, r *http.Request) {
	bucket, err := model.ParseBucket(r.URL.Query().Get("bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	workshops, err := h.svc.ListWorkshops(r.Context(), bucket)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if workshops == nil {
		workshops = []model.Workshop{}
	}
	writeJSON(w, http.StatusOK, workshops)
}

// GetWorkshop handles GET /workshops/{id}
func (h *WorkshopHandler) GetWorkshop(w http.ResponseWriter, r *http.Request) {
	workshop, err := h.svc.GetWorkshop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workshop)
}

// CreateWorkshop handles POST /workshops
func (h *WorkshopHandler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	var req model.WorkshopEdit
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	workshop, err := h.svc.CreateWorkshop(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workshop)
}

// EditWorkshop handles PUT /workshops/{id}
func (h *WorkshopHandler) EditWorkshop(w http.ResponseWriter, r *http.Request) {
	var req model.WorkshopEdit
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	workshop, err := h.svc.EditWorkshop(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workshop)
}

// EditConstraints handles GET /workshops/{id}/constraints
func (h *WorkshopHandler) EditConstraints(w http.ResponseWriter, r *http.Request) {
	set, err := h.svc.EditConstraints(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if set.Editable == nil {
		set.Editable = []string{}
	}
	writeJSON(w, http.StatusOK, set)
}

// DeleteWorkshop handles DELETE /workshops/{id}
func (h *WorkshopHandler) DeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteWorkshop(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ─── Registration handlers ────────────────────────────────────────────────────

type registrationRequest struct {
	AttendeeID string `json:"attendeeId"`
}

// Register handles POST /workshops/{id}/register
// Repeat registrations report ALREADY_REGISTERED with status 200.
func (h *WorkshopHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AttendeeID == "" {
		writeError(w, http.StatusBadRequest, "attendeeId is required")
		return
	}

	outcome, err := h.svc.RegisterAttendee(r.Context(), chi.URLParam(r, "id"), req.AttendeeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeOutcome(w, outcome)
}

// Deregister handles POST /workshops/{id}/deregister
func (h *WorkshopHandler) Deregister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.AttendeeID == "" {
		writeError(w, http.StatusBadRequest, "attendeeId is required")
		return
	}

	outcome, err := h.svc.DeregisterAttendee(r.Context(), chi.URLParam(r, "id"), req.AttendeeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeOutcome(w, outcome)
}

func (h *WorkshopHandler) writeOutcome(w http.ResponseWriter, outcome model.RegistrationOutcome) {
	status := http.StatusOK
	if !outcome.OK() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, outcome)
}

// ListRegistrations handles GET /workshops/{id}/registrations
func (h *WorkshopHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.svc.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, attendees)
}

// ─── Feedback handlers ────────────────────────────────────────────────────────

// WorkshopFeedback handles GET /workshops/{id}/feedback
func (h *WorkshopHandler) WorkshopFeedback(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.WorkshopFeedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if summary.Entries == nil {
		summary.Entries = []model.FeedbackEntry{}
	}
	writeJSON(w, http.StatusOK, summary)
}

// AttendedWorkshops handles GET /attendees/{id}/attended
func (h *WorkshopHandler) AttendedWorkshops(w http.ResponseWriter, r *http.Request) {
	workshops, err := h.svc.AttendedWorkshops(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if workshops == nil {
		workshops = []model.Workshop{}
	}
	writeJSON(w, http.StatusOK, workshops)
}

// PendingFeedback handles GET /attendees/{id}/pending-feedback
func (h *WorkshopHandler) PendingFeedback(w http.ResponseWriter, r *http.Request) {
	queue, blocked, err := h.svc.PendingFeedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if queue == nil {
		queue = []model.Obligation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"obligations": queue,
		"blocked":     blocked,
	})
}

type feedbackRequest struct {
	WorkshopID string `json:"workshopId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// SubmitFeedback handles POST /attendees/{id}/feedback
// Duplicate submissions return 409; the store keeps at most one feedback per
// attendee and workshop.
func (h *WorkshopHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.WorkshopID == "" {
		writeError(w, http.StatusBadRequest, "workshopId is required")
		return
	}

	err := h.svc.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), req.WorkshopID, req.Rating, req.Comment)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "submitted"})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
