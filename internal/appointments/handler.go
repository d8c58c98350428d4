package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
	"github.com/adityaverma/chatbot-backend/pkg/logging"
)

// Handler exposes the appointment endpoints over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the appointments HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type scheduleRequest struct {
	Title       string `json:"title"`
	Time        string `json:"time"`
	Username    string `json:"username"`
	BotID       string `json:"bot_id"`
	SessionID   string `json:"session_id"`
	ContactName string `json:"contact_name"`
}

// Schedule handles POST /schedule_appointment.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.Title == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: title and time are required")
		return
	}

	appt, err := h.service.Book(r.Context(), BookRequest{
		Tenant:      req.Username,
		BotID:       req.BotID,
		Title:       req.Title,
		Time:        req.Time,
		SessionID:   req.SessionID,
		ContactName: req.ContactName,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, "This time slot is already booked. Please choose a different slot.")
		return
	case errors.Is(err, ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Appointment storage is not configured.")
		return
	default:
		h.logger.Error("appointments: scheduling failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Appointment scheduled successfully",
		"appointment":    appt,
		"appointment_id": appt.ID,
	})
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	Username      string `json:"username"`
	BotID         string `json:"bot_id"`
}

// Cancel handles POST /cancel_appointment.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	if req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "Appointment ID is required")
		return
	}

	err := h.service.Cancel(r.Context(), req.Username, req.BotID, req.AppointmentID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Appointment not found")
		return
	case errors.Is(err, ErrAlreadyCancelled):
		writeError(w, http.StatusBadRequest, "Appointment is already cancelled")
		return
	case errors.Is(err, ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Appointment storage is not configured.")
		return
	default:
		h.logger.Error("appointments: cancellation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to cancel appointment. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Appointment cancelled successfully",
		"appointment_id": req.AppointmentID,
	})
}

// List handles GET /get_appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenant := r.URL.Query().Get("username")
	if user, ok := tenancy.UserFromContext(r.Context()); ok && tenant == "" {
		tenant = user
	}
	botID := r.URL.Query().Get("botId")

	if id := r.URL.Query().Get("appointment_id"); id != "" {
		appt, err := h.service.Get(r.Context(), tenant, botID, id)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"appointments": []Appointment{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments": []Appointment{*appt}})
		return
	}

	appts := h.service.List(r.Context(), tenant, botID)
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// SlotLocks handles GET /get_slot_locks?date=YYYY-MM-DD.
func (h *Handler) SlotLocks(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"locks": map[string]string{}})
		return
	}
	tenant := r.URL.Query().Get("username")
	if user, ok := tenancy.UserFromContext(r.Context()); ok && tenant == "" {
		tenant = user
	}
	botID := r.URL.Query().Get("botId")

	locks := h.service.SlotLocks(r.Context(), tenant, botID, date)
	writeJSON(w, http.StatusOK, map[string]any{"locks": locks})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
