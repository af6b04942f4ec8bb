package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"civid/internal/appointment"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/httputil"
)

type bookAppointmentBody struct {
	UserID   string `json:"user_id"`
	CenterID string `json:"center_id"`
	Date     string `json:"date"` // "2006-01-02"
	Slot     string `json:"slot"` // "10:30"
	Notes    string `json:"notes,omitempty"`
}

func (h *Handler) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	body, ok := httputil.Decode[bookAppointmentBody](w, r, h.logger)
	if !ok {
		return
	}
	userID, err := id.ParseUserID(body.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	centerID, err := id.ParseCenterID(body.CenterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "date must be YYYY-MM-DD"))
		return
	}

	appt, err := h.appointments.Book(r.Context(), appointment.BookParams{
		UserID:   userID,
		CenterID: centerID,
		Date:     date,
		Slot:     body.Slot,
		Notes:    body.Notes,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, appt)
}

func (h *Handler) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appt, err := h.appointments.Get(r.Context(), appointmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	centerID, err := id.ParseCenterID(r.URL.Query().Get("center_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "date must be YYYY-MM-DD"))
		return
	}
	appts, err := h.appointments.ListByCenterDate(r.Context(), centerID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (h *Handler) handleCompleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appt, err := h.appointments.Complete(r.Context(), appointmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appt, err := h.appointments.Cancel(r.Context(), appointmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) handleMissAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appt, err := h.appointments.Miss(r.Context(), appointmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, appt)
}

func (h *Handler) handleAppointmentForRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appt, err := h.appointments.ForRequest(r.Context(), requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, appt)
}
