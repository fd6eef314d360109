package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// Orchestrator is the booking surface the HTTP layer drives.
type Orchestrator interface {
	Create(ctx context.Context, in booking.CreateInput) (model.Appointment, error)
	Reschedule(ctx context.Context, id string, newStart time.Time) (model.Appointment, error)
	Cancel(ctx context.Context, id string) (model.Appointment, error)
	Confirm(ctx context.Context, id string) (model.Appointment, error)
	Complete(ctx context.Context, id string) (model.Appointment, error)
	ListForCustomer(ctx context.Context, customerEmail string, limit int) ([]model.Appointment, error)
	Availability(ctx context.Context, barberID, serviceID string, date time.Time) (booking.DayAvailability, error)
}

type BookingHandler struct {
	svc    Orchestrator
	logger *slog.Logger
}

func NewBookingHandler(svc Orchestrator, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

type createBookingRequest struct {
	BarberID      string `json:"barber_id"`
	ServiceID     string `json:"service_id"`
	StartTime     string `json:"start_time"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
}

type rescheduleRequest struct {
	StartTime string `json:"start_time"`
}

type appointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	BarberID      string `json:"barber_id"`
	ServiceID     string `json:"service_id"`
	ServiceName   string `json:"service_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	TotalPrice    string `json:"total_price"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	resp := appointmentResponse{
		AppointmentID: a.ID,
		BarberID:      a.BarberID,
		ServiceID:     a.ServiceID,
		ServiceName:   a.ServiceName,
		StartTime:     a.StartTime.UTC().Format(time.RFC3339),
		EndTime:       a.EndTime.UTC().Format(time.RFC3339),
		Status:        string(a.Status),
		TotalPrice:    a.TotalPrice,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		resp.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Create(r.Context(), booking.CreateInput{
		BarberID:      req.BarberID,
		ServiceID:     req.ServiceID,
		Start:         start,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), id, start)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.Confirm(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("customer_email"))
	if email == "" {
		http.Error(w, "customer_email required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.svc.ListForCustomer(r.Context(), email, limit)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	barberID := strings.TrimSpace(r.URL.Query().Get("barber_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if barberID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "barber_id, service_id, and date are required", http.StatusBadRequest)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	avail, err := h.svc.Availability(r.Context(), barberID, serviceID, date)
	if err != nil {
		writeBookingError(w, err)
		return
	}

	resp := make([]slotItem, 0, len(avail.SlotStarts))
	for _, s := range avail.SlotStarts {
		resp = append(resp, slotItem{
			StartTime: s.UTC().Format(time.RFC3339),
			EndTime:   s.Add(avail.SlotDuration).UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
