package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// CatalogAdmin is the write side of the catalog, reachable only through
// admin-guarded routes.
type CatalogAdmin interface {
	InsertBarber(ctx context.Context, b model.Barber) (model.Barber, error)
	InsertService(ctx context.Context, s model.Service) (model.Service, error)
	UpsertWorkingHours(ctx context.Context, wh model.WorkingHours) error
	SetBarberActive(ctx context.Context, id string, active bool) error
	SetServiceActive(ctx context.Context, id string, active bool) error
}

type AdminCatalogHandler struct {
	catalog CatalogAdmin
	logger  *slog.Logger
}

func NewAdminCatalogHandler(catalog CatalogAdmin, logger *slog.Logger) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalog: catalog, logger: logger}
}

type createBarberRequest struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

func (h *AdminCatalogHandler) CreateBarber(w http.ResponseWriter, r *http.Request) {
	var req createBarberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeBookingError(w, booking.Validationf("barber name is required"))
		return
	}

	b, err := h.catalog.InsertBarber(r.Context(), model.Barber{
		Name:     name,
		Title:    strings.TrimSpace(req.Title),
		Bio:      strings.TrimSpace(req.Bio),
		PhotoURL: strings.TrimSpace(req.PhotoURL),
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	h.logger.Info("barber created", "barber_id", b.ID, "name", b.Name)
	writeJSON(w, http.StatusCreated, barberItem{
		BarberID: b.ID,
		Name:     b.Name,
		Title:    b.Title,
		Bio:      b.Bio,
		PhotoURL: b.PhotoURL,
	})
}

type createServiceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	BasePrice       string `json:"base_price"`
}

func (h *AdminCatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeBookingError(w, booking.Validationf("service name is required"))
		return
	}
	if req.DurationMinutes <= 0 {
		writeBookingError(w, booking.Validationf("duration_minutes must be positive"))
		return
	}
	price := strings.TrimSpace(req.BasePrice)
	if price == "" {
		price = "0"
	}

	s, err := h.catalog.InsertService(r.Context(), model.Service{
		Name:            name,
		Description:     strings.TrimSpace(req.Description),
		DurationMinutes: req.DurationMinutes,
		BasePrice:       price,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	h.logger.Info("service created", "service_id", s.ID, "name", s.Name)
	writeJSON(w, http.StatusCreated, serviceItem{
		ServiceID:       s.ID,
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		BasePrice:       s.BasePrice,
	})
}

type workingHoursRequest struct {
	Weekday     int  `json:"weekday"`
	IsWorking   bool `json:"is_working"`
	StartMinute int  `json:"start_minute"`
	EndMinute   int  `json:"end_minute"`
}

// PutWorkingHours replaces one weekday of a barber's schedule.
func (h *AdminCatalogHandler) PutWorkingHours(w http.ResponseWriter, r *http.Request) {
	barberID := r.PathValue("id")

	var req workingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		writeBookingError(w, booking.Validationf("weekday must be 0 (Sunday) through 6 (Saturday)"))
		return
	}
	if req.StartMinute < 0 || req.EndMinute > 24*60 {
		writeBookingError(w, booking.Validationf("minutes must fall within one day"))
		return
	}
	if req.IsWorking && req.StartMinute >= req.EndMinute {
		writeBookingError(w, booking.Validationf("start_minute must be before end_minute on a working day"))
		return
	}

	err := h.catalog.UpsertWorkingHours(r.Context(), model.WorkingHours{
		BarberID:    barberID,
		Weekday:     time.Weekday(req.Weekday),
		IsWorking:   req.IsWorking,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	h.logger.Info("working hours updated", "barber_id", barberID, "weekday", req.Weekday)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *AdminCatalogHandler) SetBarberActive(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.catalog.SetBarberActive)
}

func (h *AdminCatalogHandler) SetServiceActive(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.catalog.SetServiceActive)
}

func (h *AdminCatalogHandler) setActive(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, bool) error) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.IsActive == nil {
		writeBookingError(w, booking.Validationf("is_active is required"))
		return
	}

	if err := apply(r.Context(), r.PathValue("id"), *req.IsActive); err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": *req.IsActive})
}
