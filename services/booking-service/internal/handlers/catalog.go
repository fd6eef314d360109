package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// CatalogReader is the read side of the barber and service catalog.
type CatalogReader interface {
	ListBarbers(ctx context.Context) ([]model.Barber, error)
	ListServices(ctx context.Context) ([]model.Service, error)
}

type CatalogHandler struct {
	catalog CatalogReader
	logger  *slog.Logger
}

func NewCatalogHandler(catalog CatalogReader, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

type barberItem struct {
	BarberID string `json:"barber_id"`
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Bio      string `json:"bio,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type serviceItem struct {
	ServiceID       string `json:"service_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	BasePrice       string `json:"base_price"`
}

func (h *CatalogHandler) ListBarbers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	barbers, err := h.catalog.ListBarbers(ctx)
	if err != nil {
		h.logger.Error("barber list failed", "err", err)
		writeBookingError(w, err)
		return
	}

	items := make([]barberItem, 0, len(barbers))
	for _, b := range barbers {
		items = append(items, barberItem{
			BarberID: b.ID,
			Name:     b.Name,
			Title:    b.Title,
			Bio:      b.Bio,
			PhotoURL: b.PhotoURL,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	services, err := h.catalog.ListServices(ctx)
	if err != nil {
		h.logger.Error("service list failed", "err", err)
		writeBookingError(w, err)
		return
	}

	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceItem{
			ServiceID:       s.ID,
			Name:            s.Name,
			Description:     s.Description,
			DurationMinutes: s.DurationMinutes,
			BasePrice:       s.BasePrice,
		})
	}
	writeJSON(w, http.StatusOK, items)
}
