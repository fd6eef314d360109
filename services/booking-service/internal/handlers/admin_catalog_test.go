package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

type fakeCatalogAdmin struct {
	err error
}

func (f *fakeCatalogAdmin) InsertBarber(_ context.Context, b model.Barber) (model.Barber, error) {
	b.ID = "b-new"
	return b, f.err
}

func (f *fakeCatalogAdmin) InsertService(_ context.Context, s model.Service) (model.Service, error) {
	s.ID = "s-new"
	return s, f.err
}

func (f *fakeCatalogAdmin) UpsertWorkingHours(context.Context, model.WorkingHours) error {
	return f.err
}

func (f *fakeCatalogAdmin) SetBarberActive(context.Context, string, bool) error {
	return f.err
}

func (f *fakeCatalogAdmin) SetServiceActive(context.Context, string, bool) error {
	return f.err
}

func TestCreateBarber_RequiresName(t *testing.T) {
	h := NewAdminCatalogHandler(&fakeCatalogAdmin{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/barbers", strings.NewReader(`{"name":"  "}`))
	rw := httptest.NewRecorder()
	h.CreateBarber(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}

func TestCreateService_ValidatesDuration(t *testing.T) {
	h := NewAdminCatalogHandler(&fakeCatalogAdmin{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/services", strings.NewReader(`{"name":"Trim","duration_minutes":0}`))
	rw := httptest.NewRecorder()
	h.CreateService(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}

func TestCreateService_Succeeds(t *testing.T) {
	h := NewAdminCatalogHandler(&fakeCatalogAdmin{}, testLogger())

	body := `{"name":"Trim","duration_minutes":15,"base_price":"20.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/services", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.CreateService(rw, req)

	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	if !strings.Contains(rw.Body.String(), "s-new") {
		t.Fatalf("response missing generated id: %s", rw.Body.String())
	}
}

func TestPutWorkingHours_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"weekday":2,"is_working":true,"start_minute":540,"end_minute":1020}`, http.StatusOK},
		{"day off", `{"weekday":0,"is_working":false}`, http.StatusOK},
		{"bad weekday", `{"weekday":7,"is_working":true,"start_minute":540,"end_minute":1020}`, http.StatusBadRequest},
		{"inverted window", `{"weekday":2,"is_working":true,"start_minute":1020,"end_minute":540}`, http.StatusBadRequest},
		{"past midnight", `{"weekday":2,"is_working":true,"start_minute":540,"end_minute":1500}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAdminCatalogHandler(&fakeCatalogAdmin{}, testLogger())

			req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/barbers/b1/working-hours", strings.NewReader(tc.body))
			req.SetPathValue("id", "b1")
			rw := httptest.NewRecorder()
			h.PutWorkingHours(rw, req)

			if rw.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rw.Code, rw.Body.String())
			}
		})
	}
}

func TestSetBarberActive_RequiresFlag(t *testing.T) {
	h := NewAdminCatalogHandler(&fakeCatalogAdmin{}, testLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/barbers/b1", strings.NewReader(`{}`))
	req.SetPathValue("id", "b1")
	rw := httptest.NewRecorder()
	h.SetBarberActive(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/admin/barbers/b1", strings.NewReader(`{"is_active":false}`))
	req.SetPathValue("id", "b1")
	rw = httptest.NewRecorder()
	h.SetBarberActive(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}
