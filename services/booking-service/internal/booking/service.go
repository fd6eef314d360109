package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/availability"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
	"github.com/google/uuid"
)

// Service is the booking orchestrator: the sole writer of appointments.
// Each public operation runs as one transaction so the conflict check and the
// subsequent write are atomic with respect to concurrent writers for the same
// barber; the store's overlap constraint rejects the losing side of a race
// that passes both in-transaction checks.
type Service struct {
	store    Store
	catalog  Catalog
	logger   *slog.Logger
	now      func() time.Time
	slotStep time.Duration
}

func NewService(store Store, catalog Catalog, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		logger:   logger,
		now:      time.Now,
		slotStep: 15 * time.Minute,
	}
}

type CreateInput struct {
	BarberID      string
	ServiceID     string
	Start         time.Time
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Appointment, error) {
	in.BarberID = strings.TrimSpace(in.BarberID)
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(strings.ToLower(in.CustomerEmail))

	if in.BarberID == "" || in.ServiceID == "" {
		return model.Appointment{}, Validationf("barber_id and service_id are required")
	}
	if in.CustomerName == "" || in.CustomerEmail == "" {
		return model.Appointment{}, Validationf("customer name and email are required")
	}
	if in.Start.IsZero() {
		return model.Appointment{}, Validationf("start time is required")
	}
	if in.Start.Before(s.now()) {
		return model.Appointment{}, Validationf("start time is in the past")
	}

	barber, svc, err := s.activeBarberAndService(ctx, in.BarberID, in.ServiceID)
	if err != nil {
		return model.Appointment{}, err
	}

	start := in.Start.UTC()
	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	appt := model.Appointment{
		ID:            uuid.NewString(),
		BarberID:      barber.ID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		StartTime:     start,
		EndTime:       end,
		Status:        model.StatusPending,
		TotalPrice:    svc.BasePrice,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     s.now().UTC(),
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		existing, err := tx.ListOverlapping(ctx, appt.BarberID, start, end, "")
		if err != nil {
			return err
		}
		if HasConflict(existing, start, end, "") {
			return Conflictf("barber %s already has an appointment overlapping %s", appt.BarberID, start.Format(time.RFC3339))
		}
		if err := tx.InsertAppointment(ctx, &appt); err != nil {
			return err
		}
		payload, err := appointmentEventPayload(appt)
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, EventTypeCreated, appt.ID, payload)
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"barber_id", appt.BarberID,
		"service_id", appt.ServiceID,
		"start_time", appt.StartTime.Format(time.RFC3339),
	)
	return appt, nil
}

func (s *Service) Reschedule(ctx context.Context, id string, newStart time.Time) (model.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Appointment{}, Validationf("appointment id is required")
	}
	if newStart.IsZero() {
		return model.Appointment{}, Validationf("new start time is required")
	}
	if newStart.Before(s.now()) {
		return model.Appointment{}, Validationf("new start time is in the past")
	}

	var out model.Appointment
	err := s.store.InTx(ctx, func(tx Tx) error {
		appt, err := tx.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := Next(appt.Status, EventReschedule); err != nil {
			return err
		}

		duration := appt.EndTime.Sub(appt.StartTime)
		start := newStart.UTC()
		end := start.Add(duration)

		existing, err := tx.ListOverlapping(ctx, appt.BarberID, start, end, appt.ID)
		if err != nil {
			return err
		}
		if HasConflict(existing, start, end, appt.ID) {
			return Conflictf("barber %s already has an appointment overlapping %s", appt.BarberID, start.Format(time.RFC3339))
		}
		if err := tx.UpdateInterval(ctx, appt.ID, start, end); err != nil {
			return err
		}

		appt.StartTime = start
		appt.EndTime = end
		payload, err := appointmentEventPayload(appt)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, EventTypeRescheduled, appt.ID, payload); err != nil {
			return err
		}
		out = appt
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("appointment rescheduled", "appointment_id", out.ID, "start_time", out.StartTime.Format(time.RFC3339))
	return out, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (model.Appointment, error) {
	return s.transition(ctx, id, EventCancel, EventTypeCancelled)
}

func (s *Service) Confirm(ctx context.Context, id string) (model.Appointment, error) {
	return s.transition(ctx, id, EventConfirm, EventTypeConfirmed)
}

func (s *Service) Complete(ctx context.Context, id string) (model.Appointment, error) {
	return s.transition(ctx, id, EventComplete, EventTypeCompleted)
}

func (s *Service) transition(ctx context.Context, id string, ev Event, eventType string) (model.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Appointment{}, Validationf("appointment id is required")
	}

	var out model.Appointment
	err := s.store.InTx(ctx, func(tx Tx) error {
		appt, err := tx.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		to, err := Next(appt.Status, ev)
		if err != nil {
			return err
		}
		if ev == EventComplete && s.now().Before(appt.EndTime) {
			return Validationf("appointment does not end until %s", appt.EndTime.Format(time.RFC3339))
		}

		at := s.now().UTC()
		if err := tx.UpdateStatus(ctx, appt.ID, to, at); err != nil {
			return err
		}
		appt.Status = to
		if to == model.StatusCancelled {
			appt.CancelledAt = &at
		}

		payload, err := appointmentEventPayload(appt)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, eventType, appt.ID, payload); err != nil {
			return err
		}
		out = appt
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("appointment transitioned", "appointment_id", out.ID, "status", string(out.Status))
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (model.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Appointment{}, Validationf("appointment id is required")
	}
	return s.store.GetAppointment(ctx, id)
}

func (s *Service) ListForCustomer(ctx context.Context, customerEmail string, limit int) ([]model.Appointment, error) {
	customerEmail = strings.TrimSpace(strings.ToLower(customerEmail))
	if customerEmail == "" {
		return nil, Validationf("customer email is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListForCustomer(ctx, customerEmail, limit)
}

// DayAvailability is the availability of one barber for one service on one day.
type DayAvailability struct {
	Openings     []availability.Interval
	SlotStarts   []time.Time
	SlotDuration time.Duration
}

// Availability computes open slots for the barber on the given calendar day
// (UTC). Fails with a validation error for past dates and inactive barbers.
func (s *Service) Availability(ctx context.Context, barberID, serviceID string, date time.Time) (DayAvailability, error) {
	barber, svc, err := s.activeBarberAndService(ctx, barberID, serviceID)
	if err != nil {
		return DayAvailability{}, err
	}

	now := s.now().UTC()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return DayAvailability{}, Validationf("date %s is in the past", day.Format("2006-01-02"))
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute

	wh, err := s.catalog.GetWorkingHours(ctx, barber.ID, day.Weekday())
	if err != nil {
		if KindOf(err) == KindNotFound {
			return DayAvailability{SlotDuration: duration}, nil
		}
		return DayAvailability{}, err
	}
	if !wh.IsWorking || wh.EndMinute <= wh.StartMinute {
		return DayAvailability{SlotDuration: duration}, nil
	}

	window := availability.Interval{
		Start: day.Add(time.Duration(wh.StartMinute) * time.Minute),
		End:   day.Add(time.Duration(wh.EndMinute) * time.Minute),
	}

	busyAppts, err := s.store.ListBusy(ctx, barber.ID, window.Start, window.End)
	if err != nil {
		return DayAvailability{}, err
	}
	busy := make([]availability.Interval, 0, len(busyAppts))
	for _, a := range busyAppts {
		busy = append(busy, availability.Interval{Start: a.StartTime, End: a.EndTime})
	}

	openings := availability.Openings([]availability.Interval{window}, busy, duration)
	starts := availability.SlotStarts(openings, duration, s.slotStep, now)

	return DayAvailability{Openings: openings, SlotStarts: starts, SlotDuration: duration}, nil
}

func (s *Service) activeBarberAndService(ctx context.Context, barberID, serviceID string) (model.Barber, model.Service, error) {
	barberID = strings.TrimSpace(barberID)
	serviceID = strings.TrimSpace(serviceID)
	if barberID == "" || serviceID == "" {
		return model.Barber{}, model.Service{}, Validationf("barber_id and service_id are required")
	}

	barber, err := s.catalog.GetBarber(ctx, barberID)
	if err != nil {
		return model.Barber{}, model.Service{}, err
	}
	if !barber.IsActive {
		return model.Barber{}, model.Service{}, Validationf("barber %s is not active", barber.ID)
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return model.Barber{}, model.Service{}, err
	}
	if !svc.IsActive {
		return model.Barber{}, model.Service{}, Validationf("service %s is not active", svc.ID)
	}
	if svc.DurationMinutes <= 0 {
		return model.Barber{}, model.Service{}, Validationf("service %s has a non-positive duration", svc.ID)
	}
	return barber, svc, nil
}
