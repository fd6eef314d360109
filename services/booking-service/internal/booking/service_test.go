package booking

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// memStore is an in-memory Store whose InTx serializes transactions with a
// mutex, matching the isolation the row locks give the real store.
type memStore struct {
	mu     sync.Mutex
	appts  map[string]*model.Appointment
	events []memEvent
}

type memEvent struct {
	eventType   string
	aggregateID string
}

func newMemStore() *memStore {
	return &memStore{appts: make(map[string]*model.Appointment)}
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	// Commit staged writes.
	for _, a := range tx.staged {
		cp := *a
		m.appts[a.ID] = &cp
	}
	m.events = append(m.events, tx.stagedEvents...)
	return nil
}

func (m *memStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return model.Appointment{}, NotFoundf("appointment %s not found", id)
	}
	return *a, nil
}

func (m *memStore) ListForCustomer(ctx context.Context, customerEmail string, limit int) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if a.CustomerEmail == customerEmail && len(out) < limit {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) ListBusy(ctx context.Context, barberID string, start, end time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if a.BarberID == barberID && blocksSlot(a.Status) && Overlaps(start, end, a.StartTime, a.EndTime) {
			out = append(out, *a)
		}
	}
	return out, nil
}

type memTx struct {
	store        *memStore
	staged       []*model.Appointment
	stagedEvents []memEvent
}

func (t *memTx) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	cp := *appt
	t.staged = append(t.staged, &cp)
	return nil
}

func (t *memTx) GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	a, ok := t.store.appts[id]
	if !ok {
		return model.Appointment{}, NotFoundf("appointment %s not found", id)
	}
	return *a, nil
}

func (t *memTx) ListOverlapping(ctx context.Context, barberID string, start, end time.Time, excludeID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range t.store.appts {
		if a.ID == excludeID || a.BarberID != barberID {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (t *memTx) UpdateInterval(ctx context.Context, id string, start, end time.Time) error {
	a, ok := t.store.appts[id]
	if !ok {
		return NotFoundf("appointment %s not found", id)
	}
	cp := *a
	cp.StartTime = start
	cp.EndTime = end
	t.staged = append(t.staged, &cp)
	return nil
}

func (t *memTx) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error {
	a, ok := t.store.appts[id]
	if !ok {
		return NotFoundf("appointment %s not found", id)
	}
	cp := *a
	cp.Status = status
	if status == model.StatusCancelled {
		cp.CancelledAt = &at
	}
	t.staged = append(t.staged, &cp)
	return nil
}

func (t *memTx) AppendEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error {
	t.stagedEvents = append(t.stagedEvents, memEvent{eventType: eventType, aggregateID: aggregateID})
	return nil
}

type memCatalog struct {
	barbers  map[string]model.Barber
	services map[string]model.Service
	hours    map[string]model.WorkingHours
}

func (c *memCatalog) GetBarber(ctx context.Context, id string) (model.Barber, error) {
	b, ok := c.barbers[id]
	if !ok {
		return model.Barber{}, NotFoundf("barber %s not found", id)
	}
	return b, nil
}

func (c *memCatalog) GetService(ctx context.Context, id string) (model.Service, error) {
	s, ok := c.services[id]
	if !ok {
		return model.Service{}, NotFoundf("service %s not found", id)
	}
	return s, nil
}

func (c *memCatalog) GetWorkingHours(ctx context.Context, barberID string, weekday time.Weekday) (model.WorkingHours, error) {
	wh, ok := c.hours[barberID]
	if !ok {
		return model.WorkingHours{}, NotFoundf("no working hours for barber %s", barberID)
	}
	wh.Weekday = weekday
	return wh, nil
}

var testNow = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func newTestService(store *memStore) *Service {
	catalog := &memCatalog{
		barbers: map[string]model.Barber{
			"b1": {ID: "b1", Name: "Marco", IsActive: true},
			"b2": {ID: "b2", Name: "Dee", IsActive: true},
			"b3": {ID: "b3", Name: "Gone", IsActive: false},
		},
		services: map[string]model.Service{
			"s1": {ID: "s1", Name: "Classic Cut", DurationMinutes: 30, BasePrice: "35.00", IsActive: true},
			"s2": {ID: "s2", Name: "Retired Perm", DurationMinutes: 60, IsActive: false},
		},
		hours: map[string]model.WorkingHours{
			"b1": {BarberID: "b1", IsWorking: true, StartMinute: 9 * 60, EndMinute: 17 * 60},
			"b2": {BarberID: "b2", IsWorking: true, StartMinute: 9 * 60, EndMinute: 17 * 60},
		},
	}
	svc := NewService(store, catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc
}

func mustCreate(t *testing.T, svc *Service, barberID string, start time.Time) model.Appointment {
	t.Helper()
	appt, err := svc.Create(context.Background(), CreateInput{
		BarberID:      barberID,
		ServiceID:     "s1",
		Start:         start,
		CustomerName:  "Avery Poe",
		CustomerEmail: "avery@example.com",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return appt
}

func TestCreate_Succeeds(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	if appt.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}
	if !appt.EndTime.Equal(ts(10, 30)) {
		t.Fatalf("expected end 10:30, got %s", appt.EndTime.Format(time.RFC3339))
	}
	if len(store.events) != 1 || store.events[0].eventType != EventTypeCreated {
		t.Fatalf("expected one created event, got %+v", store.events)
	}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	mustCreate(t, svc, "b1", ts(10, 0))
	_, err := svc.Create(context.Background(), CreateInput{
		BarberID: "b1", ServiceID: "s1", Start: ts(10, 15),
		CustomerName: "Blake Orr", CustomerEmail: "blake@example.com",
	})
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(store.appts) != 1 {
		t.Fatalf("conflicting create must not persist, have %d appointments", len(store.appts))
	}
}

func TestCreate_BackToBackAllowed(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	mustCreate(t, svc, "b1", ts(10, 0))
	mustCreate(t, svc, "b1", ts(10, 30))
	if len(store.appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(store.appts))
	}
}

func TestCreate_DifferentBarberSameSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	mustCreate(t, svc, "b1", ts(10, 0))
	mustCreate(t, svc, "b2", ts(10, 0))
	if len(store.appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(store.appts))
	}
}

func TestCreate_ValidationFailures(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
		kind Kind
	}{
		{"missing barber", CreateInput{ServiceID: "s1", Start: ts(10, 0), CustomerName: "A", CustomerEmail: "a@x.com"}, KindValidation},
		{"missing customer", CreateInput{BarberID: "b1", ServiceID: "s1", Start: ts(10, 0)}, KindValidation},
		{"past start", CreateInput{BarberID: "b1", ServiceID: "s1", Start: ts(7, 0), CustomerName: "A", CustomerEmail: "a@x.com"}, KindValidation},
		{"unknown barber", CreateInput{BarberID: "nope", ServiceID: "s1", Start: ts(10, 0), CustomerName: "A", CustomerEmail: "a@x.com"}, KindNotFound},
		{"inactive barber", CreateInput{BarberID: "b3", ServiceID: "s1", Start: ts(10, 0), CustomerName: "A", CustomerEmail: "a@x.com"}, KindValidation},
		{"inactive service", CreateInput{BarberID: "b1", ServiceID: "s2", Start: ts(10, 0), CustomerName: "A", CustomerEmail: "a@x.com"}, KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in)
			if KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestReschedule_MovesAppointment(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	moved, err := svc.Reschedule(context.Background(), appt.ID, ts(14, 0))
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if !moved.StartTime.Equal(ts(14, 0)) || !moved.EndTime.Equal(ts(14, 30)) {
		t.Fatalf("unexpected interval after reschedule: %s - %s", moved.StartTime, moved.EndTime)
	}
	if moved.Status != model.StatusPending {
		t.Fatalf("reschedule must keep status, got %s", moved.Status)
	}
	last := store.events[len(store.events)-1]
	if last.eventType != EventTypeRescheduled {
		t.Fatalf("expected rescheduled event, got %s", last.eventType)
	}
}

func TestReschedule_IntoOwnSlotSucceeds(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	// Shift by less than the duration; the new interval overlaps the old one.
	if _, err := svc.Reschedule(context.Background(), appt.ID, ts(10, 15)); err != nil {
		t.Fatalf("reschedule overlapping itself must succeed: %v", err)
	}
}

func TestReschedule_ConflictWithOther(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	mustCreate(t, svc, "b1", ts(11, 0))

	_, err := svc.Reschedule(context.Background(), appt.ID, ts(11, 15))
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !store.appts[appt.ID].StartTime.Equal(ts(10, 0)) {
		t.Fatal("failed reschedule must not move the appointment")
	}
}

func TestCancel_ThenCancelAgainIsTerminal(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	cancelled, err := svc.Cancel(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancel result: %+v", cancelled)
	}

	_, err = svc.Cancel(context.Background(), appt.ID)
	if KindOf(err) != KindTerminalState {
		t.Fatalf("expected terminal-state error, got %v", err)
	}
}

func TestCancel_FreesSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	// Same barber, same slot: no conflict against a cancelled appointment.
	mustCreate(t, svc, "b1", ts(10, 0))
}

func TestComplete_RequiresConfirmedAndEnded(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	appt := mustCreate(t, svc, "b1", ts(10, 0))
	if _, err := svc.Complete(context.Background(), appt.ID); KindOf(err) != KindInvalidTransition {
		t.Fatalf("completing a pending appointment must fail, got %v", err)
	}
	if _, err := svc.Confirm(context.Background(), appt.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := svc.Complete(context.Background(), appt.ID); KindOf(err) != KindValidation {
		t.Fatalf("completing before end time must fail validation, got %v", err)
	}

	svc.now = func() time.Time { return ts(10, 30) }
	done, err := svc.Complete(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
}

func TestTransition_UnknownAppointment(t *testing.T) {
	svc := newTestService(newMemStore())
	if _, err := svc.Cancel(context.Background(), "missing"); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAvailability_ExcludesBookedSlots(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	mustCreate(t, svc, "b1", ts(12, 0))
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	avail, err := svc.Availability(context.Background(), "b1", "s1", day)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if len(avail.Openings) != 2 {
		t.Fatalf("expected 2 openings, got %+v", avail.Openings)
	}
	for _, s := range avail.SlotStarts {
		if Overlaps(s, s.Add(30*time.Minute), ts(12, 0), ts(12, 30)) {
			t.Fatalf("slot start %s overlaps the booked interval", s.Format(time.RFC3339))
		}
	}
}

func TestAvailability_PastDateRejected(t *testing.T) {
	svc := newTestService(newMemStore())
	yesterday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Availability(context.Background(), "b1", "s1", yesterday); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for past date, got %v", err)
	}
}

func TestAvailability_NonWorkingDayIsEmpty(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	catalog := svc.catalog.(*memCatalog)
	catalog.hours["b1"] = model.WorkingHours{BarberID: "b1", IsWorking: false}

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	avail, err := svc.Availability(context.Background(), "b1", "s1", day)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if len(avail.Openings) != 0 || len(avail.SlotStarts) != 0 {
		t.Fatalf("expected empty availability, got %+v", avail)
	}
}

func TestListForCustomer(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	mustCreate(t, svc, "b1", ts(10, 0))
	mustCreate(t, svc, "b2", ts(10, 0))

	appts, err := svc.ListForCustomer(context.Background(), "AVERY@example.com", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
}

func TestCreate_ConcurrentSameSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateInput{
				BarberID: "b1", ServiceID: "s1", Start: ts(10, 0),
				CustomerName: "Racer", CustomerEmail: "racer@example.com",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case KindOf(err) == KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected exactly one winner, got %d ok / %d conflicts", ok, conflicts)
	}
	if len(store.appts) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(store.appts))
	}
}
