package booking

import (
	"context"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
)

// Tx is the transactional slice of the appointment store. Every mutation the
// orchestrator performs goes through one Tx so the conflict check and the
// write commit or roll back together. Implementations must surface errors
// whose booking.KindOf is meaningful (KindNotFound for missing rows,
// KindConflict for overlap-constraint rejections, KindStoreUnavailable for
// infrastructure failures).
type Tx interface {
	InsertAppointment(ctx context.Context, appt *model.Appointment) error
	// GetAppointmentForUpdate loads an appointment and locks its row for the
	// remainder of the transaction.
	GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error)
	// ListOverlapping returns appointments for the barber whose intervals
	// intersect [start, end), locking the returned rows. excludeID, when
	// non-empty, omits that appointment (reschedule checking against itself).
	ListOverlapping(ctx context.Context, barberID string, start, end time.Time, excludeID string) ([]model.Appointment, error)
	UpdateInterval(ctx context.Context, id string, start, end time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error
	// AppendEvent stages a domain event in the same transaction as the state
	// change (transactional outbox).
	AppendEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error
}

// Store is the appointment store the orchestrator writes through.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	ListForCustomer(ctx context.Context, customerEmail string, limit int) ([]model.Appointment, error)
	// ListBusy returns pending and confirmed appointments for the barber
	// intersecting [start, end), ordered by start ascending. Read-only
	// snapshot; no locks.
	ListBusy(ctx context.Context, barberID string, start, end time.Time) ([]model.Appointment, error)
}

// Catalog is the read-only barber/service lookup. The orchestrator never
// writes catalog data.
type Catalog interface {
	GetBarber(ctx context.Context, id string) (model.Barber, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	GetWorkingHours(ctx context.Context, barberID string, weekday time.Weekday) (model.WorkingHours, error)
}
