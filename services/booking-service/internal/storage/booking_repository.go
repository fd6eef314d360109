package storage

import (
	"context"
	"errors"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/db"
	otelx "github.com/KoraMaple/wizcuts-sub001/libs/otel"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const appointmentColumns = `id::text, barber_id::text, service_id::text, service_name,
	customer_name, customer_email, COALESCE(customer_phone, ''),
	start_time, end_time, status, total_price::text, COALESCE(notes, ''), cancelled_at, created_at`

// BookingRepository is the pgx-backed appointment store. The appointments
// table carries an exclusion constraint on (barber_id, [start_time, end_time))
// for pending and confirmed rows, so overlapping writes that slip past the
// in-transaction check are rejected at commit and mapped to a conflict error.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) InTx(ctx context.Context, fn func(booking.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return booking.StoreUnavailable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *BookingRepository) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, booking.NotFoundf("appointment %s not found", id)
	}
	if err != nil {
		return model.Appointment{}, mapPgError(err)
	}
	return appt, nil
}

func (r *BookingRepository) ListForCustomer(ctx context.Context, customerEmail string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE customer_email = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, customerEmail, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanAppointments(rows)
}

func (r *BookingRepository) ListBusy(ctx context.Context, barberID string, start, end time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE barber_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, barberID, start, end)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanAppointments(rows)
}

type bookingTx struct {
	tx pgx.Tx
}

func (t *bookingTx) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO appointments
			(id, barber_id, service_id, service_name, customer_name, customer_email, customer_phone,
			start_time, end_time, status, total_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, appt.ID, appt.BarberID, appt.ServiceID, appt.ServiceName, appt.CustomerName, appt.CustomerEmail,
		nullIfEmpty(appt.CustomerPhone), appt.StartTime, appt.EndTime, string(appt.Status), appt.TotalPrice,
		nullIfEmpty(appt.Notes))
	return mapPgError(err)
}

func (t *bookingTx) GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, booking.NotFoundf("appointment %s not found", id)
	}
	if err != nil {
		return model.Appointment{}, mapPgError(err)
	}
	return appt, nil
}

func (t *bookingTx) ListOverlapping(ctx context.Context, barberID string, start, end time.Time, excludeID string) ([]model.Appointment, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE barber_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_time < $3
			AND end_time > $2
			AND ($4 = '' OR id::text <> $4)
		ORDER BY start_time ASC
		FOR UPDATE
	`, barberID, start, end, excludeID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return scanAppointments(rows)
}

func (t *bookingTx) UpdateInterval(ctx context.Context, id string, start, end time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET start_time = $2,
			end_time = $3
		WHERE id = $1
	`, id, start, end)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return booking.NotFoundf("appointment %s not found", id)
	}
	return nil
}

func (t *bookingTx) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancelled_at END
		WHERE id = $1
	`, id, string(status), at)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return booking.NotFoundf("appointment %s not found", id)
	}
	return nil
}

func (t *bookingTx) AppendEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := t.tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ('appointment', $1, $2, $3, $4, $5)
	`, aggregateID, eventType, payload, traceparent, tracestate)
	return mapPgError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.BarberID,
		&appt.ServiceID,
		&appt.ServiceName,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&appt.StartTime,
		&appt.EndTime,
		&status,
		&appt.TotalPrice,
		&appt.Notes,
		&cancelledAt,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, mapPgError(rows.Err())
	}
	return appts, nil
}

// mapPgError translates driver errors into the orchestrator's error kinds.
// 23P01 is an exclusion-constraint violation (overlapping appointment).
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var be *booking.Error
	if errors.As(err, &be) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01":
			return booking.Conflictf("barber already has an appointment in that interval")
		case "23505":
			return booking.Conflictf("duplicate appointment")
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.NotFoundf("row not found")
	}
	return booking.StoreUnavailable(err)
}
