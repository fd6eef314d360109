package lifecycle

import (
	"context"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// DueAppointment is a row claimed by the lifecycle worker.
type DueAppointment struct {
	ID            string
	BarberID      string
	ServiceID     string
	ServiceName   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	StartTime     time.Time
	EndTime       time.Time
	Status        model.Status
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// FetchDueReminders claims appointments whose reminder window has opened and
// that have not yet been reminded. SKIP LOCKED keeps concurrent workers off
// each other's rows.
func (r *Repository) FetchDueReminders(ctx context.Context, tx pgx.Tx, lead time.Duration, limit int) ([]DueAppointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT id::text, barber_id::text, service_id::text, service_name,
			customer_name, customer_email, COALESCE(customer_phone, ''), start_time, end_time, status
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
			AND reminder_sent_at IS NULL
			AND start_time > now()
			AND start_time <= now() + $1::interval
		ORDER BY start_time
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, lead.String(), limit)
	if err != nil {
		return nil, err
	}
	return scanDue(rows)
}

// FetchDueCompletions claims confirmed appointments whose end time has passed.
func (r *Repository) FetchDueCompletions(ctx context.Context, tx pgx.Tx, limit int) ([]DueAppointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT id::text, barber_id::text, service_id::text, service_name,
			customer_name, customer_email, COALESCE(customer_phone, ''), start_time, end_time, status
		FROM appointments
		WHERE status = 'confirmed'
			AND end_time <= now()
		ORDER BY end_time
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanDue(rows)
}

func (r *Repository) MarkReminderSent(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkCompleted(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed'
		WHERE id = ANY($1) AND status = 'confirmed'
	`, ids)
	return err
}

func scanDue(rows pgx.Rows) ([]DueAppointment, error) {
	defer rows.Close()

	var out []DueAppointment
	for rows.Next() {
		var d DueAppointment
		var status string
		if err := rows.Scan(&d.ID, &d.BarberID, &d.ServiceID, &d.ServiceName, &d.CustomerName, &d.CustomerEmail, &d.CustomerPhone, &d.StartTime, &d.EndTime, &status); err != nil {
			return nil, err
		}
		d.Status = model.Status(status)
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
