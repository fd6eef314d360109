package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/db"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository serves barber and service reads plus the staff-only
// catalog writes behind the admin API.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetBarber(ctx context.Context, id string) (model.Barber, error) {
	var b model.Barber
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, COALESCE(title, ''), COALESCE(bio, ''), COALESCE(photo_url, ''), is_active, created_at
		FROM barbers
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Title, &b.Bio, &b.PhotoURL, &b.IsActive, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Barber{}, booking.NotFoundf("barber %s not found", id)
	}
	if err != nil {
		return model.Barber{}, mapPgError(err)
	}
	return b, nil
}

func (r *CatalogRepository) ListBarbers(ctx context.Context) ([]model.Barber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, COALESCE(title, ''), COALESCE(bio, ''), COALESCE(photo_url, ''), is_active, created_at
		FROM barbers
		WHERE is_active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []model.Barber
	for rows.Next() {
		var b model.Barber
		if err := rows.Scan(&b.ID, &b.Name, &b.Title, &b.Bio, &b.PhotoURL, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, mapPgError(rows.Err())
	}
	return out, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, COALESCE(description, ''), duration_minutes, base_price::text, is_active, created_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.BasePrice, &s.IsActive, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Service{}, booking.NotFoundf("service %s not found", id)
	}
	if err != nil {
		return model.Service{}, mapPgError(err)
	}
	return s, nil
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, COALESCE(description, ''), duration_minutes, base_price::text, is_active, created_at
		FROM services
		WHERE is_active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.BasePrice, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, mapPgError(rows.Err())
	}
	return out, nil
}

func (r *CatalogRepository) GetWorkingHours(ctx context.Context, barberID string, weekday time.Weekday) (model.WorkingHours, error) {
	var wh model.WorkingHours
	var day int
	err := r.pool.QueryRow(ctx, `
		SELECT barber_id::text, weekday, is_working, start_minute, end_minute
		FROM barber_working_hours
		WHERE barber_id = $1 AND weekday = $2
	`, barberID, int(weekday)).Scan(&wh.BarberID, &day, &wh.IsWorking, &wh.StartMinute, &wh.EndMinute)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.WorkingHours{}, booking.NotFoundf("no working hours for barber %s on weekday %d", barberID, int(weekday))
	}
	if err != nil {
		return model.WorkingHours{}, mapPgError(err)
	}
	wh.Weekday = time.Weekday(day)
	return wh, nil
}

func (r *CatalogRepository) InsertBarber(ctx context.Context, b model.Barber) (model.Barber, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO barbers (name, title, bio, photo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`, b.Name, nullIfEmpty(b.Title), nullIfEmpty(b.Bio), nullIfEmpty(b.PhotoURL)).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return model.Barber{}, mapPgError(err)
	}
	b.IsActive = true
	return b, nil
}

func (r *CatalogRepository) InsertService(ctx context.Context, s model.Service) (model.Service, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (name, description, duration_minutes, base_price)
		VALUES ($1, $2, $3, $4::numeric)
		RETURNING id::text, created_at
	`, s.Name, nullIfEmpty(s.Description), s.DurationMinutes, s.BasePrice).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return model.Service{}, mapPgError(err)
	}
	s.IsActive = true
	return s, nil
}

func (r *CatalogRepository) UpsertWorkingHours(ctx context.Context, wh model.WorkingHours) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO barber_working_hours (barber_id, weekday, is_working, start_minute, end_minute)
		SELECT id, $2, $3, $4, $5 FROM barbers WHERE id = $1
		ON CONFLICT (barber_id, weekday) DO UPDATE
		SET is_working = EXCLUDED.is_working,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute
	`, wh.BarberID, int(wh.Weekday), wh.IsWorking, wh.StartMinute, wh.EndMinute)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return booking.NotFoundf("barber %s not found", wh.BarberID)
	}
	return nil
}

func (r *CatalogRepository) SetBarberActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE barbers SET is_active = $2 WHERE id = $1
	`, id, active)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return booking.NotFoundf("barber %s not found", id)
	}
	return nil
}

func (r *CatalogRepository) SetServiceActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services SET is_active = $2 WHERE id = $1
	`, id, active)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return booking.NotFoundf("service %s not found", id)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
