package storage

import (
	"context"
	"errors"

	"github.com/KoraMaple/wizcuts-sub001/libs/db"
)

var ErrDuplicatePaymentEvent = errors.New("duplicate payment event")

type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

// PaymentsRepository records provider webhook events for idempotency.
type PaymentsRepository struct {
	pool *db.Pool
}

func NewPaymentsRepository(pool *db.Pool) *PaymentsRepository {
	return &PaymentsRepository{pool: pool}
}

func (r *PaymentsRepository) InsertPaymentEvent(ctx context.Context, evt PaymentEvent) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO payment_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, evt.Payload)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicatePaymentEvent
	}
	return nil
}
