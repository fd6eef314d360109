package lifecycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/db"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/outbox"
)

// Worker drives time-based appointment transitions: it emits reminder events
// ahead of the start time and completes confirmed appointments once their end
// time has passed. Both scans claim rows with SKIP LOCKED, so running several
// replicas is safe.
type Worker struct {
	pool         *db.Pool
	repo         *Repository
	outbox       *outbox.Repository
	logger       *slog.Logger
	interval     time.Duration
	batchSize    int
	reminderLead time.Duration
}

type WorkerConfig struct {
	Interval     time.Duration
	BatchSize    int
	ReminderLead time.Duration
}

func NewWorker(pool *db.Pool, repo *Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = 24 * time.Hour
	}
	return &Worker{
		pool:         pool,
		repo:         repo,
		outbox:       outboxRepo,
		logger:       logger,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		reminderLead: cfg.ReminderLead,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.remindDue(ctx); err != nil {
				w.logger.Error("reminder scan failed", "err", err)
			}
			if err := w.completeDue(ctx); err != nil {
				w.logger.Error("completion scan failed", "err", err)
			}
		}
	}
}

func (w *Worker) remindDue(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	due, err := w.repo.FetchDueReminders(ctx, tx, w.reminderLead, w.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return tx.Commit(ctx)
	}

	var ids []string
	for _, d := range due {
		payload, err := json.Marshal(map[string]any{
			"appointment_id": d.ID,
			"barber_id":      d.BarberID,
			"service_name":   d.ServiceName,
			"customer_name":  d.CustomerName,
			"customer_email": d.CustomerEmail,
			"customer_phone": d.CustomerPhone,
			"start_time":     d.StartTime.UTC().Format(time.RFC3339),
			"end_time":       d.EndTime.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   d.ID,
			EventType:     booking.EventTypeReminderDue,
			Payload:       payload,
		}); err != nil {
			return err
		}
		ids = append(ids, d.ID)
	}

	if err := w.repo.MarkReminderSent(ctx, tx, ids); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	w.logger.Info("reminders enqueued", "count", len(ids))
	return nil
}

func (w *Worker) completeDue(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	due, err := w.repo.FetchDueCompletions(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return tx.Commit(ctx)
	}

	var ids []string
	for _, d := range due {
		payload, err := json.Marshal(map[string]any{
			"appointment_id": d.ID,
			"barber_id":      d.BarberID,
			"service_name":   d.ServiceName,
			"customer_email": d.CustomerEmail,
			"start_time":     d.StartTime.UTC().Format(time.RFC3339),
			"end_time":       d.EndTime.UTC().Format(time.RFC3339),
			"status":         "completed",
		})
		if err != nil {
			return err
		}
		if err := w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   d.ID,
			EventType:     booking.EventTypeCompleted,
			Payload:       payload,
		}); err != nil {
			return err
		}
		ids = append(ids, d.ID)
	}

	if err := w.repo.MarkCompleted(ctx, tx, ids); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	w.logger.Info("appointments auto-completed", "count", len(ids))
	return nil
}
