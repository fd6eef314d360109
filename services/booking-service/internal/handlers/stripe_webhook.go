package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/payments"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/storage"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Confirmer is the slice of the orchestrator the payment flow needs.
type Confirmer interface {
	Get(ctx context.Context, id string) (model.Appointment, error)
	Confirm(ctx context.Context, id string) (model.Appointment, error)
}

type PaymentsHandler struct {
	svc              Confirmer
	paymentsRepo     *storage.PaymentsRepository
	stripeClient     *payments.StripeClient
	logger           *slog.Logger
	webhookSecret    string
	webhookTolerance time.Duration
}

type PaymentsConfig struct {
	WebhookSecret           string
	WebhookToleranceSeconds int
}

func NewPaymentsHandler(svc Confirmer, paymentsRepo *storage.PaymentsRepository, stripeClient *payments.StripeClient, logger *slog.Logger, cfg PaymentsConfig) *PaymentsHandler {
	tolSeconds := cfg.WebhookToleranceSeconds
	if tolSeconds <= 0 {
		tolSeconds = 300
	}
	return &PaymentsHandler{
		svc:              svc,
		paymentsRepo:     paymentsRepo,
		stripeClient:     stripeClient,
		logger:           logger,
		webhookSecret:    strings.TrimSpace(cfg.WebhookSecret),
		webhookTolerance: time.Duration(tolSeconds) * time.Second,
	}
}

type depositResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateDeposit opens a Stripe checkout session for a pending appointment's
// booking deposit. Completing the session confirms the appointment via the
// webhook.
func (h *PaymentsHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	if h.stripeClient == nil || !h.stripeClient.Enabled() {
		http.Error(w, "deposits not configured", http.StatusServiceUnavailable)
		return
	}

	appt, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBookingError(w, err)
		return
	}
	if appt.Status != model.StatusPending {
		writeBookingError(w, booking.InvalidTransitionf("deposit only applies to pending appointments; status is %s", appt.Status))
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	sess, err := h.stripeClient.CreateDepositSession(appt, idemKey)
	if err != nil {
		http.Error(w, "failed to create checkout session", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, depositResponse{SessionID: sess.SessionID, CheckoutURL: sess.URL})
}

// StripeWebhook handles Stripe webhooks (no JWT auth; signature verification
// is the auth).
func (h *PaymentsHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MiB hard cap
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.webhookSecret, h.webhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	evtType := string(evt.Type)
	h.logger.Info("payment provider event received",
		"provider", "stripe",
		"provider_event_id", evt.ID,
		"event_type", evtType,
	)

	// Idempotency: ignore replayed Stripe events.
	if err := h.paymentsRepo.InsertPaymentEvent(r.Context(), storage.PaymentEvent{
		Provider:        "stripe",
		ProviderEventID: evt.ID,
		EventType:       evtType,
		Payload:         body,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicatePaymentEvent) {
			h.logger.Info("payment provider event duplicate ignored", "provider_event_id", evt.ID, "event_type", evtType)
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			return
		}
		http.Error(w, "failed to record provider event", http.StatusInternalServerError)
		return
	}

	switch evtType {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		appointmentID := strings.TrimSpace(session.Metadata["appointment_id"])
		if appointmentID == "" {
			h.logger.Warn("stripe: missing appointment_id metadata on checkout session", "session_id", session.ID)
			break
		}

		if _, err := h.svc.Confirm(r.Context(), appointmentID); err != nil {
			switch booking.KindOf(err) {
			case booking.KindTerminalState, booking.KindInvalidTransition:
				// Already confirmed, cancelled, or completed; the deposit
				// outcome is recorded and nothing further applies.
				h.logger.Warn("stripe: deposit completed for non-pending appointment", "appointment_id", appointmentID, "err", err)
			case booking.KindNotFound:
				h.logger.Warn("stripe: deposit completed for unknown appointment", "appointment_id", appointmentID)
			default:
				http.Error(w, "failed to confirm appointment", http.StatusInternalServerError)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
