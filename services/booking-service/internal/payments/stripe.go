package payments

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/model"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

var ErrNotConfigured = errors.New("stripe deposits not configured")

// StripeClient creates deposit checkout sessions for appointments. The
// webhook confirms the appointment once the session completes, so the
// appointment id rides along in the session metadata.
type StripeClient struct {
	logger       *slog.Logger
	secretKey    string
	depositCents int64
	currency     string
	successURL   string
	cancelURL    string
}

type StripeConfig struct {
	SecretKey    string
	DepositCents int64
	Currency     string
	SuccessURL   string
	CancelURL    string
}

func NewStripeClient(logger *slog.Logger, cfg StripeConfig) *StripeClient {
	if cfg.DepositCents <= 0 {
		cfg.DepositCents = 1000
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "usd"
	}
	return &StripeClient{
		logger:       logger,
		secretKey:    strings.TrimSpace(cfg.SecretKey),
		depositCents: cfg.DepositCents,
		currency:     strings.ToLower(strings.TrimSpace(cfg.Currency)),
		successURL:   strings.TrimSpace(cfg.SuccessURL),
		cancelURL:    strings.TrimSpace(cfg.CancelURL),
	}
}

func (c *StripeClient) Enabled() bool {
	return c.secretKey != ""
}

type DepositSession struct {
	SessionID string
	URL       string
}

// CreateDepositSession opens a Stripe checkout session collecting the booking
// deposit for the appointment. Caller passes an optional idempotency key for
// safe retries.
func (c *StripeClient) CreateDepositSession(appt model.Appointment, idempotencyKey string) (DepositSession, error) {
	if !c.Enabled() {
		return DepositSession{}, ErrNotConfigured
	}

	// Stripe uses a global API key. Keep usage limited to this call.
	stripe.Key = c.secretKey

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(appt.ID),
		CustomerEmail:     stripe.String(appt.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(c.depositCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Booking deposit: " + appt.ServiceName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"appointment_id": appt.ID,
			"deposit_cents":  strconv.FormatInt(c.depositCents, 10),
		},
	}
	params.AddExpand("url")
	if idempotencyKey != "" {
		params.IdempotencyKey = stripe.String(idempotencyKey)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		c.logger.Error("stripe deposit session create failed", "appointment_id", appt.ID, "err", err)
		return DepositSession{}, err
	}
	return DepositSession{SessionID: sess.ID, URL: sess.URL}, nil
}
