// Package payment charges bookings through Stripe PaymentIntents.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Processor charges a payment. A declined charge is a result with
// Success=false; the error return is reserved for transport failures.
type Processor interface {
	Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
}

type StripeClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        stripe.LeveledLoggerInterface
}

func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{
		baseURL:    stripe.APIURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
}

func (c *StripeClient) WithBaseURL(u string) *StripeClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

func (c *StripeClient) WithTimeout(d time.Duration) *StripeClient {
	c.httpClient.Timeout = d
	return c
}

func (c *StripeClient) WithLogger(log logrus.FieldLogger) *StripeClient {
	c.log = log
	return c
}

// intents builds the PaymentIntents client. Retries are left to the caller,
// which issues a new idempotency key per attempt.
func (c *StripeClient) intents() paymentintent.Client {
	cfg := &stripe.BackendConfig{
		HTTPClient:        c.httpClient,
		LeveledLogger:     c.log,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if c.baseURL != "" {
		cfg.URL = stripe.String(c.baseURL)
	}
	return paymentintent.Client{B: stripe.GetBackendWithConfig(stripe.APIBackend, cfg), Key: c.secretKey}
}

// Charge creates and confirms a PaymentIntent. The amount is already in the
// currency's minor unit. Each attempt carries its own idempotency key so a
// replay of one attempt never charges twice while a new attempt is charged.
func (c *StripeClient) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	params.Context = ctx
	key := req.IdempotencyKey
	if key == "" {
		key = req.BookingRef
	}
	params.IdempotencyKey = stripe.String(key)
	params.AddMetadata("booking_ref", req.BookingRef)

	pi, err := c.intents().New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			// card errors come back as 402 and are a declined payment, not a failure of the call
			if stripeErr.Type == stripe.ErrorTypeCard || stripeErr.HTTPStatusCode == http.StatusPaymentRequired {
				return domain.PaymentResult{Success: false, Error: stripeErr.Msg}, nil
			}
			return domain.PaymentResult{}, fmt.Errorf("unexpected status: %d: %s", stripeErr.HTTPStatusCode, stripeErr.Msg)
		}
		return domain.PaymentResult{}, fmt.Errorf("payment request: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return domain.PaymentResult{
			Success:       false,
			TransactionID: pi.ID,
			Error:         fmt.Sprintf("payment %s", strings.ReplaceAll(string(pi.Status), "_", " ")),
		}, nil
	}
	return domain.PaymentResult{Success: true, TransactionID: pi.ID}, nil
}

var _ Processor = (*StripeClient)(nil)
