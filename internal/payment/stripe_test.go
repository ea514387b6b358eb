package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request() domain.PaymentRequest {
	return domain.PaymentRequest{BookingRef: "ref-1", Amount: 36323, Currency: "USD", PaymentMethod: "pm_card_visa", IdempotencyKey: "ref-1-attempt-1"}
}

func TestStripeClient_ChargeSucceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "ref-1-attempt-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "36323", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "never", r.PostForm.Get("automatic_payment_methods[allow_redirects]"))
		assert.Equal(t, "ref-1", r.PostForm.Get("metadata[booking_ref]"))

		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"succeeded"}`))
	}))
	defer srv.Close()

	res, err := NewStripeClient("sk_test").WithBaseURL(srv.URL).Charge(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentResult{Success: true, TransactionID: "pi_123"}, res)
}

func TestStripeClient_ZeroDecimalCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "15055", r.PostForm.Get("amount"))
		assert.Equal(t, "jpy", r.PostForm.Get("currency"))

		w.Write([]byte(`{"id":"pi_jp","object":"payment_intent","status":"succeeded"}`))
	}))
	defer srv.Close()

	req := request()
	req.Amount, req.Currency = 15055, "JPY"
	res, err := NewStripeClient("sk_test").WithBaseURL(srv.URL).Charge(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestStripeClient_IdempotencyKeyPerAttempt(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","status":"succeeded"}`))
	}))
	defer srv.Close()

	client := NewStripeClient("sk_test").WithBaseURL(srv.URL)
	first := request()
	second := request()
	second.IdempotencyKey = "ref-1-attempt-2"
	fallback := request()
	fallback.IdempotencyKey = ""

	for _, req := range []domain.PaymentRequest{first, second, fallback} {
		_, err := client.Charge(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"ref-1-attempt-1", "ref-1-attempt-2", "ref-1"}, keys)
}

func TestStripeClient_ChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","decline_code":"generic_decline","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	res, err := NewStripeClient("sk_test").WithBaseURL(srv.URL).Charge(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Your card was declined.", res.Error)
}

func TestStripeClient_RequiresAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pi_9","object":"payment_intent","status":"requires_action"}`))
	}))
	defer srv.Close()

	res, err := NewStripeClient("sk_test").WithBaseURL(srv.URL).Charge(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "pi_9", res.TransactionID)
	assert.Equal(t, "payment requires action", res.Error)
}

func TestStripeClient_ServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	_, err := NewStripeClient("sk_test").WithBaseURL(srv.URL).WithLogger(log).Charge(context.Background(), request())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 500: boom")
	assert.Equal(t, 1, calls, "retries belong to the caller")
}

func TestStripeClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewStripeClient("sk_test").WithBaseURL(url).Charge(context.Background(), request())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment request")
}
