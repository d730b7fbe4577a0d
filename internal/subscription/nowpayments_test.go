package subscription_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
)

func TestNOWPaymentsProvider(t *testing.T) {
	t.Parallel()

	newProvider := func(t *testing.T, handler http.HandlerFunc) *subscription.NOWPaymentsProvider {
		t.Helper()
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		return subscription.NewNOWPaymentsProvider(
			subscription.NOWPaymentsConfig{APIKey: "test-key", IPNSecret: "ipn"},
			subscription.WithNOWPaymentsBaseURL(srv.URL),
			subscription.WithNOWPaymentsHTTPClient(srv.Client()),
		)
	}

	t.Run("creates invoice with QR code", func(t *testing.T) {
		t.Parallel()

		var gotOrderID string
		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/invoice", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.InDelta(t, 4.99, body["price_amount"], 0.001)
			assert.Equal(t, "USD", body["price_currency"])
			gotOrderID, _ = body["order_id"].(string)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"5077125051","invoice_url":"https://nowpayments.io/payment/?iid=5077125051"}`))
		})

		checkout, err := provider.CreateCheckout(context.Background(), subscription.CheckoutRequest{
			UserID: 42,
			ChatID: 42,
			Tier:   store.TierBased,
			Plan:   subscription.Plan{Tier: store.TierBased, PriceCents: 499, Currency: "USD"},
		})
		require.NoError(t, err)

		assert.Equal(t, "https://nowpayments.io/payment/?iid=5077125051", checkout.URL)
		assert.Equal(t, "5077125051", checkout.SessionID)
		require.NotEmpty(t, checkout.QRCode)
		assert.Equal(t, "\x89PNG", string(checkout.QRCode[:4]))

		userID, tier, err := subscription.ParseOrderID(gotOrderID)
		require.NoError(t, err)
		assert.EqualValues(t, 42, userID)
		assert.Equal(t, store.TierBased, tier)
		assert.Equal(t, gotOrderID, checkout.OrderID)
	})

	t.Run("API error", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
		})

		_, err := provider.CreateCheckout(context.Background(), subscription.CheckoutRequest{
			UserID: 1,
			Tier:   store.TierPro,
			Plan:   subscription.Plan{Tier: store.TierPro, PriceCents: 999, Currency: "USD"},
		})
		assert.ErrorIs(t, err, subscription.ErrProviderCallFailed)
	})

	t.Run("cancels subscription", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/subscription/sub_9/cancel", r.URL.Path)

			var body map[string]bool
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body["cancel_at_period_end"])

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		})

		require.NoError(t, provider.CancelSubscription(context.Background(), "sub_9", true))
	})

	t.Run("cancel without subscription id", func(t *testing.T) {
		t.Parallel()

		provider := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		err := provider.CancelSubscription(context.Background(), "", true)
		assert.ErrorIs(t, err, subscription.ErrNoActiveSubscription)
	})

	t.Run("missing API key panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			subscription.NewNOWPaymentsProvider(subscription.NOWPaymentsConfig{})
		})
	})
}
