package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
)

type spyPaymentNotifier struct {
	mu       sync.Mutex
	success  []store.Tier
	failures []string
}

func (s *spyPaymentNotifier) PaymentSuccess(_ context.Context, _, _ int64, tier store.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.success = append(s.success, tier)
	return nil
}

func (s *spyPaymentNotifier) PaymentFailed(_ context.Context, _ int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, reason)
	return nil
}

type fakeProvider struct {
	name        string
	cancelErr   error
	cancelCalls []string
	checkout    *subscription.Checkout
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CreateCheckout(_ context.Context, _ subscription.CheckoutRequest) (*subscription.Checkout, error) {
	if p.checkout == nil {
		return &subscription.Checkout{URL: "https://pay.example/session"}, nil
	}
	return p.checkout, nil
}

func (p *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string, _ bool) error {
	p.cancelCalls = append(p.cancelCalls, subscriptionID)
	return p.cancelErr
}

func testCatalog(t *testing.T) *subscription.Catalog {
	t.Helper()
	catalog, err := subscription.NewCatalog(5,
		subscription.Plan{Tier: store.TierBased, MonthlyLimit: 50, StripeProductID: "prod_based", StripePriceID: "price_based", PriceCents: 499, Currency: "USD"},
		subscription.Plan{Tier: store.TierPro, MonthlyLimit: store.UnlimitedSummaries, StripeProductID: "prod_pro", StripePriceID: "price_pro", PriceCents: 999, Currency: "USD"},
	)
	require.NoError(t, err)
	return catalog
}

func newTestManager(t *testing.T, providers ...subscription.PaymentProvider) (*subscription.Manager, *store.Memory, *spyPaymentNotifier) {
	t.Helper()
	mem := store.NewMemory(5)
	notif := &spyPaymentNotifier{}
	mgr := subscription.NewManager(mem, mem, testCatalog(t), notif, nil, providers...)
	return mgr, mem, notif
}

func activatedEvent(userID int64, subID, productID string, end time.Time) subscription.PaymentEvent {
	return subscription.PaymentEvent{
		Type:           subscription.EventSubscriptionActivated,
		Provider:       "stripe",
		ProviderEvent:  "customer.subscription.created",
		UserID:         userID,
		SubscriptionID: subID,
		ProductID:      productID,
		Status:         store.StatusActive,
		PeriodEnd:      &end,
	}
}

func TestManagerActivation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("activates paid tier with catalog limit", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 1)
		require.NoError(t, err)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		require.NoError(t, mgr.HandleEvent(ctx, activatedEvent(1, "sub_1", "prod_based", end)))

		premium, err := mem.GetPremium(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, store.TierBased, premium.Tier)
		assert.True(t, premium.Active)
		assert.Equal(t, 50, premium.SummariesLimit)
		assert.Equal(t, 0, premium.SummariesUsed)
		assert.Equal(t, "sub_1", premium.SubscriptionID)
		assert.True(t, premium.Renewable)
		require.NotNil(t, premium.ExpiryDate)
		assert.WithinDuration(t, end, *premium.ExpiryDate, time.Second)

		rec, err := mem.GetUserSubscription(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, store.StatusActive, rec.Status)
		assert.Equal(t, store.TierBased, rec.Tier)
	})

	t.Run("replayed activation leaves state unchanged", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 2)
		require.NoError(t, err)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		ev := activatedEvent(2, "sub_2", "prod_based", end)
		require.NoError(t, mgr.HandleEvent(ctx, ev))

		// Consume part of the allowance between deliveries.
		for range 3 {
			require.NoError(t, mem.IncrementUsage(ctx, 2, false, 1.5))
		}
		before, err := mem.GetPremium(ctx, 2)
		require.NoError(t, err)

		require.NoError(t, mgr.HandleEvent(ctx, ev))

		after, err := mem.GetPremium(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, *before, *after)
		assert.Equal(t, 3, after.SummariesUsed)
	})

	t.Run("new subscription id resets usage", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 3)
		require.NoError(t, err)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		require.NoError(t, mgr.HandleEvent(ctx, activatedEvent(3, "sub_old", "prod_based", end)))
		require.NoError(t, mem.IncrementUsage(ctx, 3, false, 1))

		require.NoError(t, mgr.HandleEvent(ctx, activatedEvent(3, "sub_new", "prod_pro", end)))

		premium, err := mem.GetPremium(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, store.TierPro, premium.Tier)
		assert.Equal(t, store.UnlimitedSummaries, premium.SummariesLimit)
		assert.Equal(t, 0, premium.SummariesUsed)
		assert.Equal(t, "sub_new", premium.SubscriptionID)
	})

	t.Run("unknown product fails without writes", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 4)
		require.NoError(t, err)

		end := time.Now().UTC()
		err = mgr.HandleEvent(ctx, activatedEvent(4, "sub_4", "prod_nope", end))
		assert.ErrorIs(t, err, subscription.ErrUnknownProduct)

		premium, err := mem.GetPremium(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, store.TierFree, premium.Tier)

		_, err = mem.GetUserSubscription(ctx, 4)
		assert.ErrorIs(t, err, store.ErrSubscriptionNotFound)
	})

	t.Run("unknown user fails", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newTestManager(t)

		end := time.Now().UTC()
		err := mgr.HandleEvent(ctx, activatedEvent(999, "sub_x", "prod_based", end))
		assert.ErrorIs(t, err, subscription.ErrUnknownUser)
	})

	t.Run("checkout completion notifies", func(t *testing.T) {
		t.Parallel()
		mgr, mem, notif := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 5)
		require.NoError(t, err)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		ev := activatedEvent(5, "sub_5", "prod_pro", end)
		ev.Type = subscription.EventCheckoutCompleted
		ev.ChatID = 5
		require.NoError(t, mgr.HandleEvent(ctx, ev))

		notif.mu.Lock()
		defer notif.mu.Unlock()
		require.Len(t, notif.success, 1)
		assert.Equal(t, store.TierPro, notif.success[0])
	})

	t.Run("finished crypto payment uses event tier", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 6)
		require.NoError(t, err)

		require.NoError(t, mgr.HandleEvent(ctx, subscription.PaymentEvent{
			Type:      subscription.EventPaymentFinished,
			Provider:  "nowpayments",
			UserID:    6,
			Tier:      store.TierBased,
			PaymentID: "pay_6",
		}))

		premium, err := mem.GetPremium(ctx, 6)
		require.NoError(t, err)
		assert.Equal(t, store.TierBased, premium.Tier)
		assert.Equal(t, "nowpayments_pay_6", premium.SubscriptionID)
	})

	t.Run("failed payment notifies without state change", func(t *testing.T) {
		t.Parallel()
		mgr, mem, notif := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 7)
		require.NoError(t, err)

		require.NoError(t, mgr.HandleEvent(ctx, subscription.PaymentEvent{
			Type:          subscription.EventPaymentFailed,
			Provider:      "nowpayments",
			ProviderEvent: "expired",
			UserID:        7,
		}))

		premium, err := mem.GetPremium(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, store.TierFree, premium.Tier)

		notif.mu.Lock()
		defer notif.mu.Unlock()
		require.Len(t, notif.failures, 1)
		assert.Equal(t, "expired", notif.failures[0])
	})

	t.Run("unknown event type", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newTestManager(t)

		err := mgr.HandleEvent(ctx, subscription.PaymentEvent{Type: "mystery", UserID: 1})
		assert.ErrorIs(t, err, subscription.ErrUnknownEventType)
	})
}

func TestManagerTermination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ended subscription falls back to free", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 10)
		require.NoError(t, err)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		require.NoError(t, mgr.HandleEvent(ctx, activatedEvent(10, "sub_10", "prod_pro", end)))

		require.NoError(t, mgr.HandleEvent(ctx, subscription.PaymentEvent{
			Type:           subscription.EventSubscriptionEnded,
			Provider:       "stripe",
			UserID:         10,
			SubscriptionID: "sub_10",
			Status:         store.StatusCanceled,
		}))

		premium, err := mem.GetPremium(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, store.TierFree, premium.Tier)
		assert.True(t, premium.Active)
		assert.Equal(t, 5, premium.SummariesLimit)
		assert.True(t, premium.Renewable)
		assert.False(t, premium.Cancelled)

		// The terminal record stays for the history, excluded from lookups.
		_, err = mem.GetUserSubscription(ctx, 10)
		assert.ErrorIs(t, err, store.ErrSubscriptionNotFound)

		history, err := mgr.History(ctx, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, store.StatusCanceled, history[0].Status)
		assert.NotNil(t, history[0].EndedAt)
	})

	t.Run("termination is idempotent", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 11)
		require.NoError(t, err)

		ev := subscription.PaymentEvent{
			Type:           subscription.EventSubscriptionEnded,
			Provider:       "stripe",
			UserID:         11,
			SubscriptionID: "sub_11",
		}
		require.NoError(t, mgr.HandleEvent(ctx, ev))
		require.NoError(t, mgr.HandleEvent(ctx, ev))

		premium, err := mem.GetPremium(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, store.TierFree, premium.Tier)
	})

	t.Run("replayed terminal event keeps the paid tier in history", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t)

		_, err := mem.EnsureUser(ctx, 12)
		require.NoError(t, err)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		require.NoError(t, mgr.HandleEvent(ctx, activatedEvent(12, "sub_12", "prod_based", end)))

		ended := subscription.PaymentEvent{
			Type:           subscription.EventSubscriptionEnded,
			Provider:       "stripe",
			UserID:         12,
			SubscriptionID: "sub_12",
			Status:         store.StatusCanceled,
		}
		require.NoError(t, mgr.HandleEvent(ctx, ended))

		// Premium is free now; the redelivered event must not leak that
		// into the audit row.
		require.NoError(t, mgr.HandleEvent(ctx, ended))

		history, err := mgr.History(ctx, 12)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, store.TierBased, history[0].Tier)
		assert.Equal(t, store.StatusCanceled, history[0].Status)
	})
}

func TestManagerCancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T, provider *fakeProvider) (*subscription.Manager, *store.Memory) {
		t.Helper()
		mgr, mem, _ := newTestManager(t, provider)

		_, err := mem.EnsureUser(ctx, 20)
		require.NoError(t, err)
		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		require.NoError(t, mgr.HandleEvent(ctx, activatedEvent(20, "sub_20", "prod_based", end)))
		return mgr, mem
	}

	t.Run("keeps tier until period end", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{name: "stripe"}
		mgr, mem := setup(t, provider)

		require.NoError(t, mgr.Cancel(ctx, 20, true))
		assert.Equal(t, []string{"sub_20"}, provider.cancelCalls)

		premium, err := mem.GetPremium(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, store.TierBased, premium.Tier)
		assert.Equal(t, 50, premium.SummariesLimit)
		assert.True(t, premium.Active)
		assert.True(t, premium.Cancelled)
		assert.True(t, premium.CancelAtPeriodEnd)
		assert.False(t, premium.Renewable)

		rec, err := mem.GetUserSubscription(ctx, 20)
		require.NoError(t, err)
		assert.True(t, rec.CancelAtPeriodEnd)
		assert.NotNil(t, rec.CanceledAt)
	})

	t.Run("replayed update keeps the cancel pending", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{name: "stripe"}
		mgr, mem := setup(t, provider)

		require.NoError(t, mgr.Cancel(ctx, 20, true))

		// Stripe fires customer.subscription.updated with status still
		// active right after the cancel call.
		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		replay := activatedEvent(20, "sub_20", "prod_based", end)
		replay.ProviderEvent = "customer.subscription.updated"
		require.NoError(t, mgr.HandleEvent(ctx, replay))

		premium, err := mem.GetPremium(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, store.TierBased, premium.Tier)
		assert.True(t, premium.Cancelled)
		assert.True(t, premium.CancelAtPeriodEnd)
		assert.False(t, premium.Renewable)

		rec, err := mem.GetUserSubscription(ctx, 20)
		require.NoError(t, err)
		assert.True(t, rec.CancelAtPeriodEnd)
	})

	t.Run("update flagged cancel_at_period_end marks the premium", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{name: "stripe"}
		mgr, mem := setup(t, provider)

		end := time.Now().UTC().Add(30 * 24 * time.Hour)
		update := activatedEvent(20, "sub_20", "prod_based", end)
		update.ProviderEvent = "customer.subscription.updated"
		update.CancelAtPeriodEnd = true
		require.NoError(t, mgr.HandleEvent(ctx, update))

		premium, err := mem.GetPremium(ctx, 20)
		require.NoError(t, err)
		assert.True(t, premium.Cancelled)
		assert.True(t, premium.CancelAtPeriodEnd)
		assert.False(t, premium.Renewable)
	})

	t.Run("provider failure leaves state untouched", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{name: "stripe", cancelErr: assert.AnError}
		mgr, mem := setup(t, provider)

		err := mgr.Cancel(ctx, 20, true)
		assert.ErrorIs(t, err, subscription.ErrProviderCallFailed)

		premium, err := mem.GetPremium(ctx, 20)
		require.NoError(t, err)
		assert.False(t, premium.Cancelled)
		assert.True(t, premium.Renewable)

		rec, err := mem.GetUserSubscription(ctx, 20)
		require.NoError(t, err)
		assert.False(t, rec.CancelAtPeriodEnd)
	})

	t.Run("no active subscription", func(t *testing.T) {
		t.Parallel()
		mgr, mem, _ := newTestManager(t, &fakeProvider{name: "stripe"})

		_, err := mem.EnsureUser(ctx, 21)
		require.NoError(t, err)

		err = mgr.Cancel(ctx, 21, true)
		assert.ErrorIs(t, err, subscription.ErrNoActiveSubscription)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		_, mem := setup(t, &fakeProvider{name: "stripe"})

		bare := subscription.NewManager(mem, mem, testCatalog(t), &spyPaymentNotifier{}, nil)
		err := bare.Cancel(ctx, 20, true)
		assert.ErrorIs(t, err, subscription.ErrUnknownProvider)
	})
}

func TestManagerCreateCheckout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("delegates to provider", func(t *testing.T) {
		t.Parallel()
		provider := &fakeProvider{
			name:     "nowpayments",
			checkout: &subscription.Checkout{URL: "https://nowpayments.io/inv/1", OrderID: "1_based_n"},
		}
		mgr, _, _ := newTestManager(t, provider)

		checkout, err := mgr.CreateCheckout(ctx, 1, 1, store.TierBased, "nowpayments")
		require.NoError(t, err)
		assert.Equal(t, "https://nowpayments.io/inv/1", checkout.URL)
	})

	t.Run("unknown tier", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newTestManager(t, &fakeProvider{name: "stripe"})

		_, err := mgr.CreateCheckout(ctx, 1, 1, store.TierFree, "stripe")
		assert.ErrorIs(t, err, subscription.ErrUnknownTier)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		mgr, _, _ := newTestManager(t)

		_, err := mgr.CreateCheckout(ctx, 1, 1, store.TierBased, "stripe")
		assert.ErrorIs(t, err, subscription.ErrUnknownProvider)
	})
}

func TestNewManagerPanics(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory(5)
	catalog := testCatalog(t)
	notif := &spyPaymentNotifier{}

	assert.Panics(t, func() { subscription.NewManager(nil, mem, catalog, notif, nil) })
	assert.Panics(t, func() { subscription.NewManager(mem, nil, catalog, notif, nil) })
	assert.Panics(t, func() { subscription.NewManager(mem, mem, nil, notif, nil) })
	assert.Panics(t, func() { subscription.NewManager(mem, mem, catalog, nil, nil) })
}
