package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/pkg/logger"
)

// Notifier delivers payment-related user-facing messages. Best-effort: a
// failed send is logged but never fails the event.
type Notifier interface {
	// PaymentSuccess confirms a completed purchase.
	PaymentSuccess(ctx context.Context, userID, chatID int64, tier store.Tier) error
	// PaymentFailed reports a failed or expired crypto payment.
	PaymentFailed(ctx context.Context, userID int64, reason string) error
}

// Manager is the subscription state machine. Per user the states are
// free, active(tier), cancel-pending(tier) and back to free; every
// transition is driven by a normalized PaymentEvent or a user-initiated
// cancellation.
type Manager struct {
	users     store.UserStore
	subs      store.SubscriptionStore
	catalog   *Catalog
	providers map[string]PaymentProvider
	notif     Notifier
	log       *slog.Logger
}

// NewManager creates the lifecycle manager. Panics on nil required
// dependencies.
func NewManager(
	users store.UserStore,
	subs store.SubscriptionStore,
	catalog *Catalog,
	notifier Notifier,
	log *slog.Logger,
	providers ...PaymentProvider,
) *Manager {
	if users == nil {
		panic("subscription.NewManager: nil user store")
	}
	if subs == nil {
		panic("subscription.NewManager: nil subscription store")
	}
	if catalog == nil {
		panic("subscription.NewManager: nil catalog")
	}
	if notifier == nil {
		panic("subscription.NewManager: nil notifier")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	m := &Manager{
		users:     users,
		subs:      subs,
		catalog:   catalog,
		notif:     notifier,
		log:       log,
		providers: make(map[string]PaymentProvider, len(providers)),
	}
	for _, p := range providers {
		m.providers[p.Name()] = p
	}
	return m
}

// HandleEvent applies one normalized payment event. Resolution failures
// (unknown product, unresolvable user) return an error with no partial
// writes.
func (m *Manager) HandleEvent(ctx context.Context, ev PaymentEvent) error {
	switch ev.Type {
	case EventSubscriptionActivated:
		tier, err := m.resolveTier(ev)
		if err != nil {
			return err
		}
		return m.activate(ctx, ev, tier, false)

	case EventSubscriptionEnded:
		return m.terminate(ctx, ev)

	case EventCheckoutCompleted:
		tier, err := m.resolveTier(ev)
		if err != nil {
			return err
		}
		if err := m.activate(ctx, ev, tier, true); err != nil {
			return err
		}
		return nil

	case EventPaymentFinished:
		if !ev.Tier.Valid() || ev.Tier == store.TierFree {
			return fmt.Errorf("%w: %q", ErrUnknownTier, ev.Tier)
		}
		return m.activate(ctx, ev, ev.Tier, true)

	case EventPaymentFailed:
		// Notification only, deliberately no state change.
		if err := m.notif.PaymentFailed(ctx, ev.UserID, ev.ProviderEvent); err != nil {
			m.log.WarnContext(ctx, "payment failure notification failed",
				slog.Int64("user_id", ev.UserID), logger.Error(err))
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
}

func (m *Manager) resolveTier(ev PaymentEvent) (store.Tier, error) {
	if ev.Tier != "" {
		if !ev.Tier.Valid() || ev.Tier == store.TierFree {
			return "", fmt.Errorf("%w: %q", ErrUnknownTier, ev.Tier)
		}
		return ev.Tier, nil
	}
	return m.catalog.TierByProduct(ev.ProductID)
}

// activate applies (or re-applies) a tier activation. Idempotent: the same
// event twice leaves identical state. summaries_used resets only on initial
// activation of a new subscription id.
func (m *Manager) activate(ctx context.Context, ev PaymentEvent, tier store.Tier, notifySuccess bool) error {
	plan, err := m.catalog.Plan(tier)
	if err != nil {
		return err
	}

	// User resolution happens before any write.
	account, err := m.users.GetUser(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return fmt.Errorf("%w: user %d", ErrUnknownUser, ev.UserID)
		}
		return err
	}

	status := ev.Status
	if status != store.StatusActive && status != store.StatusTrialing {
		status = store.StatusActive
	}

	subID := ev.SubscriptionID
	if subID == "" && ev.PaymentID != "" {
		subID = ev.Provider + "_" + ev.PaymentID
	}

	now := time.Now().UTC()
	initial := account.Premium.SubscriptionID != subID

	premium := store.Premium{
		Tier:           tier,
		Active:         true,
		ActivationDate: &now,
		ExpiryDate:     ev.PeriodEnd,
		SummariesLimit: plan.MonthlyLimit,
		SubscriptionID: subID,
		Renewable:      true,
	}
	if initial {
		premium.SummariesUsed = 0
	} else {
		// Stripe keeps delivering subscription.updated for a subscription
		// the user already cancelled; the pending-cancellation marks carry
		// over so a replay never revives a cancelled subscription.
		premium.SummariesUsed = account.Premium.SummariesUsed
		premium.ActivationDate = account.Premium.ActivationDate
		premium.Cancelled = account.Premium.Cancelled
		premium.CancelAtPeriodEnd = account.Premium.CancelAtPeriodEnd
		premium.Renewable = account.Premium.Renewable
	}
	if ev.CancelAtPeriodEnd {
		premium.Cancelled = true
		premium.CancelAtPeriodEnd = true
		premium.Renewable = false
	}

	rec := store.SubscriptionRecord{
		SubscriptionID:     subID,
		UserID:             ev.UserID,
		Provider:           ev.Provider,
		Status:             status,
		Tier:               tier,
		ProductID:          ev.ProductID,
		PriceID:            ev.PriceID,
		Interval:           ev.Interval,
		Amount:             ev.Amount,
		Currency:           ev.Currency,
		CurrentPeriodStart: ev.PeriodStart,
		CurrentPeriodEnd:   ev.PeriodEnd,
		CancelAtPeriodEnd:  premium.CancelAtPeriodEnd,
	}
	if err := m.subs.StoreSubscription(ctx, rec); err != nil {
		return err
	}

	if err := m.users.UpdatePremium(ctx, ev.UserID, premium); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "subscription activated",
		slog.Int64("user_id", ev.UserID),
		slog.String("tier", string(tier)),
		slog.String("subscription_id", subID),
		slog.String("provider", ev.Provider))

	if notifySuccess {
		if err := m.notif.PaymentSuccess(ctx, ev.UserID, ev.ChatID, tier); err != nil {
			m.log.WarnContext(ctx, "payment success notification failed",
				slog.Int64("user_id", ev.UserID), logger.Error(err))
		}
	}
	return nil
}

// terminate handles deletion and terminal statuses: the audit record keeps
// the terminal status and premium falls back to free defaults. Idempotent.
func (m *Manager) terminate(ctx context.Context, ev PaymentEvent) error {
	account, err := m.users.GetUser(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return fmt.Errorf("%w: user %d", ErrUnknownUser, ev.UserID)
		}
		return err
	}

	status := ev.Status
	if !status.Terminal() {
		status = store.StatusEnded
	}

	now := time.Now().UTC()
	rec := store.SubscriptionRecord{
		SubscriptionID:     ev.SubscriptionID,
		UserID:             ev.UserID,
		Provider:           ev.Provider,
		Status:             status,
		Tier:               account.Premium.Tier,
		ProductID:          ev.ProductID,
		PriceID:            ev.PriceID,
		CurrentPeriodStart: ev.PeriodStart,
		CurrentPeriodEnd:   ev.PeriodEnd,
		EndedAt:            &now,
	}
	// Premium already fell back to free on the first apply, so a replayed
	// terminal event must take the paid tier and the commercial fields from
	// the stored record, not from the account.
	if prev, ok := m.priorRecord(ctx, ev.UserID, ev.SubscriptionID); ok {
		rec.Tier = prev.Tier
		rec.CreatedAt = prev.CreatedAt
		rec.Interval = prev.Interval
		rec.Amount = prev.Amount
		rec.Currency = prev.Currency
		rec.CancelAtPeriodEnd = prev.CancelAtPeriodEnd
		rec.CanceledAt = prev.CanceledAt
		if rec.ProductID == "" {
			rec.ProductID = prev.ProductID
		}
		if rec.PriceID == "" {
			rec.PriceID = prev.PriceID
		}
		if prev.EndedAt != nil {
			rec.EndedAt = prev.EndedAt
		}
	}
	if err := m.subs.StoreSubscription(ctx, rec); err != nil {
		return err
	}

	if err := m.users.UpdatePremium(ctx, ev.UserID, store.FreePremium(m.catalog.FreeLimit())); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "subscription ended",
		slog.Int64("user_id", ev.UserID),
		slog.String("subscription_id", ev.SubscriptionID),
		slog.String("status", string(status)))
	return nil
}

// priorRecord finds the stored record for a subscription id in the user's
// history. Lookup failures degrade to "not found"; the terminal upsert still
// proceeds with the event's fields.
func (m *Manager) priorRecord(ctx context.Context, userID int64, subscriptionID string) (store.SubscriptionRecord, bool) {
	history, err := m.subs.ListSubscriptionHistory(ctx, userID)
	if err != nil {
		return store.SubscriptionRecord{}, false
	}
	for _, rec := range history {
		if rec.SubscriptionID == subscriptionID {
			return rec, true
		}
	}
	return store.SubscriptionRecord{}, false
}

// Cancel is the user-initiated path. The provider call happens first; local
// state changes only after the provider confirms, so local and external
// subscription state cannot diverge. The user keeps premium features until
// the provider's terminal event arrives.
func (m *Manager) Cancel(ctx context.Context, userID int64, atPeriodEnd bool) error {
	rec, err := m.subs.GetUserSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			return ErrNoActiveSubscription
		}
		return err
	}

	provider, ok := m.providers[rec.Provider]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, rec.Provider)
	}

	if err := provider.CancelSubscription(ctx, rec.SubscriptionID, atPeriodEnd); err != nil {
		return errors.Join(ErrProviderCallFailed, err)
	}

	if err := m.subs.MarkCancelAtPeriodEnd(ctx, rec.SubscriptionID); err != nil {
		return err
	}

	premium, err := m.users.GetPremium(ctx, userID)
	if err != nil {
		return err
	}
	// Tier, limit and expiry stay untouched: grace until the period ends.
	premium.Cancelled = true
	premium.Renewable = false
	premium.CancelAtPeriodEnd = atPeriodEnd
	if err := m.users.UpdatePremium(ctx, userID, *premium); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "subscription cancellation requested",
		slog.Int64("user_id", userID),
		slog.String("subscription_id", rec.SubscriptionID),
		slog.Bool("at_period_end", atPeriodEnd))
	return nil
}

// CreateCheckout starts a hosted purchase of a paid tier through the named
// provider.
func (m *Manager) CreateCheckout(ctx context.Context, userID, chatID int64, tier store.Tier, providerName string) (*Checkout, error) {
	plan, err := m.catalog.Plan(tier)
	if err != nil {
		return nil, err
	}

	provider, ok := m.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}

	checkout, err := provider.CreateCheckout(ctx, CheckoutRequest{
		UserID: userID,
		ChatID: chatID,
		Tier:   tier,
		Plan:   plan,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderCallFailed, err)
	}
	return checkout, nil
}

// History returns the user's subscription audit trail, newest first.
func (m *Manager) History(ctx context.Context, userID int64) ([]store.SubscriptionRecord, error) {
	return m.subs.ListSubscriptionHistory(ctx, userID)
}
