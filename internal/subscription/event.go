package subscription

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/briefly-bot/briefly/internal/store"
)

// EventType is the normalized payment event type. The gateway maps each
// provider's raw webhook vocabulary onto these before the manager sees it.
type EventType string

const (
	// EventSubscriptionActivated covers subscription created/updated with an
	// active or trialing status.
	EventSubscriptionActivated EventType = "subscription_activated"
	// EventSubscriptionEnded covers deletion and terminal statuses.
	EventSubscriptionEnded EventType = "subscription_ended"
	// EventCheckoutCompleted is the idempotent confirmation path after a
	// hosted checkout finishes.
	EventCheckoutCompleted EventType = "checkout_completed"
	// EventPaymentFinished is a confirmed crypto payment.
	EventPaymentFinished EventType = "payment_finished"
	// EventPaymentFailed is a failed or expired crypto payment. Notification
	// only, no state change.
	EventPaymentFailed EventType = "payment_failed"
)

// PaymentEvent is the provider-agnostic shape the lifecycle manager
// consumes. Provider-specific parsing and verification stay at the gateway
// boundary.
type PaymentEvent struct {
	Type           EventType
	Provider       string
	ProviderEvent  string
	UserID         int64
	ChatID         int64
	SubscriptionID string
	ProductID      string
	PriceID        string
	Status         store.SubscriptionStatus
	// Tier is set when the provider payload carries the tier directly
	// (crypto order ids); otherwise the manager resolves it from ProductID.
	Tier        store.Tier
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Interval    string
	Amount      int64
	Currency    string
	PaymentID   string
	// CancelAtPeriodEnd mirrors the provider's pending-cancellation flag.
	// Stripe keeps firing subscription.updated with an active status after
	// a cancel call; the flag is what distinguishes those deliveries.
	CancelAtPeriodEnd bool
}

// BuildOrderID formats a crypto order id as "{userID}_{tier}_{nonce}".
func BuildOrderID(userID int64, tier store.Tier, nonce string) string {
	return fmt.Sprintf("%d_%s_%s", userID, tier, nonce)
}

// ParseOrderID splits a crypto order id back into user and tier.
func ParseOrderID(orderID string) (userID int64, tier store.Tier, err error) {
	parts := strings.SplitN(orderID, "_", 3)
	if len(parts) != 3 {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidOrderID, orderID)
	}

	userID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidOrderID, orderID)
	}

	tier = store.Tier(parts[1])
	if !tier.Valid() || tier == store.TierFree {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidOrderID, orderID)
	}

	return userID, tier, nil
}
