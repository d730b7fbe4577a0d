package subscription

import (
	"context"

	"github.com/briefly-bot/briefly/internal/store"
)

// CheckoutRequest contains what a provider needs to start a purchase.
type CheckoutRequest struct {
	UserID int64
	ChatID int64
	Tier   store.Tier
	Plan   Plan
}

// Checkout is a hosted payment session the bot hands to the user.
type Checkout struct {
	URL string
	// OrderID is set for crypto invoices ("{userID}_{tier}_{nonce}").
	OrderID string
	// QRCode is an optional PNG encoding of the payment URL.
	QRCode []byte
	// SessionID is the provider's session identifier when one exists.
	SessionID string
}

// PaymentProvider abstracts one payment rail (Stripe cards, NOWPayments
// crypto). Implementations wrap the official SDK or HTTP API and keep
// provider quirks out of the lifecycle manager.
type PaymentProvider interface {
	// Name returns the stable provider key stored on SubscriptionRecords.
	Name() string

	// CreateCheckout starts a hosted payment session for a paid tier.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// CancelSubscription cancels the provider-side subscription. With
	// atPeriodEnd the user keeps access until the period closes and the
	// provider later sends the terminal webhook.
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error
}
