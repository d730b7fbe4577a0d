package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	stripesub "github.com/stripe/stripe-go/v79/subscription"
)

// ProviderStripe is the provider name recorded on Stripe subscriptions.
const ProviderStripe = "stripe"

// StripeConfig carries Stripe credentials and return URLs.
type StripeConfig struct {
	SecretKey  string `env:"STRIPE_SECRET_KEY,required"`
	SuccessURL string `env:"STRIPE_SUCCESS_URL,required"`
	CancelURL  string `env:"STRIPE_CANCEL_URL,required"`
}

// StripeProvider creates hosted checkout sessions and cancels subscriptions
// through the Stripe API. The stripe-go client uses a package-level key, so
// only one provider instance per process makes sense.
type StripeProvider struct {
	successURL string
	cancelURL  string
}

// NewStripeProvider sets the package-level API key and returns the provider.
// Panics on a missing secret key.
func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	if cfg.SecretKey == "" {
		panic("subscription.NewStripeProvider: empty secret key")
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (p *StripeProvider) Name() string { return ProviderStripe }

// CreateCheckout starts a subscription-mode checkout session. The user and
// chat identity travel in session metadata so the webhook can route the
// completed purchase back to the Telegram account.
func (p *StripeProvider) CreateCheckout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	if req.Plan.StripePriceID == "" {
		return nil, fmt.Errorf("%w: tier %q has no stripe price", ErrUnknownTier, req.Tier)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.Plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
		Params: stripe.Params{
			Metadata: map[string]string{
				"user_id": strconv.FormatInt(req.UserID, 10),
				"chat_id": strconv.FormatInt(req.ChatID, 10),
				"tier":    string(req.Tier),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": strconv.FormatInt(req.UserID, 10),
				"chat_id": strconv.FormatInt(req.ChatID, 10),
				"tier":    string(req.Tier),
			},
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderCallFailed, err)
	}
	return &Checkout{
		URL:       sess.URL,
		SessionID: sess.ID,
	}, nil
}

// CancelSubscription cancels at period end by default, immediately when
// atPeriodEnd is false.
func (p *StripeProvider) CancelSubscription(_ context.Context, subscriptionID string, atPeriodEnd bool) error {
	if subscriptionID == "" {
		return ErrNoActiveSubscription
	}

	if atPeriodEnd {
		_, err := stripesub.Update(subscriptionID, &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
		if err != nil {
			return errors.Join(ErrProviderCallFailed, err)
		}
		return nil
	}

	_, err := stripesub.Cancel(subscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return errors.Join(ErrProviderCallFailed, err)
	}
	return nil
}
