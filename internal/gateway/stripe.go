package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/pkg/logger"
)

// Stripe caps webhook payloads at 64 KiB; larger bodies are not legitimate.
const maxWebhookBody = int64(64 << 10)

// handleStripe verifies the Stripe-Signature header against the raw body
// before any payload parsing, then normalizes the event for the manager.
func (g *Gateway) handleStripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		g.respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		g.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		g.log.WarnContext(r.Context(), "stripe signature verification failed", logger.Error(err))
		g.respondError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		g.stripeCheckoutCompleted(w, r, event)

	case "customer.subscription.created", "customer.subscription.updated":
		g.stripeSubscriptionChanged(w, r, event)

	case "customer.subscription.deleted":
		g.stripeSubscriptionDeleted(w, r, event)

	default:
		// Acknowledged so Stripe stops redelivering types we do not consume.
		g.respond(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (g *Gateway) stripeCheckoutCompleted(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		g.respondError(w, http.StatusBadRequest, "malformed checkout session")
		return
	}

	userID, chatID, ok := stripeIdentity(sess.Metadata)
	if !ok {
		g.respondError(w, http.StatusBadRequest, "missing user metadata")
		return
	}

	ev := subscription.PaymentEvent{
		Type:          subscription.EventCheckoutCompleted,
		Provider:      subscription.ProviderStripe,
		ProviderEvent: string(event.Type),
		UserID:        userID,
		ChatID:        chatID,
		Tier:          store.Tier(sess.Metadata["tier"]),
		Status:        store.StatusActive,
		Amount:        sess.AmountTotal,
		Currency:      string(sess.Currency),
	}
	if sess.Subscription != nil {
		ev.SubscriptionID = sess.Subscription.ID
	}
	g.dispatch(w, r, ev)
}

func (g *Gateway) stripeSubscriptionChanged(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	sub, ev, ok := g.stripeSubscriptionEvent(w, event)
	if !ok {
		return
	}

	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		ev.Type = subscription.EventSubscriptionActivated
		if sub.Status == stripe.SubscriptionStatusTrialing {
			ev.Status = store.StatusTrialing
		} else {
			ev.Status = store.StatusActive
		}
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid,
		stripe.SubscriptionStatusIncompleteExpired:
		ev.Type = subscription.EventSubscriptionEnded
		ev.Status = store.StatusCanceled
	default:
		// past_due and incomplete wait for a decisive status.
		g.respond(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	g.dispatch(w, r, ev)
}

func (g *Gateway) stripeSubscriptionDeleted(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	_, ev, ok := g.stripeSubscriptionEvent(w, event)
	if !ok {
		return
	}
	ev.Type = subscription.EventSubscriptionEnded
	ev.Status = store.StatusCanceled
	g.dispatch(w, r, ev)
}

// stripeSubscriptionEvent parses the subscription object and fills the
// fields shared by every subscription event.
func (g *Gateway) stripeSubscriptionEvent(w http.ResponseWriter, event stripe.Event) (*stripe.Subscription, subscription.PaymentEvent, bool) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		g.respondError(w, http.StatusBadRequest, "malformed subscription")
		return nil, subscription.PaymentEvent{}, false
	}

	userID, chatID, ok := stripeIdentity(sub.Metadata)
	if !ok {
		g.respondError(w, http.StatusBadRequest, "missing user metadata")
		return nil, subscription.PaymentEvent{}, false
	}

	ev := subscription.PaymentEvent{
		Provider:          subscription.ProviderStripe,
		ProviderEvent:     string(event.Type),
		UserID:            userID,
		ChatID:            chatID,
		SubscriptionID:    sub.ID,
		Tier:              store.Tier(sub.Metadata["tier"]),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodStart > 0 {
		start := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		ev.PeriodStart = &start
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		ev.PeriodEnd = &end
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		ev.PriceID = price.ID
		ev.Amount = price.UnitAmount
		ev.Currency = string(price.Currency)
		if price.Product != nil {
			ev.ProductID = price.Product.ID
		}
		if price.Recurring != nil {
			ev.Interval = string(price.Recurring.Interval)
		}
	}
	return &sub, ev, true
}

// stripeIdentity reads the Telegram identity planted in checkout metadata.
func stripeIdentity(md map[string]string) (userID, chatID int64, ok bool) {
	if md == nil {
		return 0, 0, false
	}
	userID, err := strconv.ParseInt(md["user_id"], 10, 64)
	if err != nil || userID == 0 {
		return 0, 0, false
	}
	chatID, _ = strconv.ParseInt(md["chat_id"], 10, 64)
	if chatID == 0 {
		chatID = userID
	}
	return userID, chatID, true
}
