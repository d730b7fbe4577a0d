package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net/http"

	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/pkg/logger"
)

// nowIPN is the subset of the NOWPayments IPN payload the gateway consumes.
type nowIPN struct {
	PaymentID      json.Number `json:"payment_id"`
	PaymentStatus  string      `json:"payment_status"`
	OrderID        string      `json:"order_id"`
	SubscriptionID string      `json:"subscription_id"`
	PriceAmount    float64     `json:"price_amount"`
	PriceCurrency  string      `json:"price_currency"`
}

// handleNOWPayments verifies the IPN signature (HMAC-SHA512 of the raw body
// with the IPN secret, constant-time compared against X-NOWPayments-Sig)
// before parsing any JSON.
func (g *Gateway) handleNOWPayments(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		g.respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	sig := r.Header.Get("X-NOWPayments-Sig")
	if sig == "" {
		g.respondError(w, http.StatusBadRequest, "missing signature header")
		return
	}
	if !verifyIPNSignature(body, sig, g.cfg.NOWPaymentsIPNKey) {
		g.log.WarnContext(r.Context(), "nowpayments signature verification failed")
		g.respondError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	var ipn nowIPN
	if err := json.Unmarshal(body, &ipn); err != nil {
		g.respondError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	if ipn.PaymentStatus == "" || ipn.PaymentID.String() == "" || ipn.OrderID == "" {
		g.respondError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	userID, tier, err := subscription.ParseOrderID(ipn.OrderID)
	if err != nil {
		g.log.WarnContext(r.Context(), "nowpayments order id rejected",
			logger.Error(err))
		g.respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ev := subscription.PaymentEvent{
		Provider:       subscription.ProviderNOWPayments,
		ProviderEvent:  ipn.PaymentStatus,
		UserID:         userID,
		ChatID:         userID,
		Tier:           tier,
		SubscriptionID: ipn.SubscriptionID,
		PaymentID:      ipn.PaymentID.String(),
		Amount:         int64(math.Round(ipn.PriceAmount * 100)),
		Currency:       ipn.PriceCurrency,
	}

	switch ipn.PaymentStatus {
	case "finished":
		ev.Type = subscription.EventPaymentFinished
	case "failed", "expired":
		ev.Type = subscription.EventPaymentFailed
	default:
		// waiting, confirming and partially_paid are progress updates.
		g.respond(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	g.dispatch(w, r, ev)
}

// verifyIPNSignature checks the hex HMAC-SHA512 digest in constant time.
func verifyIPNSignature(body []byte, sig, secret string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}
