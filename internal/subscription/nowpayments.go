package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/briefly-bot/briefly/pkg/qrcode"
)

// ProviderNOWPayments is the provider name recorded on crypto subscriptions.
const ProviderNOWPayments = "nowpayments"

const nowPaymentsBaseURL = "https://api.nowpayments.io/v1"

// NOWPaymentsConfig carries the NOWPayments API credentials and IPN routing.
type NOWPaymentsConfig struct {
	APIKey      string `env:"NOWPAYMENTS_API_KEY,required"`
	IPNSecret   string `env:"NOWPAYMENTS_IPN_SECRET,required"`
	CallbackURL string `env:"NOWPAYMENTS_CALLBACK_URL"`
	SuccessURL  string `env:"NOWPAYMENTS_SUCCESS_URL"`
	CancelURL   string `env:"NOWPAYMENTS_CANCEL_URL"`
}

// NOWPaymentsProvider creates crypto invoices and cancels recurring payments
// through the NOWPayments REST API. The order_id encodes user and tier so the
// IPN handler can resolve the purchase without extra lookups.
type NOWPaymentsProvider struct {
	apiKey      string
	baseURL     string
	callbackURL string
	successURL  string
	cancelURL   string
	httpClient  *http.Client
}

// NOWPaymentsOption customizes the provider.
type NOWPaymentsOption func(*NOWPaymentsProvider)

// WithNOWPaymentsHTTPClient replaces the HTTP client, mainly for tests.
func WithNOWPaymentsHTTPClient(c *http.Client) NOWPaymentsOption {
	return func(p *NOWPaymentsProvider) {
		if c == nil {
			panic("subscription.WithNOWPaymentsHTTPClient: nil client")
		}
		p.httpClient = c
	}
}

// WithNOWPaymentsBaseURL overrides the API endpoint, mainly for tests.
func WithNOWPaymentsBaseURL(u string) NOWPaymentsOption {
	return func(p *NOWPaymentsProvider) {
		if u == "" {
			panic("subscription.WithNOWPaymentsBaseURL: empty URL")
		}
		p.baseURL = u
	}
}

// NewNOWPaymentsProvider creates the crypto payment provider. Panics on a
// missing API key.
func NewNOWPaymentsProvider(cfg NOWPaymentsConfig, opts ...NOWPaymentsOption) *NOWPaymentsProvider {
	if cfg.APIKey == "" {
		panic("subscription.NewNOWPaymentsProvider: empty API key")
	}
	p := &NOWPaymentsProvider{
		apiKey:      cfg.APIKey,
		baseURL:     nowPaymentsBaseURL,
		callbackURL: cfg.CallbackURL,
		successURL:  cfg.SuccessURL,
		cancelURL:   cfg.CancelURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *NOWPaymentsProvider) Name() string { return ProviderNOWPayments }

type nowInvoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	IPNCallbackURL   string  `json:"ipn_callback_url,omitempty"`
	SuccessURL       string  `json:"success_url,omitempty"`
	CancelURL        string  `json:"cancel_url,omitempty"`
}

type nowInvoiceResponse struct {
	ID         json.Number `json:"id"`
	InvoiceURL string      `json:"invoice_url"`
}

// CreateCheckout creates a hosted crypto invoice and a QR code PNG for the
// invoice URL. The catalog price is stored in cents.
func (p *NOWPaymentsProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	orderID := BuildOrderID(req.UserID, req.Tier, uuid.NewString())

	body := nowInvoiceRequest{
		PriceAmount:      float64(req.Plan.PriceCents) / 100,
		PriceCurrency:    req.Plan.Currency,
		OrderID:          orderID,
		OrderDescription: fmt.Sprintf("Briefly %s subscription", req.Tier),
		IPNCallbackURL:   p.callbackURL,
		SuccessURL:       p.successURL,
		CancelURL:        p.cancelURL,
	}

	var resp nowInvoiceResponse
	if err := p.do(ctx, http.MethodPost, "/invoice", body, &resp); err != nil {
		return nil, err
	}
	if resp.InvoiceURL == "" {
		return nil, errors.Join(ErrProviderCallFailed, errors.New("nowpayments: empty invoice URL"))
	}

	qr, err := qrcode.Generate(resp.InvoiceURL, 256)
	if err != nil {
		// The invoice still works as a plain link.
		qr = nil
	}

	return &Checkout{
		URL:       resp.InvoiceURL,
		OrderID:   orderID,
		QRCode:    qr,
		SessionID: resp.ID.String(),
	}, nil
}

// CancelSubscription stops a recurring crypto payment plan.
func (p *NOWPaymentsProvider) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	if subscriptionID == "" {
		return ErrNoActiveSubscription
	}
	body := map[string]bool{"cancel_at_period_end": atPeriodEnd}
	return p.do(ctx, http.MethodPost, "/subscription/"+subscriptionID+"/cancel", body, nil)
}

func (p *NOWPaymentsProvider) do(ctx context.Context, method, endpoint string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrProviderCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Join(ErrProviderCallFailed,
			fmt.Errorf("nowpayments: unexpected status %s: %s", resp.Status, msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
