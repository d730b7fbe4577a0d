package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/pkg/logger"
	"github.com/briefly-bot/briefly/pkg/ratelimit"
)

// EventHandler consumes normalized payment events. Implemented by
// subscription.Manager.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev subscription.PaymentEvent) error
}

// Config carries webhook verification secrets and abuse limits.
type Config struct {
	StripeWebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET,required"`
	NOWPaymentsIPNKey   string        `env:"NOWPAYMENTS_IPN_SECRET,required"`
	RateLimit           int           `env:"WEBHOOK_RATE_LIMIT" envDefault:"100"`
	RateWindow          time.Duration `env:"WEBHOOK_RATE_WINDOW" envDefault:"1m"`
}

// Gateway terminates provider webhooks: it verifies signatures against the
// raw request body, normalizes provider payloads into PaymentEvents and
// hands them to the lifecycle manager.
type Gateway struct {
	cfg     Config
	handler EventHandler
	store   ratelimit.Store
	log     *slog.Logger
}

// Option customizes the gateway.
type Option func(*Gateway)

// WithRateLimitStore replaces the in-memory rate limit store, typically with
// the Redis store when running more than one instance.
func WithRateLimitStore(store ratelimit.Store) Option {
	return func(g *Gateway) {
		if store == nil {
			panic("gateway.WithRateLimitStore: nil store")
		}
		g.store = store
	}
}

// New creates the webhook gateway. Panics on a nil handler or missing
// secrets.
func New(cfg Config, handler EventHandler, log *slog.Logger, opts ...Option) *Gateway {
	if handler == nil {
		panic("gateway.New: nil event handler")
	}
	if cfg.StripeWebhookSecret == "" {
		panic("gateway.New: empty stripe webhook secret")
	}
	if cfg.NOWPaymentsIPNKey == "" {
		panic("gateway.New: empty nowpayments IPN secret")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	g := &Gateway{cfg: cfg, handler: handler, log: log}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		g.store = ratelimit.NewMemoryStore()
	}
	return g
}

// Router builds the HTTP routing tree. The per-IP rate limit wraps the
// webhook routes so abusive traffic is rejected before any signature work.
func (g *Gateway) Router(healthChecks ...func(context.Context) error) http.Handler {
	limiter, err := ratelimit.NewFixedWindow(g.store, g.cfg.RateLimit, g.cfg.RateWindow)
	if err != nil {
		panic("gateway.Router: " + err.Error())
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter, ratelimit.PerIP))
		r.Post("/stripe", g.handleStripe)
		r.Post("/nowpayments", g.handleNOWPayments)
	})

	r.Get("/healthz", g.handleHealth(healthChecks))
	return r
}

func (g *Gateway) handleHealth(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				g.log.ErrorContext(r.Context(), "health check failed", logger.Error(err))
				g.respond(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		g.respond(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (g *Gateway) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (g *Gateway) respondError(w http.ResponseWriter, status int, msg string) {
	g.respond(w, status, map[string]string{"error": msg})
}

// dispatch hands a normalized event to the manager. Handler failures map to
// 400 so the provider retries the delivery.
func (g *Gateway) dispatch(w http.ResponseWriter, r *http.Request, ev subscription.PaymentEvent) {
	if err := g.handler.HandleEvent(r.Context(), ev); err != nil {
		g.log.ErrorContext(r.Context(), "payment event rejected",
			slog.String("provider", ev.Provider),
			slog.String("type", string(ev.Type)),
			slog.Int64("user_id", ev.UserID),
			logger.Error(err))
		g.respondError(w, http.StatusBadRequest, "event rejected")
		return
	}

	g.log.InfoContext(r.Context(), "payment event processed",
		slog.String("provider", ev.Provider),
		slog.String("type", string(ev.Type)),
		slog.Int64("user_id", ev.UserID))
	g.respond(w, http.StatusOK, map[string]string{"status": "processed"})
}
