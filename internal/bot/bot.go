package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/briefly-bot/briefly/internal/media"
	"github.com/briefly-bot/briefly/internal/quota"
	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/internal/summarizer"
	"github.com/briefly-bot/briefly/pkg/ratelimit"
)

// Config configures the Telegram bot.
type Config struct {
	Token          string        `env:"TELEGRAM_BOT_TOKEN,required"`
	Debug          bool          `env:"TELEGRAM_DEBUG" envDefault:"false"`
	UpdateTimeout  int           `env:"TELEGRAM_UPDATE_TIMEOUT" envDefault:"30"`
	RequestSpacing time.Duration `env:"BOT_REQUEST_SPACING" envDefault:"60s"`
}

// Sender is the slice of the Telegram API the bot uses. Satisfied by
// *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Quota is the admission surface the bot consumes.
type Quota interface {
	CheckLimits(ctx context.Context, userID int64) quota.LimitStatus
	AdmitOrNotify(ctx context.Context, userID int64) bool
	RecordUsage(ctx context.Context, userID int64, isAudio bool, processingTime float64) error
}

// Subscriptions is the lifecycle surface the bot consumes.
type Subscriptions interface {
	CreateCheckout(ctx context.Context, userID, chatID int64, tier store.Tier, provider string) (*subscription.Checkout, error)
	Cancel(ctx context.Context, userID int64, atPeriodEnd bool) error
}

// Summaries produces a text summary for a video link.
type Summaries interface {
	Summarize(ctx context.Context, link string, prefs store.Preferences) (*summarizer.Summary, error)
}

// AudioSummaries produces a spoken rendition of a summary.
type AudioSummaries interface {
	Generate(ctx context.Context, text string, prefs store.Preferences) (*media.AudioSummary, error)
}

// Bot is the Telegram front end. It owns the update loop and implements the
// quota and payment Notifier interfaces so admission denials and webhook
// outcomes reach the user as chat messages.
type Bot struct {
	api       Sender
	users     store.UserStore
	quota     Quota
	subs      Subscriptions
	summaries Summaries
	audio     AudioSummaries
	catalog   *subscription.Catalog
	spacing   *ratelimit.FixedWindow
	log       *slog.Logger
}

// Option customizes the bot.
type Option func(*Bot)

// WithAudio enables audio summaries for users who opted in.
func WithAudio(audio AudioSummaries) Option {
	return func(b *Bot) {
		if audio == nil {
			panic("bot.WithAudio: nil audio service")
		}
		b.audio = audio
	}
}

// WithRequestSpacing replaces the per-user spacing limiter, mainly for tests.
func WithRequestSpacing(fw *ratelimit.FixedWindow) Option {
	return func(b *Bot) {
		if fw == nil {
			panic("bot.WithRequestSpacing: nil limiter")
		}
		b.spacing = fw
	}
}

// New creates the bot. Panics on nil required dependencies.
func New(
	cfg Config,
	api Sender,
	users store.UserStore,
	quotaEngine Quota,
	subs Subscriptions,
	summaries Summaries,
	catalog *subscription.Catalog,
	log *slog.Logger,
	opts ...Option,
) *Bot {
	if api == nil {
		panic("bot.New: nil telegram API")
	}
	if users == nil {
		panic("bot.New: nil user store")
	}
	if quotaEngine == nil {
		panic("bot.New: nil quota engine")
	}
	if subs == nil {
		panic("bot.New: nil subscription manager")
	}
	if summaries == nil {
		panic("bot.New: nil summarizer")
	}
	if catalog == nil {
		panic("bot.New: nil catalog")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	spacing := cfg.RequestSpacing
	if spacing <= 0 {
		spacing = time.Minute
	}
	fw, err := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 1, spacing)
	if err != nil {
		panic("bot.New: " + err.Error())
	}

	b := &Bot{
		api:       api,
		users:     users,
		quota:     quotaEngine,
		subs:      subs,
		summaries: summaries,
		catalog:   catalog,
		spacing:   fw,
		log:       log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run consumes the long-poll update stream until the context is cancelled.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI, cfg Config) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.UpdateTimeout

	updates := api.GetUpdatesChan(u)
	b.log.InfoContext(ctx, "telegram bot started", slog.String("username", api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			b.log.InfoContext(ctx, "telegram bot stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.HandleUpdate(ctx, update)
		}
	}
}
