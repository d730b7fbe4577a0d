package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/briefly-bot/briefly/internal/bot"
	appconfig "github.com/briefly-bot/briefly/internal/config"
	"github.com/briefly-bot/briefly/internal/gateway"
	"github.com/briefly-bot/briefly/internal/media"
	"github.com/briefly-bot/briefly/internal/quota"
	"github.com/briefly-bot/briefly/internal/store"
	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/internal/summarizer"
	"github.com/briefly-bot/briefly/pkg/blob"
	"github.com/briefly-bot/briefly/pkg/httpserver"
	"github.com/briefly-bot/briefly/pkg/logger"
	"github.com/briefly-bot/briefly/pkg/mongo"
	"github.com/briefly-bot/briefly/pkg/ratelimit"
	"github.com/briefly-bot/briefly/pkg/redis"
)

// notifierRelay breaks the construction cycle between the quota engine and
// the bot: the engine needs a notifier before the bot exists.
type notifierRelay struct {
	bot *bot.Bot
}

func (r *notifierRelay) LimitReached(ctx context.Context, userID int64, s quota.LimitStatus) error {
	return r.bot.LimitReached(ctx, userID, s)
}

func (r *notifierRelay) LimitWarning(ctx context.Context, userID int64, s quota.LimitStatus) error {
	return r.bot.LimitWarning(ctx, userID, s)
}

func (r *notifierRelay) UsageNotice(ctx context.Context, userID int64, s quota.LimitStatus) error {
	return r.bot.UsageNotice(ctx, userID, s)
}

func (r *notifierRelay) PaymentSuccess(ctx context.Context, userID, chatID int64, tier store.Tier) error {
	return r.bot.PaymentSuccess(ctx, userID, chatID, tier)
}

func (r *notifierRelay) PaymentFailed(ctx context.Context, userID int64, reason string) error {
	return r.bot.PaymentFailed(ctx, userID, reason)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := appconfig.Load()
	if err != nil {
		slog.Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithService("briefly"))
	logger.SetAsDefault(log)

	catalog, err := subscription.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load tier catalog", logger.Error(err))
		os.Exit(1)
	}

	mongoClient, err := mongo.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Error("failed to connect to mongodb", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.Mongo.Database)

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	users := store.NewMongo(db, catalog.FreeLimit())

	relay := &notifierRelay{}
	quotaEngine := quota.NewEngine(users, relay, log)

	stripeProvider := subscription.NewStripeProvider(cfg.Stripe)
	nowProvider := subscription.NewNOWPaymentsProvider(cfg.NOWPayments)
	manager := subscription.NewManager(users, users, catalog, relay, log,
		stripeProvider, nowProvider)

	chat := summarizer.NewOpenAIClient(cfg.OpenAI)
	transcripts := summarizer.NewTimedTextClient()
	summaries := summarizer.NewService(chat, transcripts, log)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("failed to create telegram client", logger.Error(err))
		os.Exit(1)
	}
	api.Debug = cfg.Telegram.Debug

	var botOpts []bot.Option
	if cfg.AudioEnabled {
		audioSvc, err := buildAudio(ctx, log)
		if err != nil {
			log.Error("failed to build audio pipeline", logger.Error(err))
			os.Exit(1)
		}
		botOpts = append(botOpts, bot.WithAudio(audioSvc))
	}

	tgBot := bot.New(cfg.Telegram, api, users, quotaEngine, manager, summaries, catalog, log, botOpts...)
	relay.bot = tgBot

	rateStore, err := ratelimit.NewRedisStore(redisClient, "webhooks")
	if err != nil {
		log.Error("failed to create rate limit store", logger.Error(err))
		os.Exit(1)
	}
	webhooks := gateway.New(cfg.Gateway, manager, log, gateway.WithRateLimitStore(rateStore))
	router := webhooks.Router(
		mongo.Healthcheck(mongoClient),
		redis.Healthcheck(redisClient),
	)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, router)
	})
	g.Go(func() error {
		return tgBot.Run(ctx, api, cfg.Telegram)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		log.Error("shutdown with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func buildAudio(ctx context.Context, log *slog.Logger) (*media.Service, error) {
	audioCfg, err := appconfig.LoadAudio()
	if err != nil {
		return nil, err
	}

	var storage blob.Storage
	switch audioCfg.Backend {
	case "s3":
		storage, err = blob.NewS3Storage(ctx, audioCfg.S3)
	default:
		storage, err = blob.NewLocalStorage(audioCfg.Local)
	}
	if err != nil {
		return nil, err
	}

	tts := media.NewGoogleTTS(audioCfg.TTS)
	return media.NewService(tts, storage, log), nil
}
