package config

import (
	"github.com/briefly-bot/briefly/internal/bot"
	"github.com/briefly-bot/briefly/internal/gateway"
	"github.com/briefly-bot/briefly/internal/media"
	"github.com/briefly-bot/briefly/internal/subscription"
	"github.com/briefly-bot/briefly/internal/summarizer"
	"github.com/briefly-bot/briefly/pkg/blob"
	"github.com/briefly-bot/briefly/pkg/config"
	"github.com/briefly-bot/briefly/pkg/httpserver"
	"github.com/briefly-bot/briefly/pkg/logger"
	"github.com/briefly-bot/briefly/pkg/mongo"
	"github.com/briefly-bot/briefly/pkg/redis"
)

// Config aggregates every per-concern configuration struct. A missing
// required secret fails the load, so misconfiguration surfaces at startup
// and never as a runtime check.
type Config struct {
	Logger      logger.Config
	Mongo       mongo.Config
	Redis       redis.Config
	HTTP        httpserver.Config
	Telegram    bot.Config
	Gateway     gateway.Config
	Stripe      subscription.StripeConfig
	NOWPayments subscription.NOWPaymentsConfig
	OpenAI      summarizer.OpenAIConfig

	// CatalogPath points at the YAML tier catalog, the source of truth for
	// limits and product mappings.
	CatalogPath string `env:"TIER_CATALOG_PATH" envDefault:"./config/tiers.yaml"`

	// AudioEnabled switches the audio summary pipeline on. TTS and blob
	// settings load separately so deployments without audio need none of
	// those secrets.
	AudioEnabled bool `env:"AUDIO_SUMMARIES_ENABLED" envDefault:"false"`
}

// Audio holds the configuration loaded only when audio summaries are on.
type Audio struct {
	TTS media.GoogleTTSConfig
	// Backend selects blob storage: "local" or "s3".
	Backend string `env:"BLOB_BACKEND" envDefault:"local"`
	Local   blob.LocalConfig
	S3      blob.S3Config
}

// Load reads the full application configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAudio reads the audio pipeline configuration.
func LoadAudio() (*Audio, error) {
	var cfg Audio
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
